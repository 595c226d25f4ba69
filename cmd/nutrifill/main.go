package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/nutrifill/internal/common"
	"github.com/joseph-ayodele/nutrifill/internal/match"
	"github.com/joseph-ayodele/nutrifill/internal/repository"
)

var version = "dev"

// app carries what every subcommand shares once flags are parsed.
type app struct {
	verbose bool
	tables  string
	cfg     *common.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "nutrifill",
		Short: "Autofill a nutrition-facts form from pasted text",
		Long: `nutrifill reads lines such as "Protein: 12.5 g" and writes each value into
the matching field of the Cronometer custom-foods form.

Settings come from NUTRIFILL_* environment variables; flags override them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = newLogger(cmd.ErrOrStderr(), a.verbose)
			slog.SetDefault(a.logger)
			a.cfg = common.LoadConfig()
			if a.tables != "" {
				a.cfg.TablesPath = a.tables
			}
			return a.cfg.Validate()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&a.tables, "tables", "", "equivalence tables file (overrides NUTRIFILL_TABLES)")

	root.AddCommand(
		newParseCmd(a),
		newMatchCmd(a),
		newFillCmd(a),
		newTablesCmd(a),
		newHistoryCmd(a),
		newMCPCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger writes messages and attributes without time or level.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func (a *app) matcher() (*match.Matcher, error) {
	tables := match.DefaultTables()
	if a.cfg.TablesPath != "" {
		t, err := match.LoadTables(a.cfg.TablesPath)
		if err != nil {
			return nil, err
		}
		tables = t
	}
	return match.NewMatcher(tables, a.logger), nil
}

// openHistory opens the history store when a DSN is configured. The returned
// repository is nil otherwise; close is always safe to call.
func (a *app) openHistory(ctx context.Context, required bool) (repository.HistoryRepository, func(), error) {
	if a.cfg.History.DSN == "" {
		if required {
			return nil, func() {}, common.ConfigError("NUTRIFILL_DB_URL is required for history", nil)
		}
		return nil, func() {}, nil
	}
	db, err := repository.Open(ctx, repository.ConfigFrom(a.cfg.History), a.logger)
	if err != nil {
		return nil, func() {}, err
	}
	return repository.NewHistoryRepository(db, a.logger), func() { repository.Close(db, a.logger) }, nil
}

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}
