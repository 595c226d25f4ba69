package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/autofill"
	"github.com/joseph-ayodele/nutrifill/internal/browser"
	"github.com/joseph-ayodele/nutrifill/internal/commit"
	"github.com/joseph-ayodele/nutrifill/internal/common"
	"github.com/joseph-ayodele/nutrifill/internal/notify"
	"github.com/joseph-ayodele/nutrifill/internal/pipeline"
	"github.com/joseph-ayodele/nutrifill/internal/registry/memory"
)

type fillOptions struct {
	cdpURL      string
	launch      bool
	headless    bool
	keyboardNav bool
	wait        time.Duration
	formPath    string
}

func newFillCmd(a *app) *cobra.Command {
	var o fillOptions
	cmd := &cobra.Command{
		Use:   "fill [file|-]",
		Short: "Run one fill pass against the open custom-foods page",
		Long: `Connects to Chrome over the DevTools protocol, waits for the custom-foods
form and fills it from the text. Use --cdp-url (or NUTRIFILL_CDP_URL) to attach
to a running browser started with --remote-debugging-port, or --launch to start
one. With --form the pass runs against a YAML form snapshot instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if o.formPath != "" {
				return a.fillForm(cmd, o.formPath, text)
			}
			return a.fillBrowser(cmd, o, text)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.cdpURL, "cdp-url", "", "DevTools websocket URL (overrides NUTRIFILL_CDP_URL)")
	f.BoolVar(&o.launch, "launch", false, "launch a browser instead of attaching")
	f.BoolVar(&o.headless, "headless", false, "run the launched browser headless")
	f.BoolVar(&o.keyboardNav, "keyboard-nav", true, "make Enter jump to the next number box")
	f.DurationVar(&o.wait, "wait", 0, "how long to wait for the form (default NUTRIFILL_READY_TIMEOUT)")
	f.StringVar(&o.formPath, "form", "", "fill a YAML form snapshot instead of the browser")
	return cmd
}

func (a *app) newPass(ctx context.Context, n autofill.Notifier) (*pipeline.Pass, func(), error) {
	m, err := a.matcher()
	if err != nil {
		return nil, func() {}, err
	}
	history, closeHistory, err := a.openHistory(ctx, false)
	if err != nil {
		return nil, func() {}, err
	}
	var rec pipeline.Recorder
	if history != nil {
		rec = history
	}
	driver := commit.NewDriver(commit.TimingFromConfig(a.cfg.Timing), a.logger)
	return pipeline.NewPass(m, driver, n, rec, a.logger), closeHistory, nil
}

func (a *app) fillBrowser(cmd *cobra.Command, o fillOptions, text string) error {
	ctx := common.WithSource(cmd.Context(), constants.SourceCLI)

	bcfg := a.cfg.Browser
	if o.cdpURL != "" {
		bcfg.DebuggerURL = o.cdpURL
	}
	if o.launch {
		bcfg.DebuggerURL = ""
		bcfg.Headless = o.headless
	} else if bcfg.DebuggerURL == "" {
		return common.ConfigError("set --cdp-url (or NUTRIFILL_CDP_URL), or pass --launch", common.ErrInvalidInput)
	}
	bcfg.KeyboardNav = o.keyboardNav
	if o.wait > 0 {
		bcfg.ReadyTimeout = o.wait
	}

	page, err := browser.Connect(ctx, bcfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := page.Close(); err != nil {
			a.logger.Warn("browser.close.failed", "error", err)
		}
	}()

	reg, err := page.Resolve(ctx, bcfg.ReadyTimeout)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pass, closeHistory, err := a.newPass(ctx, notify.Multi{page.Notifier(), notify.NewTerminal(out)})
	if err != nil {
		return err
	}
	defer closeHistory()

	ctx, cancel := context.WithTimeout(ctx, pass.Bound(text))
	defer cancel()
	rep, err := pass.Run(ctx, text, reg)
	printFailures(out, rep)
	return err
}

func (a *app) fillForm(cmd *cobra.Command, formPath, text string) error {
	ctx := common.WithSource(cmd.Context(), constants.SourceCLI)

	reg, err := memory.LoadForm(formPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	pass, closeHistory, err := a.newPass(ctx, notify.NewTerminal(out))
	if err != nil {
		return err
	}
	defer closeHistory()

	rep, err := pass.Run(ctx, text, reg)
	if err != nil {
		return err
	}
	for _, f := range reg.All() {
		fmt.Fprintf(out, "%s = %s %s\n", f.Label(), f.Value(), f.Unit())
	}
	printFailures(out, rep)
	return nil
}

func printFailures(out io.Writer, rep pipeline.Report) {
	if len(rep.Failures) == 0 {
		return
	}
	fmt.Fprintf(out, "%d of %d entries not filled:\n", len(rep.Failures), rep.Entries)
	for _, f := range rep.Failures {
		fmt.Fprintf(out, "  %s  (%s)\n", f.Entry, f.Reason)
	}
}
