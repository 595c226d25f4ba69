package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/nutrifill/internal/async"
	"github.com/joseph-ayodele/nutrifill/internal/autofill"
	"github.com/joseph-ayodele/nutrifill/internal/browser"
	"github.com/joseph-ayodele/nutrifill/internal/mcp"
	"github.com/joseph-ayodele/nutrifill/internal/registry/memory"
)

func newMCPCmd(a *app) *cobra.Command {
	var formPath, cdpURL string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the parse and fill tools over MCP stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout. nutrifill_parse is
always available. nutrifill_fill is registered when a target is given: a
browser (--cdp-url or NUTRIFILL_CDP_URL) or a YAML form snapshot (--form).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cdpURL != "" {
				a.cfg.Browser.DebuggerURL = cdpURL
			}

			var resolve async.Resolver
			var notifier autofill.Notifier
			switch {
			case formPath != "":
				reg, err := memory.LoadForm(formPath)
				if err != nil {
					return err
				}
				resolve = async.Static(reg)
			case a.cfg.Browser.DebuggerURL != "":
				page, err := browser.Connect(ctx, a.cfg.Browser, a.logger)
				if err != nil {
					return err
				}
				defer page.Close()
				wait := a.cfg.Browser.ReadyTimeout
				resolve = func(ctx context.Context) (autofill.Registry, error) {
					return page.Resolve(ctx, wait)
				}
				notifier = page.Notifier()
			}

			cfg := mcp.ServerConfig{Version: version}
			if resolve != nil {
				pass, closeHistory, err := a.newPass(ctx, notifier)
				if err != nil {
					return err
				}
				defer closeHistory()
				queue := async.NewPassQueue(pass, resolve, a.logger, async.WithBound(pass.Bound))
				defer queue.Shutdown(context.WithoutCancel(ctx))
				cfg.Queue = queue
			}

			a.logger.Info("mcp.serve", "fill", cfg.Queue != nil)
			return mcp.Serve(cfg)
		},
	}
	cmd.Flags().StringVar(&formPath, "form", "", "fill a YAML form snapshot instead of the browser")
	cmd.Flags().StringVar(&cdpURL, "cdp-url", "", "DevTools websocket URL (overrides NUTRIFILL_CDP_URL)")
	return cmd
}
