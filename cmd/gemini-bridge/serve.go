// ABOUTME: serve and health commands for the local HTTP API
// ABOUTME: serve wires store, invoker, broadcaster, dedupe and optional JWT auth into api.Server

package main

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/gemini-bridge/internal/api"
	"github.com/2389/gemini-bridge/internal/auth"
	"github.com/2389/gemini-bridge/internal/conversation"
	"github.com/2389/gemini-bridge/internal/dedupe"
	"github.com/2389/gemini-bridge/internal/export"
	"github.com/2389/gemini-bridge/internal/invoke"
)

const banner = `
                   _       _       _        _    _
  __ _ ___ _ __  (_)_ _ (_)___| |__ _ _(_)__| |__ _ ___
 / _' / -_) '  \ | | ' \| |___| '_ \ '_| / _' / _' / -_)
 \__, \___|_|_|_||_|_||_|_|   |_.__/_| |_\__,_\__, \___|
 |___/                                       |___/
`

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.loadWithStore(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			cyan := color.New(color.FgCyan)
			gray := color.New(color.FgHiBlack)
			green := color.New(color.FgGreen)
			yellow := color.New(color.FgYellow)

			cyan.Fprint(out, banner)
			gray.Fprintf(out, "    version: %s\n\n", version)

			green.Fprint(out, "    ▶ ")
			fmt.Fprintf(out, "Config:    %s\n", a.configPath)
			green.Fprint(out, "    ▶ ")
			fmt.Fprintf(out, "Database:  %s\n", a.cfg.Database.Path)
			green.Fprint(out, "    ▶ ")
			fmt.Fprintf(out, "HTTP:      %s\n", a.cfg.Server.HTTPAddr)
			green.Fprint(out, "    ▶ ")
			fmt.Fprint(out, "Auth:      ")
			if a.cfg.Auth.JWTSecret != "" {
				fmt.Fprintln(out, "bearer JWT")
			} else {
				yellow.Fprintln(out, "disabled")
			}
			fmt.Fprintln(out)

			// Leave verifier as a nil interface when auth is off; a typed nil
			// would enable the middleware.
			var verifier auth.TokenVerifier
			if a.cfg.Auth.JWTSecret != "" {
				v, err := auth.NewJWTVerifier([]byte(a.cfg.Auth.JWTSecret))
				if err != nil {
					return err
				}
				verifier = v
			}

			broadcaster := conversation.NewBroadcaster(a.logger)
			defer broadcaster.Close()

			cache := dedupe.New(a.cfg.Dedupe.Window, dedupe.DefaultMaxKeys)
			defer cache.Close()

			srv, err := api.New(api.Options{
				Addr:         a.cfg.Server.HTTPAddr,
				Store:        a.store,
				Conversation: a.conversation().WithBroadcaster(broadcaster),
				Prompter:     a.invoker,
				Exporter:     export.New(a.store, a.logger),
				Tool:         a.tool,
				Resolver:     invoke.NewResolver(invoke.HostPlatform(), a.logger),
				Broadcaster:  broadcaster,
				Dedupe:       cache,
				Verifier:     verifier,
				Logger:       a.logger,
			})
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			a.logger.Info("starting gemini-bridge",
				"config", a.configPath,
				"http_addr", a.cfg.Server.HTTPAddr,
				"dedupe_window", a.cfg.Dedupe.Window,
			)
			return srv.Run(cmd.Context())
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that a running server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("http://%s/health", a.cfg.Server.HTTPAddr)
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("creating request: %w", err)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}
}
