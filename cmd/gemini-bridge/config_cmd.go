// ABOUTME: Commands that inspect and edit the gemini tool config, resolve the executable,
// ABOUTME: mint API tokens, and print the version

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/gemini-bridge/internal/auth"
	"github.com/2389/gemini-bridge/internal/config"
	"github.com/2389/gemini-bridge/internal/invoke"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the gemini tool configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the tool config and where it lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			gray := color.New(color.FgHiBlack)
			gray.Fprintf(out, "# service config: %s\n", a.configPath)
			gray.Fprintf(out, "# tool config:    %s\n", a.tool.Path())

			data, err := json.MarshalIndent(a.tool.Snapshot(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-path [path]",
		Short: "Set the gemini executable path; no argument clears it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTool(cmd, opts, func(t *config.Tool) {
				if len(args) == 0 || args[0] == "" {
					t.ExecutablePath = nil
					return
				}
				p := args[0]
				t.ExecutablePath = &p
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "add-arg -- <arg>...",
		Short:   "Append arguments passed to gemini before --prompt",
		Example: "  gemini-bridge config add-arg -- --model gemini-2.5-flash",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTool(cmd, opts, func(t *config.Tool) {
				t.ExtraArgs = append(t.ExtraArgs, args...)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear-args",
		Short: "Remove all extra arguments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return updateTool(cmd, opts, func(t *config.Tool) {
				t.ExtraArgs = []string{}
			})
		},
	})

	return cmd
}

// updateTool applies edit to the current tool config and persists it.
func updateTool(cmd *cobra.Command, opts *rootOptions, edit func(*config.Tool)) error {
	a, err := opts.load(cmd)
	if err != nil {
		return err
	}

	t := a.tool.Snapshot()
	edit(&t)
	if err := a.tool.Set(t); err != nil {
		return fmt.Errorf("saving tool config: %w", err)
	}

	a.logger.Debug("tool config saved", "path", a.tool.Path())
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "saved %s\n", a.tool.Path())
	return nil
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Show which gemini executable prompts will use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tool := a.tool.Snapshot()
			if tool.ExecutablePath != nil && *tool.ExecutablePath != "" {
				fmt.Fprintf(out, "%s (configured)\n", *tool.ExecutablePath)
				return nil
			}

			resolver := invoke.NewResolver(invoke.HostPlatform(), a.logger)
			if p, ok := resolver.Resolve(cmd.Context()); ok {
				fmt.Fprintf(out, "%s (found)\n", p)
				return nil
			}
			color.New(color.FgYellow).Fprintf(out, "%s (not found, relying on PATH)\n", invoke.FallbackCommand)
			return nil
		},
	}
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if a.cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set; the API accepts requests without a token")
			}

			v, err := auth.NewJWTVerifier([]byte(a.cfg.Auth.JWTSecret))
			if err != nil {
				return err
			}
			token, err := v.Generate(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "ui", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gemini-bridge version %s\n", version)
		},
	}
}
