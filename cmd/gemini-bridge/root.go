// ABOUTME: Root cobra command, global flags, and the lazily built application graph
// ABOUTME: Commands open only what they need: config and logger always, the store on demand

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/2389/gemini-bridge/internal/config"
	"github.com/2389/gemini-bridge/internal/conversation"
	"github.com/2389/gemini-bridge/internal/invoke"
	"github.com/2389/gemini-bridge/internal/logging"
	"github.com/2389/gemini-bridge/internal/store"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gemini-bridge",
		Short: "Bridge a chat UI to the gemini CLI",
		Long: "gemini-bridge runs prompts through the locally installed gemini CLI, keeps\n" +
			"conversations in SQLite, and exports transcripts as markdown, text or JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file path (default $XDG_CONFIG_HOME/gemini-bridge/bridge.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"override logging.level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newHealthCmd(opts),
		newPromptCmd(opts),
		newSessionCmd(opts),
		newMessageCmd(opts),
		newSendCmd(opts),
		newExportCmd(opts),
		newConfigCmd(opts),
		newResolveCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// app is everything a command may need, built from the service config.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	tool       *config.ToolHolder
	invoker    *invoke.Invoker
	store      *store.SQLiteStore
}

// load reads the service config and builds the logger, tool holder and
// invoker. The store is opened separately by openStore.
func (o *rootOptions) load(cmd *cobra.Command) (*app, error) {
	path := config.Path(o.configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	holder, err := config.NewToolHolder(cfg.Tool.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading tool config: %w", err)
	}

	return &app{
		configPath: path,
		cfg:        cfg,
		logger:     logger,
		tool:       holder,
		invoker:    invoke.NewInvoker(holder, invoke.HostPlatform(), logger),
	}, nil
}

// loadWithStore is load plus an open store. Call close when done.
func (o *rootOptions) loadWithStore(cmd *cobra.Command) (*app, error) {
	a, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.store = s
	return a, nil
}

func (a *app) conversation() *conversation.Service {
	return conversation.New(a.store, a.invoker, a.logger)
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing store", "error", err)
		}
	}
}
