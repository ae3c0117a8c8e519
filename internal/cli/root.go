// Package cli provides the command-line interface for medilex.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/medilex/internal/chat"
	"github.com/raphaelgruber/medilex/internal/config"
	"github.com/raphaelgruber/medilex/internal/llm"
	"github.com/raphaelgruber/medilex/internal/lookup"
	"github.com/raphaelgruber/medilex/internal/metrics"
	"github.com/raphaelgruber/medilex/internal/models"
	"github.com/raphaelgruber/medilex/internal/session"
	"github.com/raphaelgruber/medilex/internal/store"
	"github.com/raphaelgruber/medilex/internal/tui"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	// Global config, logger and store, initialized in PersistentPreRunE.
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	kv         *store.KV
)

// rootCmd represents the base command. Without a subcommand it runs the
// interactive single-page TUI.
var rootCmd = &cobra.Command{
	Use:   "medilex",
	Short: "AI medical term explainer",
	Long: `MediLex looks up a medical term, explains it with key points and source
citations generated by an AI provider, renders an illustrative image, and
lets you hold a follow-up conversation about the term.

Run without arguments for the interactive UI, or use the subcommands for
one-shot lookups and housekeeping.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, err := buildController(cmd.Context())
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), tui.Deps{
			Controller: controller,
			KV:         kv,
			Config:     cfg,
			Logger:     logger,
			Build:      buildController,
		})
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		// The TUI owns the terminal; keep slog off stderr there.
		quiet := !cmd.HasParent()
		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel, quiet)

		var err error
		kv, err = store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open local store: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if kv != nil {
			if err := kv.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// keyRequired reports whether the configured provider authenticates with
// the stored API key (as opposed to ambient credentials or none at all).
func keyRequired(p config.Provider) bool {
	switch p {
	case config.ProviderOllama, config.ProviderBedrock:
		return false
	default:
		return true
	}
}

// buildController wires the full session: provider client, orchestrators,
// history and usage metrics. With no credential stored it returns
// (nil, nil); the TUI shows its key-entry form and calls back in through
// Deps.Build once a key exists, one-shot commands treat nil as an error.
func buildController(ctx context.Context) (*session.Controller, error) {
	collector := metrics.NewPersistentCollector(kv)
	history := store.NewHistory(kv, logger)
	lang := models.ParseLanguage(cfg.Language)

	apiKey, err := kv.APIKey()
	if err != nil && keyRequired(cfg.Provider) {
		return nil, nil
	}

	completer, err := llm.NewCompleter(ctx, cfg, apiKey, logger)
	if err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}

	searcher := lookup.NewSearcher(completer, collector, logger)
	chatOrch := chat.NewOrchestrator(completer, collector, logger)
	return session.NewController(searcher, chatOrch, history, kv, lang, logger), nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(usageCmd)
}
