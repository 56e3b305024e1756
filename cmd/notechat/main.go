// Package main provides the notechat CLI: the interactive chat panel for
// navigating the annotation workspace app, plus one-shot helpers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dandytbermillo/annotation-backup-sub000/internal/chat"
	"github.com/dandytbermillo/annotation-backup-sub000/internal/config"
	"github.com/dandytbermillo/annotation-backup-sub000/internal/logging"
	"github.com/dandytbermillo/annotation-backup-sub000/internal/resolver"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "notechat",
	Short: "Chat-driven navigation for the annotation workspace app",
	Long: `notechat is the chat panel of the annotation workspace app as a CLI.

Type natural-language navigation commands ("open workspace Research",
"the second one", "no, not that") and the engine resolves them locally
when it can, asking the intent resolver only when it must.

Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.JSON)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

// resolveCmd runs a single utterance through the engine and prints the
// outcome as JSON, for scripting and debugging.
var resolveCmd = &cobra.Command{
	Use:   "resolve [utterance]",
	Short: "Resolve one utterance and print the structured result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Resolver.Timeout+10*time.Second)
		defer cancel()

		session, router, err := buildEngine(ctx, cfg, logger)
		if err != nil {
			return err
		}

		result, err := router.HandleTurn(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := map[string]any{
			"sessionId": session.ID,
			"reply":     result.Reply.Content,
			"isError":   result.Reply.IsError,
		}
		if result.Action != nil {
			out["action"] = result.Action
		}
		if len(result.Reply.Options) > 0 {
			out["options"] = result.Reply.Options
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// buildEngine wires a fresh session and router against the configured
// resolver backend.
func buildEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*chat.Session, *chat.Router, error) {
	windows := chat.DecayWindows{
		Options: cfg.Decay.OptionsWindow,
		Preview: cfg.Decay.PreviewWindow,
		Panel:   cfg.Decay.PanelWindow,
	}
	session, err := chat.NewSession(windows)
	if err != nil {
		return nil, nil, err
	}

	var router *chat.Router
	switch cfg.Resolver.Provider {
	case "http":
		client := resolver.NewHTTPClient(resolver.HTTPConfig{
			BaseURL: cfg.Resolver.BaseURL,
			APIKey:  cfg.ResolverAPIKey(),
			Timeout: cfg.Resolver.Timeout,
		})
		router = chat.NewRouter(session, client, logger)
		router.SetRetrieval(client)
		router.SetClassifier(client)
	case "gemini":
		client, err := resolver.NewGeminiClient(ctx, resolver.GeminiConfig{
			APIKey: cfg.ResolverAPIKey(),
			Model:  cfg.Resolver.Model,
		})
		if err != nil {
			return nil, nil, err
		}
		router = chat.NewRouter(session, client, logger)
		router.SetRetrieval(client)
		router.SetClassifier(client)
	default:
		return nil, nil, fmt.Errorf("unknown resolver provider %q", cfg.Resolver.Provider)
	}

	return session, router, nil
}

func runInteractiveChat() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	model, cleanup, err := initChat(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	p := tea.NewProgram(model, tea.WithAltScreen())

	// Config edits apply live; the event is forwarded into the tea loop
	// so the session is only ever touched from one goroutine.
	watcher, err := config.Watch(configPath, logger, func(newCfg config.Config) {
		p.Send(configReloadedMsg{cfg: newCfg})
	})
	if err != nil {
		logger.Warn("config watch unavailable", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	_, err = p.Run()
	return err
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".notechat/config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(sessionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
