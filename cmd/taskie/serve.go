package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/agent"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/auth"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/chat"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/config"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/credential"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/server"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/store"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/task"
)

func newServeCmd() *cobra.Command {
	var (
		flagAddr string
		flagDB   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the taskie backend API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if flagAddr != "" {
				cfg.Server.Addr = flagAddr
			}
			if flagDB != "" {
				cfg.DatabasePath = flagDB
			}
			if err := cfg.ValidateSecret(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&flagDB, "db", "", "sqlite database path (overrides config)")
	return cmd
}

func runServe(cfg *config.Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	tokens := auth.NewTokens(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLDays)*24*time.Hour)
	tasks := task.NewService(st)

	apiKey := resolveAPIKey(cfg)
	invoker := agent.NewInvoker(cfg.Agent.ToolEndpoint,
		time.Duration(cfg.Agent.TimeoutSec)*time.Second)
	runner := agent.New(agent.Options{
		APIKey:    apiKey,
		Model:     cfg.Agent.Model,
		MaxTokens: cfg.Agent.MaxTokens,
	}, invoker, logger)

	chatSvc := chat.NewService(st, runner,
		time.Duration(cfg.Agent.TimeoutSec)*time.Second,
		cfg.Chat.MaxHistoryMessages, logger)

	srv := server.New(cfg, st, tasks, chatSvc, tokens, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// resolveAPIKey checks config, environment, then the system keyring.
func resolveAPIKey(cfg *config.Config) string {
	if cfg.Agent.APIKey != "" {
		return cfg.Agent.APIKey
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key
	}
	if key, err := credential.Get(credential.KeyAnthropicAPI); err == nil {
		return key
	}
	return ""
}
