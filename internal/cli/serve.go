package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravanos/chatd/internal/agent"
	"github.com/ravanos/chatd/internal/config"
	"github.com/ravanos/chatd/internal/gateway"
	"github.com/ravanos/chatd/internal/llm"
	"github.com/ravanos/chatd/internal/logging"
	"github.com/ravanos/chatd/internal/store"
	"github.com/ravanos/chatd/internal/tools"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat backend server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			log = logging.New(nil, cfg.Logging.Level, cfg.Logging.ConsoleStyle)

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			// Session store (SQLite or in-memory)
			var sessions store.SessionStore
			if cfg.Session.Store == "sqlite" {
				dbPath := paths.DatabasePath(cfg.Session)
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close()
				sessions = store.NewSQLiteSessionStore(db)
				log.Info().Str("path", dbPath).Msg("using SQLite session store")
			} else {
				sessions = store.NewMemorySessionStore()
				log.Info().Msg("using in-memory session store")
			}

			model := llm.NewOpenAIClient(llm.OpenAIConfig{
				BaseURL:     cfg.Model.BaseURL,
				APIKey:      cfg.Model.APIKey,
				Model:       cfg.Model.Model,
				TitleModel:  cfg.Model.TitleModel,
				Temperature: cfg.Model.Temperature,
			}, log)

			toolClient := tools.NewClient(
				cfg.Tools.Endpoint,
				time.Duration(cfg.Tools.TimeoutSeconds)*time.Second,
				log,
			)
			log.Info().Str("endpoint", cfg.Tools.Endpoint).Msg("tool gateway configured")

			runner := agent.NewRunner(model, sessions, toolClient, tools.Catalog(), cfg.Session.HistoryLimit, log)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg.Gateway, runner, sessions, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override listen port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (lan, loopback, custom)")

	return cmd
}
