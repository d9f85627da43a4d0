package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ravanos/chatd/internal/config"
	"github.com/ravanos/chatd/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show chatd configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("chatd %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("Config:  not found (using defaults)")
				} else {
					fmt.Printf("Config:  error loading: %v\n", err)
				}
				return nil
			}

			fmt.Printf("Gateway: port=%d bind=%s\n", cfg.Gateway.Port, cfg.Gateway.Bind)
			fmt.Printf("Model:   %s", cfg.Model.Model)
			if cfg.Model.BaseURL != "" {
				fmt.Printf(" (endpoint %s)", cfg.Model.BaseURL)
			}
			fmt.Println()
			if cfg.Model.APIKey == "" {
				fmt.Println("         warning: no API key configured")
			}
			fmt.Printf("Tools:   %s (timeout %ds)\n", cfg.Tools.Endpoint, cfg.Tools.TimeoutSeconds)
			fmt.Printf("Session: store=%s historyLimit=%d\n", cfg.Session.Store, cfg.Session.HistoryLimit)
			if cfg.Session.Store == "sqlite" {
				fmt.Printf("         db=%s\n", paths.DatabasePath(cfg.Session))
			}
			return nil
		},
	}
}
