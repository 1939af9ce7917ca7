package server

import (
	"context"
	"fmt"

	"github.com/mwantia/gotagger/internal/agent"
	"github.com/spf13/cobra"

	config "github.com/mwantia/gotagger/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the GoTagger web agent",
		Long: `Start the GoTagger web agent.

The agent serves the tagging UI and its API on server.address and opens
dataset.path right away when it is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			agent := agent.NewAgent(cfg)
			return agent.Serve(context.Background())
		},
	}

	return cmd
}
