package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/linhozo/UnimelbS2-Pacman/internal/auth"
	"github.com/linhozo/UnimelbS2-Pacman/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print an agent token for the engine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		expiry, _ := cmd.Flags().GetDuration("expiry")
		token, err := auth.NewJWTManager(cfg.EngineSecret).
			WithExpiry(expiry).
			GenerateAgentToken(cfg.AgentName, cfg.Seat)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	d := config.Default()
	f := tokenCmd.Flags()
	f.String("agent-name", d.AgentName, "Agent name")
	f.Int("seat", d.Seat, "Agent index the token grants")
	f.Duration("expiry", 24*time.Hour, "Token lifetime")
}
