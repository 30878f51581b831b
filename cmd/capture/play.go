package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/linhozo/UnimelbS2-Pacman/internal/auth"
	"github.com/linhozo/UnimelbS2-Pacman/internal/bot"
	"github.com/linhozo/UnimelbS2-Pacman/internal/config"
	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one game against a remote engine",
	Long: `play connects to an engine over websocket and plays the seat named in
the agent token. Without --token a token is minted from --engine-secret.`,
	RunE: runPlay,
}

func init() {
	d := config.Default()
	f := playCmd.Flags()
	f.String("engine-url", d.EngineURL, "Engine websocket URL")
	f.String("agent-name", d.AgentName, "Agent name presented to the engine")
	f.Int("seat", d.Seat, "Agent index to play")
	f.String("policy", "", "Policy kind (default: --red-policy or --blue-policy by seat)")
	f.String("red-policy", d.RedPolicy, "Policy kind when seated on red")
	f.String("blue-policy", d.BluePolicy, "Policy kind when seated on blue")
	f.Int("num-training", d.NumTraining, "Treat the first N games as training (weights persist across runs)")
	f.String("transitions-path", d.TransitionsPath, "Write every weight update to this parquet file")
	f.String("token", "", "Agent token (default: minted from --engine-secret)")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		var err error
		token, err = auth.NewJWTManager(cfg.EngineSecret).GenerateAgentToken(cfg.AgentName, cfg.Seat)
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}
	}

	kind, _ := cmd.Flags().GetString("policy")
	if kind == "" {
		kind = cfg.RedPolicy
		if capture.TeamOf(cfg.Seat) == capture.Blue {
			kind = cfg.BluePolicy
		}
	}
	policy := bot.PolicyForKind(kind, cfg.Seat, trainingParams(cfg), agentSeed(cfg.Seed, cfg.Seat))

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	if err := st.wire(ctx, policy); err != nil {
		return errors.Join(err, st.Close())
	}

	client := bot.NewPlayClient(cfg.AgentName, cfg.EngineURL, token)
	if err := client.Connect(ctx); err != nil {
		return errors.Join(err, st.Close())
	}
	defer client.Close()

	final, playErr := client.Play(ctx, policy)
	if err := st.Close(); err != nil {
		playErr = errors.Join(playErr, err)
	}
	if playErr != nil {
		return playErr
	}
	log.Info().
		Str("agent", cfg.AgentName).
		Int("seat", cfg.Seat).
		Str("policy", policy.Name()).
		Int("score", final.TeamScore(cfg.Seat)).
		Msg("Game finished")
	fmt.Fprintf(cmd.OutOrStdout(), "score=%d\n", final.TeamScore(cfg.Seat))
	return nil
}
