package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/linhozo/UnimelbS2-Pacman/internal/config"
	"github.com/linhozo/UnimelbS2-Pacman/internal/logger"
)

var (
	v          = viper.New()
	cfg        *config.Config
	configFile string
	closeLog   = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "capture",
	Short: "Learning agents for the capture-the-flag pacman game",
	Long: `capture trains and runs linear Q-learning agents for the two-team
capture game. Agents can play headless matches locally, connect to a
remote engine over websocket, or be hosted by this binary for a remote
opponent.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: func(*cobra.Command, []string) error { return closeLog() },
}

func init() {
	d := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	pf.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	pf.String("log-file", d.LogFile, "Also write logs to this file")
	pf.Bool("dev", d.Dev, "Colored console output")
	pf.String("layout", d.Layout, "Layout file (empty = built-in map)")
	pf.Int("time-left", d.TimeLeft, "Game length in agent moves")
	pf.Int64("seed", d.Seed, "Random seed (0 = nondeterministic)")
	pf.String("weight-store", d.WeightStore, "Weight store (none, memory, redis, postgres)")
	pf.String("redis-url", d.RedisURL, "Redis URL for the redis weight store")
	pf.String("database-url", d.DatabaseURL, "Postgres URL for the postgres store")
	pf.String("engine-secret", d.EngineSecret, "Shared secret for agent tokens")

	rootCmd.AddCommand(trainCmd, playCmd, serveCmd, tokenCmd, weightsCmd, episodesCmd)
}

// setup binds the running command's flags to config keys (dashes become
// underscores), loads the config and initializes logging.
func setup(cmd *cobra.Command, _ []string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" {
			return
		}
		if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return bindErr
	}

	c, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	closeLog = logger.Init(logger.Options{Level: c.LogLevel, File: c.LogFile, Dev: c.Dev})
	cfg = c
	log.Debug().Str("store", c.WeightStore).Str("layout", layoutName(c.Layout)).Msg("Config loaded")
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Shutdown signal received, stopping")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
