package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/linhozo/UnimelbS2-Pacman/internal/auth"
	"github.com/linhozo/UnimelbS2-Pacman/internal/config"
	"github.com/linhozo/UnimelbS2-Pacman/internal/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host games for remote agents",
	Long: `serve accepts websocket connections on /ws/play. Each connection plays
one game in the seat named by its agent token; every other seat is filled
by a local policy of kind --opponents.`,
	RunE: runServe,
}

func init() {
	d := config.Default()
	f := serveCmd.Flags()
	f.String("listen-addr", d.ListenAddr, "HTTP listen address")
	f.String("opponents", d.Opponents, "Policy kind for locally played seats")
	f.Duration("turn-timeout", 5*time.Second, "Time a remote agent has to answer a turn")
}

func runServe(cmd *cobra.Command, _ []string) error {
	layout, err := loadLayout(cfg.Layout)
	if err != nil {
		return err
	}
	turnTimeout, _ := cmd.Flags().GetDuration("turn-timeout")

	hub := handler.NewHub()
	engine := handler.NewEngineHandler(hub, handler.EngineConfig{
		Layout:      layout,
		LayoutName:  layoutName(cfg.Layout),
		TimeLeft:    cfg.TimeLeft,
		Opponents:   cfg.Opponents,
		Seed:        cfg.Seed,
		TurnTimeout: turnTimeout,
	})
	jwtMgr := auth.NewJWTManager(cfg.EngineSecret)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine.Routes(jwtMgr),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("opponents", cfg.Opponents).Msg("Engine listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Int("sessions", hub.ConnectionCount()).Msg("Shutting down engine")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Engine stopped")
	return nil
}
