package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/linhozo/UnimelbS2-Pacman/internal/bot"
	"github.com/linhozo/UnimelbS2-Pacman/internal/config"
	"github.com/linhozo/UnimelbS2-Pacman/internal/repository"
	"github.com/linhozo/UnimelbS2-Pacman/internal/repository/memory"
	"github.com/linhozo/UnimelbS2-Pacman/internal/repository/parquet"
	"github.com/linhozo/UnimelbS2-Pacman/internal/repository/postgres"
	redisrepo "github.com/linhozo/UnimelbS2-Pacman/internal/repository/redis"
	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// stores holds the persistence backends selected by the config.
type stores struct {
	weights  repository.WeightStore        // nil when weight_store is none
	episodes repository.EpisodeRepository // nil unless memory or postgres
	sink     repository.TransitionSink     // nil unless transitions_path is set
	closers  []func() error
}

func openStores(ctx context.Context, c *config.Config) (*stores, error) {
	s := &stores{}
	switch c.WeightStore {
	case config.StoreMemory:
		m := memory.New()
		s.weights, s.episodes = m, m
	case config.StoreRedis:
		rc, err := redisrepo.NewClient(ctx, c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		s.weights = rc
		s.closers = append(s.closers, rc.Close)
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		s.weights = postgres.NewWeightRepo(db)
		s.episodes = postgres.NewEpisodeRepo(db)
		s.closers = append(s.closers, db.Close)
	}
	if c.TransitionsPath != "" {
		sink, err := parquet.Create(c.TransitionsPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.sink = sink
		s.closers = append(s.closers, func() error {
			err := sink.Close()
			if err == nil {
				log.Info().Str("path", sink.Path()).Int("rows", sink.Rows()).Msg("Transitions written")
			}
			return err
		})
	}
	return s, nil
}

// Close releases every backend, sink first so buffered rows are flushed.
func (s *stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

type storeAttacher interface {
	AttachStore(repository.WeightStore)
}

type sinkAttacher interface {
	AttachSink(repository.TransitionSink)
}

// wire attaches the stores to p and loads any persisted weights.
func (s *stores) wire(ctx context.Context, p bot.Policy) error {
	if a, ok := p.(storeAttacher); ok && s.weights != nil {
		a.AttachStore(s.weights)
	}
	if a, ok := p.(sinkAttacher); ok && s.sink != nil {
		a.AttachSink(s.sink)
	}
	if l, ok := p.(bot.WeightLoader); ok && s.weights != nil {
		return l.LoadWeights(ctx)
	}
	return nil
}

// loadLayout reads the layout file, or the built-in map when path is empty.
func loadLayout(path string) (*capture.Layout, error) {
	if path == "" {
		return capture.ParseLayout(capture.DefaultLayout)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return capture.ParseLayout(string(text))
}

func layoutName(path string) string {
	if path == "" {
		return "default"
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// agentSeed derives a per-agent seed so teammates do not share a random stream.
func agentSeed(seed int64, index int) int64 {
	if seed == 0 {
		return 0
	}
	return seed + int64(index)*7919
}

// teams builds the red and blue rosters for layout l.
func teams(l *capture.Layout, c *config.Config, params bot.TrainingParams) (red, blue []bot.Policy) {
	for i := 0; i < l.NumAgents(); i++ {
		if capture.TeamOf(i) == capture.Red {
			red = append(red, bot.PolicyForKind(c.RedPolicy, i, params, agentSeed(c.Seed, i)))
		} else {
			blue = append(blue, bot.PolicyForKind(c.BluePolicy, i, params, agentSeed(c.Seed, i)))
		}
	}
	return red, blue
}

// trainingParams applies the configured constants on top of the defaults.
func trainingParams(c *config.Config) bot.TrainingParams {
	p := bot.DefaultTraining(c.NumTraining)
	if c.NumTraining > 0 {
		p.Epsilon, p.Alpha = c.Epsilon, c.Alpha
	}
	p.Discount = c.Discount
	return p
}
