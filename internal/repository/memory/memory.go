// Package memory implements the repository interfaces in process memory,
// for tests and runs that do not need persistence.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
)

// Store is an in-memory WeightStore, EpisodeRepository and TransitionSink.
type Store struct {
	mu          sync.RWMutex
	weights     map[string]*model.WeightTable // agent/role -> table
	episodes    []model.Episode
	transitions []model.Transition
}

// New creates an empty Store.
func New() *Store {
	return &Store{weights: make(map[string]*model.WeightTable)}
}

func key(agent, role string) string { return agent + "/" + role }

// LoadWeights implements repository.WeightStore.
func (s *Store) LoadWeights(_ context.Context, agent, role string) (*model.WeightTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.weights[key(agent, role)]
	if !ok {
		return nil, nil
	}
	return cloneTable(t), nil
}

// SaveWeights implements repository.WeightStore.
func (s *Store) SaveWeights(_ context.Context, t *model.WeightTable) error {
	cp := cloneTable(t)
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights[key(t.Agent, t.Role)] = cp
	return nil
}

// DeleteWeights implements repository.WeightStore.
func (s *Store) DeleteWeights(_ context.Context, agent, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.weights, key(agent, role))
	return nil
}

// SaveEpisode implements repository.EpisodeRepository.
func (s *Store) SaveEpisode(_ context.Context, ep *model.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes = append(s.episodes, *ep)
	return nil
}

// ListEpisodes implements repository.EpisodeRepository: newest first.
func (s *Store) ListEpisodes(_ context.Context, limit int) ([]model.Episode, error) {
	s.mu.RLock()
	out := make([]model.Episode, len(s.episodes))
	copy(out, s.episodes)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Record implements repository.TransitionSink.
func (s *Store) Record(t model.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, t)
	return nil
}

// Close implements repository.TransitionSink.
func (s *Store) Close() error { return nil }

// Transitions returns a copy of the recorded transitions.
func (s *Store) Transitions() []model.Transition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

func cloneTable(t *model.WeightTable) *model.WeightTable {
	cp := *t
	cp.Weights = make(map[string]float64, len(t.Weights))
	for k, v := range t.Weights {
		cp.Weights[k] = v
	}
	return &cp
}
