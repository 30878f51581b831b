//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
	"github.com/linhozo/UnimelbS2-Pacman/internal/testutil"
)

var testDB *sql.DB

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

// --- WeightRepo Tests ---

func TestWeightsSaveAndLoad(t *testing.T) {
	setup(t)
	repo := NewWeightRepo(testDB)
	ctx := context.Background()

	in := &model.WeightTable{
		Agent:     "agent-0",
		Role:      "defense",
		Weights:   map[string]float64{"defense-mode": 100, "reverse": -3},
		Episodes:  4,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := repo.SaveWeights(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.LoadWeights(ctx, "agent-0", "defense")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored table")
	}
	if got.Episodes != 4 {
		t.Errorf("expected 4 episodes, got %d", got.Episodes)
	}
	if got.Weights["defense-mode"] != 100 || got.Weights["reverse"] != -3 {
		t.Errorf("unexpected weights: %v", got.Weights)
	}
	if !got.UpdatedAt.Equal(in.UpdatedAt) {
		t.Errorf("expected updated_at %v, got %v", in.UpdatedAt, got.UpdatedAt)
	}
}

func TestWeightsUpsert(t *testing.T) {
	setup(t)
	repo := NewWeightRepo(testDB)
	ctx := context.Background()

	repo.SaveWeights(ctx, &model.WeightTable{Agent: "a", Role: "offense", Weights: map[string]float64{"x": 1}, Episodes: 1})
	if err := repo.SaveWeights(ctx, &model.WeightTable{Agent: "a", Role: "offense", Weights: map[string]float64{"x": 2}, Episodes: 2}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, _ := repo.LoadWeights(ctx, "a", "offense")
	if got.Weights["x"] != 2 || got.Episodes != 2 {
		t.Errorf("expected replaced table, got %+v", got)
	}
}

func TestWeightsMissingAndDelete(t *testing.T) {
	setup(t)
	repo := NewWeightRepo(testDB)
	ctx := context.Background()

	got, err := repo.LoadWeights(ctx, "nobody", "offense")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for missing table, got %+v, %v", got, err)
	}

	repo.SaveWeights(ctx, &model.WeightTable{Agent: "a", Role: "offense", Weights: map[string]float64{}})
	if err := repo.DeleteWeights(ctx, "a", "offense"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := repo.LoadWeights(ctx, "a", "offense"); got != nil {
		t.Errorf("expected table to be gone, got %+v", got)
	}
}

// --- EpisodeRepo Tests ---

func TestEpisodeSaveAndList(t *testing.T) {
	setup(t)
	repo := NewEpisodeRepo(testDB)
	ctx := context.Background()
	start := time.Now().UTC().Truncate(time.Second)

	for i, winner := range []string{"red", "", "blue"} {
		ep := &model.Episode{
			ID:         uuid.NewString(),
			Label:      "nightly",
			Layout:     "default",
			RedPolicy:  "offense-led-0,offense-led-2",
			BluePolicy: "random,random",
			Score:      1 - i,
			Winner:     winner,
			Turns:      1200,
			Training:   i == 0,
			FinalState: json.RawMessage(`{"score":1}`),
			StartedAt:  start.Add(time.Duration(i) * time.Minute),
			FinishedAt: start.Add(time.Duration(i)*time.Minute + 30*time.Second),
		}
		if err := repo.SaveEpisode(ctx, ep); err != nil {
			t.Fatalf("save episode %d: %v", i, err)
		}
	}

	eps, err := repo.ListEpisodes(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(eps))
	}
	if eps[0].Winner != "blue" || eps[1].Winner != "" {
		t.Errorf("expected newest first (blue, tie), got %q, %q", eps[0].Winner, eps[1].Winner)
	}
	if eps[1].Score != 0 {
		t.Errorf("expected tie score 0, got %d", eps[1].Score)
	}
}
