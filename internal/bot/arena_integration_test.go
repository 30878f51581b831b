//go:build integration

package bot

import (
	"context"
	"testing"

	"github.com/linhozo/UnimelbS2-Pacman/internal/repository/postgres"
	redisrepo "github.com/linhozo/UnimelbS2-Pacman/internal/repository/redis"
	"github.com/linhozo/UnimelbS2-Pacman/internal/testutil"
)

// TestTrainPersistsToStores runs a short training session against real
// Postgres (episodes) and Redis (weights), then resumes from the stored
// weights in a fresh policy.
// Run with: go test -tags integration -run TestTrainPersistsToStores -v -count=1
func TestTrainPersistsToStores(t *testing.T) {
	db := testutil.SetupDB(t)
	testutil.CleanupDB(t, db)
	rdb := testutil.SetupRedis(t)
	testutil.CleanupRedis(t, rdb)

	ctx := context.Background()
	episodes := postgres.NewEpisodeRepo(db)
	weights := redisrepo.NewClientFromPool(rdb)

	newRed := func() []Policy {
		red := []Policy{
			NewComposite(OffenseLed, 0, DefaultTraining(2), 1),
			NewComposite(DefenseLed, 2, DefaultTraining(2), 2),
		}
		for _, p := range red {
			p.(*Composite).AttachStore(weights)
		}
		return red
	}

	sum, err := Train(ctx, TrainConfig{
		Match:       MatchConfig{TimeLeft: 120, LayoutName: "default", Red: newRed(), Blue: randomTeam(1, 3)},
		Episodes:    2,
		NumTraining: 2,
		Label:       "integration",
		EpisodeRepo: episodes,
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if sum.Episodes != 2 {
		t.Fatalf("expected 2 episodes, got %d", sum.Episodes)
	}

	if n := testutil.CountEpisodes(t, db); n != 2 {
		t.Fatalf("expected 2 episode rows, got %d", n)
	}
	stored, err := episodes.ListEpisodes(ctx, 10)
	if err != nil {
		t.Fatalf("ListEpisodes: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored episodes, got %d", len(stored))
	}
	for _, ep := range stored {
		if !ep.Training {
			t.Errorf("episode %s should be marked as training", ep.ID)
		}
	}

	resumed := newRed()
	for _, p := range resumed {
		if err := p.(WeightLoader).LoadWeights(ctx); err != nil {
			t.Fatalf("LoadWeights: %v", err)
		}
	}
	c := resumed[0].(*Composite)
	if got := c.Offense().Episodes(); got != 2 {
		t.Errorf("resumed offense learner: expected 2 episodes, got %d", got)
	}
}
