package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linhozo/UnimelbS2-Pacman/internal/auth"
	"github.com/linhozo/UnimelbS2-Pacman/internal/config"
	"github.com/linhozo/UnimelbS2-Pacman/internal/repository/parquet"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestLayoutName(t *testing.T) {
	assert.Equal(t, "default", layoutName(""))
	assert.Equal(t, "tinyCapture", layoutName("layouts/tinyCapture.lay"))
}

func TestAgentSeed(t *testing.T) {
	assert.Zero(t, agentSeed(0, 3))
	assert.NotEqual(t, agentSeed(5, 0), agentSeed(5, 2))
}

func TestTrainingParams(t *testing.T) {
	c := config.Default()
	c.NumTraining = 0
	p := trainingParams(c)
	assert.Zero(t, p.Epsilon)
	assert.Zero(t, p.Alpha)
	assert.Equal(t, 0.9, p.Discount)

	c.NumTraining, c.Epsilon, c.Alpha, c.Discount = 5, 0.3, 0.2, 0.8
	p = trainingParams(c)
	assert.Equal(t, 5, p.NumTraining)
	assert.Equal(t, 0.3, p.Epsilon)
	assert.Equal(t, 0.2, p.Alpha)
	assert.Equal(t, 0.8, p.Discount)
}

func TestLoadLayout(t *testing.T) {
	l, err := loadLayout("")
	require.NoError(t, err)
	assert.Equal(t, 4, l.NumAgents())

	path := filepath.Join(t.TempDir(), "tiny.lay")
	require.NoError(t, os.WriteFile(path, []byte("%%%%%%\n%1..2%\n%%%%%%\n"), 0o644))
	l, err = loadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, 2, l.NumAgents())

	_, err = loadLayout(filepath.Join(t.TempDir(), "missing.lay"))
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	transitions := filepath.Join(dir, "transitions.parquet")

	out := execute(t, "train",
		"--episodes", "2",
		"--num-training", "1",
		"--time-left", "80",
		"--seed", "5",
		"--weight-store", "memory",
		"--transitions-path", transitions,
		"--log-level", "error",
	)
	assert.Contains(t, out, "episodes=2")

	rows, err := parquet.ReadFile(transitions)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	out = execute(t, "token", "--agent-name", "cli-agent", "--seat", "3")
	claims, err := auth.NewJWTManager(config.Default().EngineSecret).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "cli-agent", claims.Agent)
	assert.Equal(t, 3, claims.Seat)
}
