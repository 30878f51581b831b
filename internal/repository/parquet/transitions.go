// Package parquet writes learner transitions to zstd-compressed parquet
// files for offline analysis.
package parquet

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
)

// SchemaVersion is stored in the file metadata.
const SchemaVersion = "transitions/v1"

const defaultFlushRows = 4096

// TransitionRow is the on-disk row layout.
type TransitionRow struct {
	EpisodeID     string    `parquet:"episode_id,dict"`
	Agent         int32     `parquet:"agent"`
	Role          string    `parquet:"role,dict"`
	Turn          int32     `parquet:"turn"`
	Action        string    `parquet:"action,dict"`
	Reward        float64   `parquet:"reward"`
	QValue        float64   `parquet:"q_value"`
	NextMaxQ      float64   `parquet:"next_max_q"`
	Delta         float64   `parquet:"delta"`
	FeatureNames  []string  `parquet:"feature_names,list"`
	FeatureValues []float64 `parquet:"feature_values,list"`
	RecordedAtNs  int64     `parquet:"recorded_at_ns"`
}

// Sink is a repository.TransitionSink backed by a single parquet file.
// Rows are written to a hidden temp file in the target directory and moved
// into place on Close, so readers never see a partial file.
type Sink struct {
	mu        sync.Mutex
	file      *os.File
	writer    *parquet.GenericWriter[TransitionRow]
	buf       []TransitionRow
	flushRows int
	rows      int
	tmpPath   string
	outPath   string
	closed    bool
}

// Create opens a sink that will produce path once closed.
func Create(path string) (*Sink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}
	w := parquet.NewGenericWriter[TransitionRow](f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", SchemaVersion)
	return &Sink{
		file:      f,
		writer:    w,
		flushRows: defaultFlushRows,
		tmpPath:   tmp,
		outPath:   path,
	}, nil
}

// Path returns the final output path.
func (s *Sink) Path() string { return s.outPath }

// Rows returns the number of rows recorded so far.
func (s *Sink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Record implements repository.TransitionSink.
func (s *Sink) Record(t model.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("record transition: sink closed")
	}
	s.buf = append(s.buf, rowFromTransition(t))
	s.rows++
	if len(s.buf) >= s.flushRows {
		return s.flushLocked()
	}
	return nil
}

func (s *Sink) flushLocked() error {
	if len(s.buf) == 0 {
		return nil
	}
	if _, err := s.writer.Write(s.buf); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	s.buf = s.buf[:0]
	return nil
}

// Close flushes buffered rows and publishes the file. An empty sink leaves
// no file behind.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.flushLocked()
	closeErr := s.writer.Close()
	_ = s.file.Sync()
	fileErr := s.file.Close()
	switch {
	case flushErr != nil:
		os.Remove(s.tmpPath)
		return flushErr
	case closeErr != nil:
		os.Remove(s.tmpPath)
		return fmt.Errorf("close parquet writer: %w", closeErr)
	case fileErr != nil:
		os.Remove(s.tmpPath)
		return fmt.Errorf("close parquet file: %w", fileErr)
	}

	if s.rows == 0 {
		return os.Remove(s.tmpPath)
	}
	if err := os.Rename(s.tmpPath, s.outPath); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadFile loads every transition stored at path.
func ReadFile(path string) ([]model.Transition, error) {
	rows, err := parquet.ReadFile[TransitionRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	out := make([]model.Transition, len(rows))
	for i, r := range rows {
		out[i] = r.transition()
	}
	return out, nil
}

func rowFromTransition(t model.Transition) TransitionRow {
	names := make([]string, 0, len(t.Features))
	for k := range t.Features {
		names = append(names, k)
	}
	sort.Strings(names)
	values := make([]float64, len(names))
	for i, k := range names {
		values[i] = t.Features[k]
	}
	return TransitionRow{
		EpisodeID:     t.EpisodeID,
		Agent:         int32(t.Agent),
		Role:          t.Role,
		Turn:          int32(t.Turn),
		Action:        t.Action,
		Reward:        t.Reward,
		QValue:        t.QValue,
		NextMaxQ:      t.NextMaxQ,
		Delta:         t.Delta,
		FeatureNames:  names,
		FeatureValues: values,
		RecordedAtNs:  time.Now().UnixNano(),
	}
}

func (r TransitionRow) transition() model.Transition {
	features := make(map[string]float64, len(r.FeatureNames))
	for i, k := range r.FeatureNames {
		if i < len(r.FeatureValues) {
			features[k] = r.FeatureValues[i]
		}
	}
	return model.Transition{
		EpisodeID: r.EpisodeID,
		Agent:     int(r.Agent),
		Role:      r.Role,
		Turn:      int(r.Turn),
		Action:    r.Action,
		Reward:    r.Reward,
		QValue:    r.QValue,
		NextMaxQ:  r.NextMaxQ,
		Delta:     r.Delta,
		Features:  features,
	}
}
