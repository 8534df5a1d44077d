package ingest

import (
	"context"
	"time"

	"exchangePricing/internal/storage"
)

// StateStore remembers the last block whose changes reached the sink.
// Processing resumes at the block after it.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, block uint64) error
}

// FileStateStore keeps progress in a JSON file next to the event stream.
// An empty Path disables it.
type FileStateStore struct {
	Path string
}

type progress struct {
	Block   uint64    `json:"last_processed_block"`
	SavedAt time.Time `json:"saved_at"`
}

func (s *FileStateStore) Load(_ context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	var p progress
	ok, err := storage.ReadJSONFile(s.Path, &p)
	if err != nil || !ok {
		return 0, false, err
	}
	return p.Block, true, nil
}

func (s *FileStateStore) Save(_ context.Context, block uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	return storage.WriteJSONFile(s.Path, progress{Block: block, SavedAt: time.Now().UTC()})
}

// StateBackend reads and writes named progress rows, as the Postgres store does.
type StateBackend interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, block uint64) error
}

// DBStateStore keeps progress in the backend under Name, so several
// processors can share one database.
type DBStateStore struct {
	Backend StateBackend
	Name    string
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Backend == nil {
		return 0, false, nil
	}
	return s.Backend.LoadState(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, block uint64) error {
	if s == nil || s.Backend == nil {
		return nil
	}
	return s.Backend.SaveState(ctx, s.Name, block)
}
