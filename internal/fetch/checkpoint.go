package fetch

import (
	"fmt"
	"time"

	"exchangePricing/internal/storage"
)

// Checkpoint tracks the last fetched block and the pairs being followed.
type Checkpoint struct {
	LastProcessedBlock uint64   `json:"last_processed_block"`
	Pairs              []string `json:"pairs"`
	UpdatedAt          string   `json:"updated_at"`
}

// CheckpointStore persists checkpoints to disk. A disabled store never
// loads or saves.
type CheckpointStore struct {
	path    string
	enabled bool
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != ""}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if c == nil || !c.enabled {
		return Checkpoint{}, false, nil
	}
	var cp Checkpoint
	ok, err := storage.ReadJSONFile(c.path, &cp)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint: %w", err)
	}
	return cp, ok, nil
}

func (c *CheckpointStore) Save(lastProcessed uint64, pairs []string) error {
	if c == nil || !c.enabled {
		return nil
	}
	err := storage.WriteJSONFile(c.path, Checkpoint{
		LastProcessedBlock: lastProcessed,
		Pairs:              pairs,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
