package storage

import (
	"context"

	"exchangePricing/internal/storage/memory"
)

// Sink persists snapshot changes.
type Sink interface {
	Persist(ctx context.Context, changes memory.Changes) error
}
