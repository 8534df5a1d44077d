package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"exchangePricing/internal/model"
	"exchangePricing/internal/storage"
	"exchangePricing/internal/storage/memory"
)

const defaultBatchSize = 1000

// ProcessorConfig controls processing behavior.
type ProcessorConfig struct {
	// BatchSize is the number of pending changes that triggers a flush at the
	// next block boundary.
	BatchSize int
	// FromBlock, when set, overrides stored progress: events below it are skipped.
	FromBlock  uint64
	StateStore StateStore
}

// Processor streams typed events through a Handler and persists the results.
type Processor struct {
	cfg     ProcessorConfig
	handler *Handler
	store   *memory.Store
	sink    storage.Sink
	logger  *zap.Logger
}

func NewProcessor(cfg ProcessorConfig, handler *Handler, store *memory.Store, sink storage.Sink, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Processor{
		cfg:     cfg,
		handler: handler,
		store:   store,
		sink:    sink,
		logger:  logger,
	}
}

// Run processes a typed events JSONL file.
func (p *Processor) Run(ctx context.Context, inputPath string) error {
	if p.handler == nil || p.store == nil {
		return fmt.Errorf("processor is not wired")
	}
	if p.sink == nil {
		return fmt.Errorf("sink is nil")
	}

	startBlock, resume, err := p.loadStartBlock(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var (
		currentBlock uint64
		processed    bool
		total        int
		applied      int
		skipped      int
		replayed     int
		failed       int
		flushes      int
		cursor       eventCursor
	)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			p.logger.Warn("decode typed event", zap.Error(err))
			continue
		}

		if resume && record.BlockNumber <= startBlock {
			skipped++
			continue
		}

		if !cursor.advance(record.BlockNumber, record.LogIndex) {
			replayed++
			p.logger.Debug("skip replayed event",
				zap.Uint64("block", record.BlockNumber),
				zap.Uint64("log_index", record.LogIndex),
				zap.String("tx_hash", record.TxHash),
			)
			continue
		}

		if processed && record.BlockNumber != currentBlock && p.store.Pending() >= p.cfg.BatchSize {
			if err := p.flush(ctx, currentBlock); err != nil {
				return err
			}
			flushes++
		}
		currentBlock = record.BlockNumber
		processed = true

		if err := p.handler.Apply(ctx, record); err != nil {
			if errors.Is(err, ErrUnknownPair) || errors.Is(err, ErrTokenMeta) {
				skipped++
			} else {
				failed++
			}
			p.logger.Warn("apply event",
				zap.Error(err),
				zap.String("address", record.Address),
				zap.String("event", record.EventName),
				zap.Uint64("block", record.BlockNumber),
				zap.String("tx_hash", record.TxHash),
			)
			continue
		}
		applied++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	if processed {
		if err := p.flush(ctx, currentBlock); err != nil {
			return err
		}
		flushes++
	}

	p.logger.Info("process complete",
		zap.Int("total", total),
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Int("replayed", replayed),
		zap.Int("failed", failed),
		zap.Int("flushes", flushes),
		zap.Uint64("last_block", currentBlock),
	)
	return nil
}

// eventCursor tracks the chain position of the last accepted event. Logs
// arrive ordered by block and log index, so anything at or before the cursor
// is a copy re-appended by an interrupted fetch.
type eventCursor struct {
	block    uint64
	logIndex uint64
	set      bool
}

func (c *eventCursor) advance(block, logIndex uint64) bool {
	if c.set && (block < c.block || (block == c.block && logIndex <= c.logIndex)) {
		return false
	}
	c.block, c.logIndex, c.set = block, logIndex, true
	return true
}

func (p *Processor) loadStartBlock(ctx context.Context) (uint64, bool, error) {
	if p.cfg.FromBlock > 0 {
		return p.cfg.FromBlock - 1, true, nil
	}
	if p.cfg.StateStore == nil {
		return 0, false, nil
	}
	last, ok, err := p.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("load state: %w", err)
	}
	return last, ok, nil
}

// flush persists pending changes and records block as fully processed.
func (p *Processor) flush(ctx context.Context, block uint64) error {
	changes := p.store.Drain()
	if !changes.Empty() {
		if err := p.sink.Persist(ctx, changes); err != nil {
			return fmt.Errorf("persist block %d: %w", block, err)
		}
	}
	if p.cfg.StateStore != nil {
		if err := p.cfg.StateStore.Save(ctx, block); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	p.logger.Debug("flushed",
		zap.Uint64("block", block),
		zap.Int("tokens", len(changes.Tokens)),
		zap.Int("pairs", len(changes.Pairs)),
		zap.Int("swaps", len(changes.Swaps)),
		zap.Int("liquidity_events", len(changes.LiquidityEvents)),
	)
	return nil
}
