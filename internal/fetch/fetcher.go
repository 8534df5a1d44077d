// Package fetch pulls factory and pair logs from the chain into raw log JSONL.
package fetch

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"exchangePricing/internal/chain"
	"exchangePricing/internal/dex"
	"exchangePricing/internal/model"
)

const maxAddressesPerQuery = 500

// LogSource is the chain surface the fetcher needs.
type LogSource interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// LogWriter receives fetched log records in block order.
type LogWriter interface {
	Write(value interface{}) error
}

// Config holds runtime settings for the fetcher.
type Config struct {
	FromBlock         uint64
	ToBlock           uint64
	Factory           common.Address
	Pairs             []common.Address
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	Retry             chain.RetryPolicy
}

// Fetcher follows the factory's PairCreated events and every known pair's
// Sync, Swap, Mint and Burn events.
type Fetcher struct {
	cfg        Config
	source     LogSource
	writer     LogWriter
	logger     *zap.Logger
	decoder    *dex.PairDecoder
	checkpoint *CheckpointStore
	pairs      map[common.Address]struct{}

	factoryTopics []common.Hash
	pairTopics    []common.Hash
}

// NewFetcher builds a Fetcher with its dependencies.
func NewFetcher(cfg Config, source LogSource, writer LogWriter, logger *zap.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder, err := dex.NewPairDecoder(dex.DecoderConfig{})
	if err != nil {
		return nil, err
	}
	pairABI, err := dex.PairABI()
	if err != nil {
		return nil, err
	}
	factoryABI, err := dex.FactoryABI()
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		cfg:        cfg,
		source:     source,
		writer:     writer,
		logger:     logger,
		decoder:    decoder,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		pairs:      make(map[common.Address]struct{}, len(cfg.Pairs)),
		factoryTopics: []common.Hash{
			factoryABI.Events[model.EventPairCreated].ID,
		},
		pairTopics: []common.Hash{
			pairABI.Events[model.EventSync].ID,
			pairABI.Events[model.EventSwap].ID,
			pairABI.Events[model.EventMint].ID,
			pairABI.Events[model.EventBurn].ID,
		},
	}
	for _, pair := range cfg.Pairs {
		f.pairs[pair] = struct{}{}
	}
	return f, nil
}

// Run executes the fetch loop.
func (f *Fetcher) Run(ctx context.Context) error {
	if f.source == nil {
		return fmt.Errorf("log source is nil")
	}
	if f.writer == nil {
		return fmt.Errorf("writer is nil")
	}
	if f.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if f.cfg.Factory == (common.Address{}) {
		return fmt.Errorf("factory address is required")
	}

	chainID, err := f.source.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	from := f.cfg.FromBlock
	to := f.cfg.ToBlock
	if to == 0 {
		latest, err := f.source.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	cp, ok, err := f.checkpoint.Load()
	if err != nil {
		return err
	}
	if ok {
		for _, pair := range cp.Pairs {
			if common.IsHexAddress(pair) {
				f.pairs[common.HexToAddress(pair)] = struct{}{}
			}
		}
		if cp.LastProcessedBlock >= from {
			from = cp.LastProcessedBlock + 1
			f.logger.Info("resume from checkpoint",
				zap.Uint64("last_processed", cp.LastProcessedBlock),
				zap.Uint64("from", from),
				zap.Int("pairs", len(f.pairs)),
			)
		}
	}

	if from > to {
		f.logger.Info("nothing to fetch", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := splitRange(from, to, f.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		written, created, err := f.fetchRange(ctx, chainID.Uint64(), r)
		if err != nil {
			return err
		}
		if err := f.checkpoint.Save(r.To, f.pairList()); err != nil {
			return err
		}
		f.logger.Info("range complete",
			zap.Uint64("from", r.From),
			zap.Uint64("to", r.To),
			zap.Int("logs", written),
			zap.Int("pairs_created", created),
			zap.Int("pairs", len(f.pairs)),
		)
	}
	return nil
}

// fetchRange fetches factory logs first so pairs created inside the range
// are followed in the same range.
func (f *Fetcher) fetchRange(ctx context.Context, chainID uint64, r blockRange) (int, int, error) {
	factoryLogs, err := f.filterLogs(ctx, r, []common.Address{f.cfg.Factory}, f.factoryTopics)
	if err != nil {
		return 0, 0, err
	}

	created := 0
	for _, log := range factoryLogs {
		if log.Removed {
			continue
		}
		event, err := f.decoder.Decode(buildLogRecord(chainID, log, 0))
		if err != nil {
			f.logger.Warn("decode pair created", zap.Error(err), zap.String("tx_hash", log.TxHash.Hex()))
			continue
		}
		data, ok := event.Decoded.(model.PairCreatedEventData)
		if !ok {
			continue
		}
		pair := common.HexToAddress(data.Pair)
		if _, ok := f.pairs[pair]; !ok {
			f.pairs[pair] = struct{}{}
			created++
		}
	}

	logs := factoryLogs
	pairs := f.pairAddresses()
	for start := 0; start < len(pairs); start += maxAddressesPerQuery {
		end := start + maxAddressesPerQuery
		if end > len(pairs) {
			end = len(pairs)
		}
		pairLogs, err := f.filterLogs(ctx, r, pairs[start:end], f.pairTopics)
		if err != nil {
			return 0, 0, err
		}
		logs = append(logs, pairLogs...)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	written := 0
	seen := make(map[string]struct{}, len(logs))
	for _, log := range logs {
		if log.Removed || isDuplicate(seen, log) {
			continue
		}
		ts, err := f.blockTimestamp(ctx, log.BlockNumber)
		if err != nil {
			return 0, 0, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		if err := f.writer.Write(buildLogRecord(chainID, log, ts)); err != nil {
			return 0, 0, fmt.Errorf("write log: %w", err)
		}
		written++
	}
	return written, created, nil
}

func (f *Fetcher) filterLogs(ctx context.Context, r blockRange, addresses []common.Address, topics []common.Hash) ([]types.Log, error) {
	var logs []types.Log
	err := f.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		logs, err = f.source.FilterLogs(ctx, r.From, r.To, addresses, topics)
		if err != nil {
			f.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", r.From), zap.Uint64("to", r.To))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("filter logs %d-%d: %w", r.From, r.To, err)
	}
	return logs, nil
}

func (f *Fetcher) blockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	var ts uint64
	err := f.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		ts, err = f.source.BlockTimestamp(ctx, number)
		if err != nil {
			f.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", number))
		}
		return err
	})
	return ts, err
}

// isDuplicate reports whether log was already seen in the current range.
// Ranges never overlap.
func isDuplicate(seen map[string]struct{}, log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := seen[id]; ok {
		return true
	}
	seen[id] = struct{}{}
	return false
}

func (f *Fetcher) pairAddresses() []common.Address {
	out := make([]common.Address, 0, len(f.pairs))
	for pair := range f.pairs {
		out = append(out, pair)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

func (f *Fetcher) pairList() []string {
	pairs := f.pairAddresses()
	out := make([]string, len(pairs))
	for i, pair := range pairs {
		out[i] = strings.ToLower(pair.Hex())
	}
	return out
}
