package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"exchangePricing/internal/model"
	"exchangePricing/internal/storage/memory"
)

// Store provides Postgres persistence for the exchange snapshot.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadSeed reads every token and pair plus the bundle and factory rows.
func (s *Store) LoadSeed(ctx context.Context, factoryID string) (memory.Seed, error) {
	tokens, err := s.loadTokens(ctx)
	if err != nil {
		return memory.Seed{}, err
	}
	pairs, err := s.loadPairs(ctx)
	if err != nil {
		return memory.Seed{}, err
	}
	bundle, err := s.loadBundle(ctx)
	if err != nil {
		return memory.Seed{}, err
	}
	factory, err := s.loadFactory(ctx, factoryID)
	if err != nil {
		return memory.Seed{}, err
	}
	return memory.Seed{Tokens: tokens, Pairs: pairs, Bundle: bundle, Factory: factory}, nil
}

func (s *Store) loadTokens(ctx context.Context) ([]model.Token, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, symbol, name, decimals, derived_reference::text,
			trade_volume::text, trade_volume_usd::text, untracked_volume_usd::text,
			total_liquidity::text, tx_count
		FROM tokens
	`)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.Token
	for rows.Next() {
		var (
			token    model.Token
			decimals int16
			derived  *string
			nums     [4]string
			txCount  int64
		)
		if err := rows.Scan(&token.ID, &token.Symbol, &token.Name, &decimals, &derived,
			&nums[0], &nums[1], &nums[2], &nums[3], &txCount); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		token.Decimals = uint8(decimals)
		token.TxCount = uint64(txCount)
		if token.DerivedReference, err = parseNullDecimal(derived); err != nil {
			return nil, fmt.Errorf("token %s derived: %w", token.ID, err)
		}
		parsed, err := parseDecimals(nums[:])
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", token.ID, err)
		}
		token.TradeVolume, token.TradeVolumeUSD, token.UntrackedVolumeUSD, token.TotalLiquidity =
			parsed[0], parsed[1], parsed[2], parsed[3]
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (s *Store) loadPairs(ctx context.Context) ([]model.Pair, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, token0, token1,
			reserve0::text, reserve1::text, reserve_reference::text, reserve_usd::text,
			tracked_reserve_reference::text, token0_price::text, token1_price::text,
			volume_token0::text, volume_token1::text, volume_usd::text, untracked_volume_usd::text,
			tx_count, created_at_block, created_at_timestamp
		FROM pairs
	`)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	var pairs []model.Pair
	for rows.Next() {
		var (
			pair                       model.Pair
			nums                       [11]string
			txCount, createdBlock, cts int64
		)
		if err := rows.Scan(&pair.ID, &pair.Token0, &pair.Token1,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5], &nums[6],
			&nums[7], &nums[8], &nums[9], &nums[10],
			&txCount, &createdBlock, &cts); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		parsed, err := parseDecimals(nums[:])
		if err != nil {
			return nil, fmt.Errorf("pair %s: %w", pair.ID, err)
		}
		pair.Reserve0, pair.Reserve1, pair.ReserveReference, pair.ReserveUSD = parsed[0], parsed[1], parsed[2], parsed[3]
		pair.TrackedReserveReference, pair.Token0Price, pair.Token1Price = parsed[4], parsed[5], parsed[6]
		pair.VolumeToken0, pair.VolumeToken1, pair.VolumeUSD, pair.UntrackedVolumeUSD = parsed[7], parsed[8], parsed[9], parsed[10]
		pair.TxCount = uint64(txCount)
		pair.CreatedAtBlock = uint64(createdBlock)
		pair.CreatedAtTimestamp = uint64(cts)
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

func (s *Store) loadBundle(ctx context.Context) (model.Bundle, error) {
	bundle := model.Bundle{ID: model.BundleID}
	var price string
	err := s.pool.QueryRow(ctx, `SELECT reference_price_usd::text FROM bundles WHERE id=$1`, model.BundleID).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bundle, nil
		}
		return bundle, fmt.Errorf("query bundle: %w", err)
	}
	if bundle.ReferencePriceUSD, err = decimal.NewFromString(price); err != nil {
		return bundle, fmt.Errorf("bundle price: %w", err)
	}
	return bundle, nil
}

func (s *Store) loadFactory(ctx context.Context, id string) (model.Factory, error) {
	factory := model.Factory{ID: id}
	var (
		pairCount, txCount int64
		nums               [5]string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT pair_count, tx_count, total_volume_usd::text, total_volume_reference::text,
			untracked_volume_usd::text, total_liquidity_reference::text, total_liquidity_usd::text
		FROM factories WHERE id=$1
	`, id).Scan(&pairCount, &txCount, &nums[0], &nums[1], &nums[2], &nums[3], &nums[4])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return factory, nil
		}
		return factory, fmt.Errorf("query factory: %w", err)
	}
	parsed, err := parseDecimals(nums[:])
	if err != nil {
		return factory, fmt.Errorf("factory %s: %w", id, err)
	}
	factory.PairCount = uint64(pairCount)
	factory.TxCount = uint64(txCount)
	factory.TotalVolumeUSD, factory.TotalVolumeReference, factory.UntrackedVolumeUSD = parsed[0], parsed[1], parsed[2]
	factory.TotalLiquidityReference, factory.TotalLiquidityUSD = parsed[3], parsed[4]
	return factory, nil
}

// Persist writes drained snapshot changes in one transaction.
func (s *Store) Persist(ctx context.Context, changes memory.Changes) error {
	if changes.Empty() {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, token := range changes.Tokens {
		queueToken(batch, token)
	}
	for _, pair := range changes.Pairs {
		queuePair(batch, pair)
	}
	if changes.Bundle != nil {
		batch.Queue(`
			INSERT INTO bundles (id, reference_price_usd, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (id) DO UPDATE SET reference_price_usd = EXCLUDED.reference_price_usd, updated_at = now()
		`, changes.Bundle.ID, changes.Bundle.ReferencePriceUSD.String())
	}
	if changes.Factory != nil {
		queueFactory(batch, *changes.Factory)
	}
	for _, swap := range changes.Swaps {
		queueSwap(batch, swap)
	}
	for _, event := range changes.LiquidityEvents {
		queueLiquidityEvent(batch, event)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("persist changes: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return tx.Commit(ctx)
}

func queueToken(batch *pgx.Batch, t model.Token) {
	batch.Queue(`
		INSERT INTO tokens (
			id, symbol, name, decimals, derived_reference, trade_volume, trade_volume_usd,
			untracked_volume_usd, total_liquidity, tx_count, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())
		ON CONFLICT (id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			decimals = EXCLUDED.decimals,
			derived_reference = EXCLUDED.derived_reference,
			trade_volume = EXCLUDED.trade_volume,
			trade_volume_usd = EXCLUDED.trade_volume_usd,
			untracked_volume_usd = EXCLUDED.untracked_volume_usd,
			total_liquidity = EXCLUDED.total_liquidity,
			tx_count = EXCLUDED.tx_count,
			updated_at = now()
	`,
		t.ID,
		t.Symbol,
		t.Name,
		int16(t.Decimals),
		nullDecimalText(t.DerivedReference),
		t.TradeVolume.String(),
		t.TradeVolumeUSD.String(),
		t.UntrackedVolumeUSD.String(),
		t.TotalLiquidity.String(),
		int64(t.TxCount),
	)
}

func queuePair(batch *pgx.Batch, p model.Pair) {
	batch.Queue(`
		INSERT INTO pairs (
			id, token0, token1, reserve0, reserve1, reserve_reference, reserve_usd,
			tracked_reserve_reference, token0_price, token1_price, volume_token0, volume_token1,
			volume_usd, untracked_volume_usd, tx_count, created_at_block, created_at_timestamp, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now())
		ON CONFLICT (id) DO UPDATE SET
			reserve0 = EXCLUDED.reserve0,
			reserve1 = EXCLUDED.reserve1,
			reserve_reference = EXCLUDED.reserve_reference,
			reserve_usd = EXCLUDED.reserve_usd,
			tracked_reserve_reference = EXCLUDED.tracked_reserve_reference,
			token0_price = EXCLUDED.token0_price,
			token1_price = EXCLUDED.token1_price,
			volume_token0 = EXCLUDED.volume_token0,
			volume_token1 = EXCLUDED.volume_token1,
			volume_usd = EXCLUDED.volume_usd,
			untracked_volume_usd = EXCLUDED.untracked_volume_usd,
			tx_count = EXCLUDED.tx_count,
			updated_at = now()
	`,
		p.ID,
		p.Token0,
		p.Token1,
		p.Reserve0.String(),
		p.Reserve1.String(),
		p.ReserveReference.String(),
		p.ReserveUSD.String(),
		p.TrackedReserveReference.String(),
		p.Token0Price.String(),
		p.Token1Price.String(),
		p.VolumeToken0.String(),
		p.VolumeToken1.String(),
		p.VolumeUSD.String(),
		p.UntrackedVolumeUSD.String(),
		int64(p.TxCount),
		int64(p.CreatedAtBlock),
		int64(p.CreatedAtTimestamp),
	)
}

func queueFactory(batch *pgx.Batch, f model.Factory) {
	batch.Queue(`
		INSERT INTO factories (
			id, pair_count, tx_count, total_volume_usd, total_volume_reference, untracked_volume_usd,
			total_liquidity_reference, total_liquidity_usd, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
		ON CONFLICT (id) DO UPDATE SET
			pair_count = EXCLUDED.pair_count,
			tx_count = EXCLUDED.tx_count,
			total_volume_usd = EXCLUDED.total_volume_usd,
			total_volume_reference = EXCLUDED.total_volume_reference,
			untracked_volume_usd = EXCLUDED.untracked_volume_usd,
			total_liquidity_reference = EXCLUDED.total_liquidity_reference,
			total_liquidity_usd = EXCLUDED.total_liquidity_usd,
			updated_at = now()
	`,
		f.ID,
		int64(f.PairCount),
		int64(f.TxCount),
		f.TotalVolumeUSD.String(),
		f.TotalVolumeReference.String(),
		f.UntrackedVolumeUSD.String(),
		f.TotalLiquidityReference.String(),
		f.TotalLiquidityUSD.String(),
	)
}

func queueSwap(batch *pgx.Batch, sw model.Swap) {
	batch.Queue(`
		INSERT INTO swaps (
			id, pair, tx_hash, log_index, block_number, block_timestamp, sender, recipient,
			amount0_in, amount1_in, amount0_out, amount1_out, amount_usd
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO NOTHING
	`,
		sw.ID,
		sw.Pair,
		sw.TxHash,
		int64(sw.LogIndex),
		int64(sw.BlockNumber),
		int64(sw.Timestamp),
		sw.Sender,
		sw.To,
		sw.Amount0In.String(),
		sw.Amount1In.String(),
		sw.Amount0Out.String(),
		sw.Amount1Out.String(),
		sw.AmountUSD.String(),
	)
}

func queueLiquidityEvent(batch *pgx.Batch, ev model.LiquidityEvent) {
	batch.Queue(`
		INSERT INTO liquidity_events (
			id, kind, pair, tx_hash, log_index, block_number, block_timestamp, sender,
			amount0, amount1, amount_usd, tracked_amount_usd
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO NOTHING
	`,
		ev.ID,
		string(ev.Kind),
		ev.Pair,
		ev.TxHash,
		int64(ev.LogIndex),
		int64(ev.BlockNumber),
		int64(ev.Timestamp),
		ev.Sender,
		ev.Amount0.String(),
		ev.Amount1.String(),
		ev.AmountUSD.String(),
		ev.TrackedAmountUSD.String(),
	)
}

// LoadState returns last_processed_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts last_processed_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}
