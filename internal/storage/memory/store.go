// Package memory holds the working snapshot of tokens, pairs and totals
// that the pricing core reads from while events are applied.
package memory

import (
	"sort"

	"exchangePricing/internal/model"
)

// Seed is the persisted state a Store starts from.
type Seed struct {
	Tokens  []model.Token
	Pairs   []model.Pair
	Bundle  model.Bundle
	Factory model.Factory
}

// Changes is everything modified since the last Drain.
type Changes struct {
	Tokens          []model.Token
	Pairs           []model.Pair
	Bundle          *model.Bundle
	Factory         *model.Factory
	Swaps           []model.Swap
	LiquidityEvents []model.LiquidityEvent
}

// Empty reports whether there is nothing to persist.
func (c Changes) Empty() bool {
	return len(c.Tokens) == 0 && len(c.Pairs) == 0 && c.Bundle == nil && c.Factory == nil &&
		len(c.Swaps) == 0 && len(c.LiquidityEvents) == 0
}

// Store is an in-memory snapshot. It is not safe for concurrent use;
// events are applied one at a time.
type Store struct {
	tokens    map[string]model.Token
	pairs     map[string]model.Pair
	pairIndex map[string]string
	bundle    model.Bundle
	factory   model.Factory

	dirtyTokens  map[string]struct{}
	dirtyPairs   map[string]struct{}
	dirtyBundle  bool
	dirtyFactory bool
	swaps        []model.Swap
	liquidity    []model.LiquidityEvent
}

// NewStore builds a Store from seed without marking anything dirty.
func NewStore(seed Seed) *Store {
	s := &Store{
		tokens:      make(map[string]model.Token, len(seed.Tokens)),
		pairs:       make(map[string]model.Pair, len(seed.Pairs)),
		pairIndex:   make(map[string]string, len(seed.Pairs)),
		bundle:      seed.Bundle,
		factory:     seed.Factory,
		dirtyTokens: make(map[string]struct{}),
		dirtyPairs:  make(map[string]struct{}),
	}
	if s.bundle.ID == "" {
		s.bundle.ID = model.BundleID
	}
	for _, token := range seed.Tokens {
		s.tokens[token.ID] = token
	}
	for _, pair := range seed.Pairs {
		s.pairs[pair.ID] = pair
		s.pairIndex[pairKey(pair.Token0, pair.Token1)] = pair.ID
	}
	return s
}

// LoadPair implements pricing.PairLoader.
func (s *Store) LoadPair(id string) (model.Pair, bool) {
	pair, ok := s.pairs[id]
	return pair, ok
}

// LoadToken implements pricing.TokenLoader.
func (s *Store) LoadToken(id string) (model.Token, bool) {
	token, ok := s.tokens[id]
	return token, ok
}

// FindPair implements pricing.PairFinder from the pairs created so far.
func (s *Store) FindPair(tokenA, tokenB string) (string, bool) {
	id, ok := s.pairIndex[pairKey(tokenA, tokenB)]
	return id, ok
}

// IndexPair records a pair address for a token pair without a pair record,
// as learned from an on-chain factory lookup.
func (s *Store) IndexPair(tokenA, tokenB, pairID string) {
	s.pairIndex[pairKey(tokenA, tokenB)] = pairID
}

func (s *Store) PutToken(token model.Token) {
	s.tokens[token.ID] = token
	s.dirtyTokens[token.ID] = struct{}{}
}

func (s *Store) PutPair(pair model.Pair) {
	s.pairs[pair.ID] = pair
	s.pairIndex[pairKey(pair.Token0, pair.Token1)] = pair.ID
	s.dirtyPairs[pair.ID] = struct{}{}
}

func (s *Store) Bundle() model.Bundle {
	return s.bundle
}

func (s *Store) SetBundle(bundle model.Bundle) {
	s.bundle = bundle
	s.dirtyBundle = true
}

func (s *Store) Factory() model.Factory {
	return s.factory
}

func (s *Store) SetFactory(factory model.Factory) {
	s.factory = factory
	s.dirtyFactory = true
}

func (s *Store) AddSwap(swap model.Swap) {
	s.swaps = append(s.swaps, swap)
}

func (s *Store) AddLiquidityEvent(event model.LiquidityEvent) {
	s.liquidity = append(s.liquidity, event)
}

// Pending returns the number of dirty records and buffered events.
func (s *Store) Pending() int {
	n := len(s.dirtyTokens) + len(s.dirtyPairs) + len(s.swaps) + len(s.liquidity)
	if s.dirtyBundle {
		n++
	}
	if s.dirtyFactory {
		n++
	}
	return n
}

// Drain returns the accumulated changes, ordered by id, and resets the
// dirty state.
func (s *Store) Drain() Changes {
	changes := Changes{
		Tokens:          make([]model.Token, 0, len(s.dirtyTokens)),
		Pairs:           make([]model.Pair, 0, len(s.dirtyPairs)),
		Swaps:           s.swaps,
		LiquidityEvents: s.liquidity,
	}
	for _, id := range sortedKeys(s.dirtyTokens) {
		changes.Tokens = append(changes.Tokens, s.tokens[id])
	}
	for _, id := range sortedKeys(s.dirtyPairs) {
		changes.Pairs = append(changes.Pairs, s.pairs[id])
	}
	if s.dirtyBundle {
		bundle := s.bundle
		changes.Bundle = &bundle
	}
	if s.dirtyFactory {
		factory := s.factory
		changes.Factory = &factory
	}

	s.dirtyTokens = make(map[string]struct{})
	s.dirtyPairs = make(map[string]struct{})
	s.dirtyBundle = false
	s.dirtyFactory = false
	s.swaps = nil
	s.liquidity = nil
	return changes
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
