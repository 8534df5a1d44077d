package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"exchangePricing/internal/model"
)

const (
	wbnb = "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
	busd = "0xe9e7cea3dedca5984780bafc599bd69add087d56"
	usdt = "0x55d398326f99059ff775485246999027b3197955"
	weth = "0x2170ed0880ac9a755fd29b2688956bd959f933f8"
	cake = "0xcccccccccccccccccccccccccccccccccccccccc"

	busdPair = "0x58f876857a02d6762e0101bb5c46a8c1ed44dc16"
	usdtPair = "0x16b9a82891338f9ba80e2d6970fdda79d1eb0dae"
)

type fakeSnapshot struct {
	pairs  map[string]model.Pair
	tokens map[string]model.Token
	index  map[[2]string]string
}

func newFakeSnapshot() *fakeSnapshot {
	return &fakeSnapshot{
		pairs:  make(map[string]model.Pair),
		tokens: make(map[string]model.Token),
		index:  make(map[[2]string]string),
	}
}

func (s *fakeSnapshot) LoadPair(id string) (model.Pair, bool) {
	p, ok := s.pairs[id]
	return p, ok
}

func (s *fakeSnapshot) LoadToken(id string) (model.Token, bool) {
	t, ok := s.tokens[id]
	return t, ok
}

func (s *fakeSnapshot) FindPair(a, b string) (string, bool) {
	if id, ok := s.index[[2]string{a, b}]; ok {
		return id, true
	}
	id, ok := s.index[[2]string{b, a}]
	return id, ok
}

// addPair registers and indexes a pair with spot prices derived from its reserves.
func (s *fakeSnapshot) addPair(p model.Pair) {
	p.Token0Price, p.Token1Price = SpotPrices(p.Reserve0, p.Reserve1)
	s.pairs[p.ID] = p
	s.index[[2]string{p.Token0, p.Token1}] = p.ID
}

// indexOnly records a pair address without a loadable record.
func (s *fakeSnapshot) indexOnly(id, a, b string) {
	s.index[[2]string{a, b}] = id
}

func (s *fakeSnapshot) addToken(id string, derived string) {
	t := model.Token{ID: id}
	if derived != "" {
		t.DerivedReference = decimal.NewNullDecimal(d(derived))
	}
	s.tokens[id] = t
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestPricer(t *testing.T, snap Snapshot) *Pricer {
	t.Helper()
	p, err := NewPricer(DefaultConfig(), snap, nil)
	if err != nil {
		t.Fatalf("new pricer: %v", err)
	}
	return p
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}
