package distributor

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/vedistorg/libvedist-go/types"
)

// Meta is the distributor's fixed identity: the construction-time start
// epoch and the admin gate state. Written once at construction and on admin
// operations.
type Meta struct {
	StartTime            uint64 // earliest payable epoch, week-aligned
	Admin                types.Address
	AllowCheckpointToken bool
}

// Store persists the distribution engine's state: the two epoch ledgers,
// the two checkpoint cursors, the per-account claim cursors, and the
// distributor metadata.
//
// Only the two checkpointers mutate the ledgers; only an account's own
// claim mutates that account's cursor. The engine serializes all mutating
// calls, so implementations need only be safe for concurrent reads.
type Store interface {
	// TokensAt returns the fee tokens credited to an epoch. Zero if the
	// epoch has no entry.
	TokensAt(e uint64) (*uint256.Int, error)

	// AddTokens increments an epoch's fee-token credit. Epoch entries are
	// append-only: they may be incremented, never decremented.
	AddTokens(e uint64, amount *uint256.Int) error

	// SupplyAt returns the voting-power supply snapshot for an epoch. Zero
	// if the epoch has no entry.
	SupplyAt(e uint64) (*uint256.Int, error)

	// SetSupply records the voting-power supply snapshot for an epoch.
	SetSupply(e uint64, amount *uint256.Int) error

	// TokenCursor returns the token checkpointer's cursor: the time of the
	// last checkpoint and the fee-token balance observed then.
	TokenCursor() (lastTime uint64, lastBalance *uint256.Int, err error)

	// SetTokenCursor advances the token checkpointer's cursor.
	SetTokenCursor(lastTime uint64, lastBalance *uint256.Int) error

	// SupplyCursor returns the first epoch without a supply snapshot.
	SupplyCursor() (uint64, error)

	// SetSupplyCursor advances the supply checkpointer's cursor.
	SetSupplyCursor(e uint64) error

	// AccountCursor returns the first epoch not yet paid to account, or
	// zero if the account has never claimed.
	AccountCursor(account types.Address) (uint64, error)

	// SetAccountCursor advances an account's claim cursor.
	SetAccountCursor(account types.Address, e uint64) error

	// Meta returns the stored distributor metadata, or ErrNoMeta if none
	// has been written.
	Meta() (*Meta, error)

	// SetMeta stores the distributor metadata.
	SetMeta(m *Meta) error

	// Close releases the store's resources.
	Close() error
}

// MemStore is an in-memory implementation of Store.
type MemStore struct {
	mu             sync.RWMutex
	tokensPerEpoch map[uint64]*uint256.Int
	supplyPerEpoch map[uint64]*uint256.Int
	tokenTime      uint64
	tokenBalance   *uint256.Int
	supplyCursor   uint64
	accountCursors map[types.Address]uint64
	meta           *Meta
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		tokensPerEpoch: make(map[uint64]*uint256.Int),
		supplyPerEpoch: make(map[uint64]*uint256.Int),
		tokenBalance:   new(uint256.Int),
		accountCursors: make(map[types.Address]uint64),
	}
}

func (s *MemStore) TokensAt(e uint64) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.tokensPerEpoch[e]; ok {
		return v.Clone(), nil
	}
	return new(uint256.Int), nil
}

func (s *MemStore) AddTokens(e uint64, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.tokensPerEpoch[e]
	if !ok {
		v = new(uint256.Int)
		s.tokensPerEpoch[e] = v
	}
	v.Add(v, amount)
	return nil
}

func (s *MemStore) SupplyAt(e uint64) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.supplyPerEpoch[e]; ok {
		return v.Clone(), nil
	}
	return new(uint256.Int), nil
}

func (s *MemStore) SetSupply(e uint64, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supplyPerEpoch[e] = amount.Clone()
	return nil
}

func (s *MemStore) TokenCursor() (uint64, *uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenTime, s.tokenBalance.Clone(), nil
}

func (s *MemStore) SetTokenCursor(lastTime uint64, lastBalance *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTime = lastTime
	s.tokenBalance = lastBalance.Clone()
	return nil
}

func (s *MemStore) SupplyCursor() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.supplyCursor, nil
}

func (s *MemStore) SetSupplyCursor(e uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supplyCursor = e
	return nil
}

func (s *MemStore) AccountCursor(account types.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountCursors[account], nil
}

func (s *MemStore) SetAccountCursor(account types.Address, e uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountCursors[account] = e
	return nil
}

func (s *MemStore) Meta() (*Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return nil, ErrNoMeta
	}
	m := *s.meta
	return &m, nil
}

func (s *MemStore) SetMeta(m *Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.meta = &cp
	return nil
}

func (s *MemStore) Close() error { return nil }
