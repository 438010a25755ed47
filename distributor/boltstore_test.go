package distributor

import (
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedistorg/libvedist-go/epoch"
	"github.com/vedistorg/libvedist-go/logger"
)

func openTestStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dist", "ledger.db")
	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestBoltStore_TokenLedgerAccumulates(t *testing.T) {
	store, _ := openTestStore(t)
	e := uint64(2651) * week

	v, err := store.TokensAt(e)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	require.NoError(t, store.AddTokens(e, uint256.NewInt(100)))
	require.NoError(t, store.AddTokens(e, uint256.NewInt(250)))

	v, err = store.TokensAt(e)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(350), v)

	// Neighboring epochs stay empty.
	v, err = store.TokensAt(e + week)
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestBoltStore_SupplyLedger(t *testing.T) {
	store, _ := openTestStore(t)
	e := uint64(2651) * week

	require.NoError(t, store.SetSupply(e, uint256.NewInt(777)))
	v, err := store.SupplyAt(e)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(777), v)

	// Idempotent rewrite.
	require.NoError(t, store.SetSupply(e, uint256.NewInt(777)))
	v, err = store.SupplyAt(e)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(777), v)
}

func TestBoltStore_Cursors(t *testing.T) {
	store, _ := openTestStore(t)

	lastTime, lastBalance, err := store.TokenCursor()
	require.NoError(t, err)
	assert.Zero(t, lastTime)
	assert.True(t, lastBalance.IsZero())

	big := uint256.MustFromDecimal("123456789012345678901234567890")
	require.NoError(t, store.SetTokenCursor(genesis, big))
	lastTime, lastBalance, err = store.TokenCursor()
	require.NoError(t, err)
	assert.Equal(t, uint64(genesis), lastTime)
	assert.Equal(t, big, lastBalance)

	cursor, err := store.SupplyCursor()
	require.NoError(t, err)
	assert.Zero(t, cursor)
	require.NoError(t, store.SetSupplyCursor(genesis+week))
	cursor, err = store.SupplyCursor()
	require.NoError(t, err)
	assert.Equal(t, genesis+week, cursor)

	cursor, err = store.AccountCursor(alice)
	require.NoError(t, err)
	assert.Zero(t, cursor)
	require.NoError(t, store.SetAccountCursor(alice, genesis+2*week))
	cursor, err = store.AccountCursor(alice)
	require.NoError(t, err)
	assert.Equal(t, genesis+2*week, cursor)

	// Other accounts are unaffected.
	cursor, err = store.AccountCursor(bob)
	require.NoError(t, err)
	assert.Zero(t, cursor)
}

func TestBoltStore_Meta(t *testing.T) {
	store, _ := openTestStore(t)

	_, err := store.Meta()
	assert.ErrorIs(t, err, ErrNoMeta)

	want := &Meta{
		StartTime:            epoch.Floor(genesis),
		Admin:                admin,
		AllowCheckpointToken: true,
	}
	require.NoError(t, store.SetMeta(want))

	got, err := store.Meta()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	store, path := openTestStore(t)
	e := uint64(2651) * week

	require.NoError(t, store.AddTokens(e, uint256.NewInt(42)))
	require.NoError(t, store.SetSupply(e, uint256.NewInt(7)))
	require.NoError(t, store.SetAccountCursor(alice, e))
	require.NoError(t, store.SetMeta(&Meta{StartTime: e, Admin: admin}))
	require.NoError(t, store.Close())

	reopened, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.TokensAt(e)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(42), v)
	v, err = reopened.SupplyAt(e)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(7), v)
	cursor, err := reopened.AccountCursor(alice)
	require.NoError(t, err)
	assert.Equal(t, e, cursor)
	meta, err := reopened.Meta()
	require.NoError(t, err)
	assert.Equal(t, e, meta.StartTime)
}

// TestBoltStore_DistributorResumesAfterReopen runs a full deposit and claim
// cycle over bbolt, closes everything, reopens, and claims the next epoch.
func TestBoltStore_DistributorResumesAfterReopen(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "ledger.db")

	require.NoError(t, f.esc.CreateLock(alice, lockAmount, f.now()+20*week, f.now()))
	f.sleep(week)
	startTime := f.now()

	open := func() *Distributor {
		store, err := OpenBoltStore(path)
		require.NoError(t, err)
		dist, err := New(f.ctx, Config{
			Logger:    logger.New(false),
			Clock:     f.clock,
			Store:     store,
			Oracle:    f.esc,
			Token:     f.tok,
			Self:      distAddr,
			Admin:     admin,
			StartTime: startTime,
		})
		require.NoError(t, err)
		return dist
	}

	f.dist = open()
	f.sleep(2 * week)
	f.deposit(t, tenCoins)
	require.NoError(t, f.dist.CheckpointToken(f.ctx, admin))
	f.sleep(week)
	require.NoError(t, f.dist.CheckpointToken(f.ctx, admin))

	first, err := f.dist.Claim(f.ctx, alice)
	require.NoError(t, err)
	assert.False(t, first.IsZero())
	require.NoError(t, f.dist.store.Close())

	// Reopen: cursors, ledgers and meta come back from disk, so the next
	// deposit pays only the new epoch.
	f.dist = open()
	f.deposit(t, tenCoins)
	require.NoError(t, f.dist.CheckpointToken(f.ctx, admin))
	f.sleep(week)
	require.NoError(t, f.dist.CheckpointToken(f.ctx, admin))

	second, err := f.dist.Claim(f.ctx, alice)
	require.NoError(t, err)
	assert.False(t, second.IsZero())

	total := new(uint256.Int).Add(first, second)
	deposits := new(uint256.Int).Mul(tenCoins, uint256.NewInt(2))
	assert.True(t, diff(total, deposits).Lt(uint256.NewInt(20)),
		"both deposits must be paid out exactly once across the restart")
	assert.Equal(t, total, f.balance(t, alice))
}

func TestOpenBoltStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "ledger.db")
	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
