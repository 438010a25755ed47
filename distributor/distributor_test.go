package distributor

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedistorg/libvedist-go/epoch"
	"github.com/vedistorg/libvedist-go/escrow"
	"github.com/vedistorg/libvedist-go/logger"
	"github.com/vedistorg/libvedist-go/token"
	"github.com/vedistorg/libvedist-go/types"
)

const week = uint64(epoch.Week)

// genesis sits a little past a week boundary, like any real deployment.
const genesis = 2650*week + 1000

var (
	lockAmount = uint256.MustFromDecimal("1000000000000000000000") // 1000 * 10^18
	oneCoin    = uint256.MustFromDecimal("1000000000000000000")    // 10^18
	tenCoins   = uint256.MustFromDecimal("10000000000000000000")   // 10^19
)

func makeAddr(seed byte) types.Address {
	var addr types.Address
	for i := range addr {
		addr[i] = seed
	}
	return addr
}

var (
	admin    = makeAddr(0x01)
	distAddr = makeAddr(0x0D)
	alice    = makeAddr(0xAA)
	bob      = makeAddr(0xBB)
	charlie  = makeAddr(0xCC)
)

// fixture wires a fake clock, a linear escrow, and an in-memory token
// around a distributor under test.
type fixture struct {
	ctx   context.Context
	clock *clockwork.FakeClock
	esc   *escrow.LinearEscrow
	tok   *token.MemToken
	dist  *Distributor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		ctx:   context.Background(),
		clock: clockwork.NewFakeClockAt(time.Unix(int64(genesis), 0)),
		esc:   escrow.NewLinearEscrow(),
		tok:   token.NewMemToken(),
	}
}

func (f *fixture) now() uint64 {
	return uint64(f.clock.Now().Unix())
}

func (f *fixture) sleep(d uint64) {
	f.clock.Advance(time.Duration(d) * time.Second)
}

// start builds the distributor with the given start time against the
// fixture's collaborators.
func (f *fixture) start(t *testing.T, startTime uint64) {
	t.Helper()
	dist, err := New(f.ctx, Config{
		Logger:    logger.New(false),
		Clock:     f.clock,
		Store:     NewMemStore(),
		Oracle:    f.esc,
		Token:     f.tok,
		Self:      distAddr,
		Admin:     admin,
		StartTime: startTime,
	})
	require.NoError(t, err)
	f.dist = dist
}

// deposit transfers fee tokens from charlie to the distributor, minting
// them first.
func (f *fixture) deposit(t *testing.T, amount *uint256.Int) {
	t.Helper()
	f.tok.Mint(charlie, amount)
	require.NoError(t, f.tok.Transfer(f.ctx, charlie, distAddr, amount))
}

func (f *fixture) balance(t *testing.T, account types.Address) *uint256.Int {
	t.Helper()
	bal, err := f.tok.BalanceOf(f.ctx, account)
	require.NoError(t, err)
	return bal
}

// diff returns |a - b|.
func diff(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Sub(b, a)
	}
	return new(uint256.Int).Sub(a, b)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Logger:    logger.New(false),
			Store:     NewMemStore(),
			Oracle:    escrow.NewLinearEscrow(),
			Token:     token.NewMemToken(),
			Self:      distAddr,
			Admin:     admin,
			StartTime: genesis,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing logger", func(c *Config) { c.Logger = nil }, "logger is required"},
		{"missing store", func(c *Config) { c.Store = nil }, "store is required"},
		{"missing oracle", func(c *Config) { c.Oracle = nil }, "oracle is required"},
		{"missing token", func(c *Config) { c.Token = nil }, "token is required"},
		{"missing self", func(c *Config) { c.Self = types.Address{} }, "self address is required"},
		{"missing start time", func(c *Config) { c.StartTime = 0 }, "start time is required"},
		{"negative cooldown", func(c *Config) { c.CheckpointCooldown = -time.Second }, "checkpoint cooldown must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultCheckpointCooldown, cfg.CheckpointCooldown)
		assert.NotNil(t, cfg.Clock)
	})
}

func TestNew_FloorsStartTimeAndSeedsLedgers(t *testing.T) {
	f := newFixture(t)
	f.start(t, genesis) // genesis is mid-epoch

	assert.Equal(t, epoch.Floor(genesis), f.dist.StartTime())

	// The construction-time supply checkpoint covers the current epoch.
	cursor, err := f.dist.AccountCursor(alice)
	require.NoError(t, err)
	assert.Zero(t, cursor, "no account cursor before first claim")

	supplyCursor, err := f.dist.store.SupplyCursor()
	require.NoError(t, err)
	assert.Equal(t, epoch.Next(epoch.Floor(genesis)), supplyCursor)
}

func TestNew_ReopensFromPersistedMeta(t *testing.T) {
	f := newFixture(t)
	store := NewMemStore()

	build := func(startTime uint64, adminAddr types.Address) (*Distributor, error) {
		return New(f.ctx, Config{
			Logger:    logger.New(false),
			Clock:     f.clock,
			Store:     store,
			Oracle:    f.esc,
			Token:     f.tok,
			Self:      distAddr,
			Admin:     adminAddr,
			StartTime: startTime,
		})
	}

	first, err := build(genesis, admin)
	require.NoError(t, err)
	require.NoError(t, first.ToggleAllowCheckpointToken(admin))

	// A second construction over the same store ignores the new config
	// values and adopts the persisted identity.
	second, err := build(genesis+10*week, bob)
	require.NoError(t, err)
	assert.Equal(t, epoch.Floor(genesis), second.StartTime())
	assert.Equal(t, admin, second.Admin())
	assert.True(t, second.CanCheckpointToken())
}

func TestAdmin_ToggleAllowCheckpointToken(t *testing.T) {
	f := newFixture(t)
	f.start(t, genesis)

	require.False(t, f.dist.CanCheckpointToken())

	err := f.dist.ToggleAllowCheckpointToken(bob)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.False(t, f.dist.CanCheckpointToken(), "denied call must have no side effects")

	require.NoError(t, f.dist.ToggleAllowCheckpointToken(admin))
	assert.True(t, f.dist.CanCheckpointToken())

	require.NoError(t, f.dist.ToggleAllowCheckpointToken(admin))
	assert.False(t, f.dist.CanCheckpointToken())
}

func TestAdmin_Rotation(t *testing.T) {
	f := newFixture(t)
	f.start(t, genesis)

	err := f.dist.ApplyAdmin(admin)
	assert.ErrorIs(t, err, ErrNoPendingAdmin)

	err = f.dist.CommitAdmin(bob, bob)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, f.dist.CommitAdmin(admin, bob))
	assert.Equal(t, admin, f.dist.Admin(), "commit alone does not rotate")

	err = f.dist.ApplyAdmin(bob)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, f.dist.ApplyAdmin(admin))
	assert.Equal(t, bob, f.dist.Admin())

	// The old admin has lost its powers, the new one has them.
	err = f.dist.ToggleAllowCheckpointToken(admin)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	require.NoError(t, f.dist.ToggleAllowCheckpointToken(bob))
}
