// Package distributor implements the time-weighted fee distribution engine
// for a voting-escrow protocol.
//
// Fee tokens arrive at the distributor's token account as plain transfers.
// The token checkpointer reconciles balance deltas into a weekly epoch
// ledger, spreading each delta over the time it actually covers. The supply
// checkpointer snapshots total voting power at each epoch boundary. Claims
// replay the weekly ledger from an account's cursor, paying
// tokens[e] * balance(e) / supply(e) per epoch.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"

	"github.com/vedistorg/libvedist-go/epoch"
	"github.com/vedistorg/libvedist-go/escrow"
	"github.com/vedistorg/libvedist-go/token"
	"github.com/vedistorg/libvedist-go/types"
)

const (
	// maxSupplyEpochsPerCall bounds how many epoch boundaries one supply
	// checkpoint call snapshots. Callers catching up after a long idle
	// period call CheckpointTotalSupply repeatedly.
	maxSupplyEpochsPerCall = 20

	// maxTokenEpochsPerCall bounds how many epochs one token checkpoint
	// spreads a delta across. Any remainder past the bound is credited to
	// the last processed epoch so no tokens are lost.
	maxTokenEpochsPerCall = 20

	// maxClaimEpochsPerCall bounds the epoch walk of a single claim.
	// Long-idle accounts claim more than once; each call advances the
	// cursor and is individually correct.
	maxClaimEpochsPerCall = 50

	// DefaultCheckpointCooldown is the minimum interval between public
	// token checkpoints, including the auto-checkpoint on claim.
	DefaultCheckpointCooldown = time.Hour
)

// Config configures a Distributor.
type Config struct {
	Logger *slog.Logger
	Clock  clockwork.Clock // defaults to the real clock
	Store  Store
	Oracle escrow.Oracle
	Token  token.Token

	// Self is the distributor's own token account: the address fee tokens
	// are deposited to and claims are paid from.
	Self types.Address

	// Admin may toggle public checkpointing and rotate itself. Ignored when
	// the store already holds metadata from a previous run.
	Admin types.Address

	// StartTime fixes the earliest payable epoch. Floored to a week
	// boundary at construction; epochs before it are never paid, even to
	// accounts that held voting power then. Ignored when the store already
	// holds metadata.
	StartTime uint64

	// AllowCheckpointToken enables public token checkpoints and the
	// auto-checkpoint on claim. Ignored when the store already holds
	// metadata.
	AllowCheckpointToken bool

	// CheckpointCooldown overrides DefaultCheckpointCooldown.
	CheckpointCooldown time.Duration
}

// Validate checks the configuration and fills in defaults.
func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Oracle == nil {
		return errors.New("oracle is required")
	}
	if cfg.Token == nil {
		return errors.New("token is required")
	}
	if cfg.Self.IsZero() {
		return errors.New("self address is required")
	}
	if cfg.StartTime == 0 {
		return errors.New("start time is required")
	}
	if cfg.CheckpointCooldown < 0 {
		return errors.New("checkpoint cooldown must not be negative")
	}
	if cfg.CheckpointCooldown == 0 {
		cfg.CheckpointCooldown = DefaultCheckpointCooldown
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Distributor is the fee distribution engine. Every mutating operation is
// serialized by a single mutex, so no call ever observes a partially
// updated ledger.
type Distributor struct {
	log    *slog.Logger
	clock  clockwork.Clock
	store  Store
	oracle escrow.Oracle
	token  token.Token
	self   types.Address

	cooldown time.Duration

	mu                   sync.Mutex
	startTime            uint64
	admin                types.Address
	pendingAdmin         types.Address
	allowCheckpointToken bool
}

// New builds a Distributor. On a fresh store it floors StartTime to a week
// boundary, seeds both checkpoint cursors at that epoch, persists the
// metadata, and takes the initial supply checkpoint. On a store carrying
// metadata from a previous run, the persisted start time and admin state
// win over the config.
func New(ctx context.Context, cfg Config) (*Distributor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Distributor{
		log:      cfg.Logger,
		clock:    cfg.Clock,
		store:    cfg.Store,
		oracle:   cfg.Oracle,
		token:    cfg.Token,
		self:     cfg.Self,
		cooldown: cfg.CheckpointCooldown,
	}

	meta, err := cfg.Store.Meta()
	switch {
	case errors.Is(err, ErrNoMeta):
		start := epoch.Floor(cfg.StartTime)
		meta = &Meta{
			StartTime:            start,
			Admin:                cfg.Admin,
			AllowCheckpointToken: cfg.AllowCheckpointToken,
		}
		if err := cfg.Store.SetMeta(meta); err != nil {
			return nil, fmt.Errorf("distributor: persist meta: %w", err)
		}
		if err := cfg.Store.SetTokenCursor(start, new(uint256.Int)); err != nil {
			return nil, fmt.Errorf("distributor: seed token cursor: %w", err)
		}
		if err := cfg.Store.SetSupplyCursor(start); err != nil {
			return nil, fmt.Errorf("distributor: seed supply cursor: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("distributor: read meta: %w", err)
	}

	d.startTime = meta.StartTime
	d.admin = meta.Admin
	d.allowCheckpointToken = meta.AllowCheckpointToken

	if err := d.checkpointTotalSupply(ctx); err != nil {
		return nil, err
	}

	d.log.Debug("distributor: constructed",
		"start_time", d.startTime,
		"admin", d.admin.String(),
		"allow_checkpoint_token", d.allowCheckpointToken)
	return d, nil
}

// StartTime returns the earliest payable epoch.
func (d *Distributor) StartTime() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startTime
}

// TokensAt returns the fee tokens credited to the epoch containing ts.
func (d *Distributor) TokensAt(ts uint64) (*uint256.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.TokensAt(epoch.Floor(ts))
}

// SupplyAt returns the voting-power supply snapshot for the epoch
// containing ts. Zero if the epoch has not been checkpointed.
func (d *Distributor) SupplyAt(ts uint64) (*uint256.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.SupplyAt(epoch.Floor(ts))
}

// AccountCursor returns an account's claim cursor: the first epoch not yet
// paid to it. Zero if the account has never claimed.
func (d *Distributor) AccountCursor(account types.Address) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.AccountCursor(account)
}

// now returns the clock's current time as unix seconds.
func (d *Distributor) now() uint64 {
	return uint64(d.clock.Now().Unix())
}

// cooldownSeconds returns the checkpoint cooldown in whole seconds.
func (d *Distributor) cooldownSeconds() uint64 {
	return uint64(d.cooldown / time.Second)
}
