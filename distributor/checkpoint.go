package distributor

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/vedistorg/libvedist-go/epoch"
	"github.com/vedistorg/libvedist-go/types"
)

// CheckpointTotalSupply snapshots the voting-power total at every epoch
// boundary from the supply cursor up to the current epoch, at most
// maxSupplyEpochsPerCall boundaries per call. Idempotent and callable by
// anyone: re-checkpointing an already written epoch rewrites the same
// deterministic value.
func (d *Distributor) CheckpointTotalSupply(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.checkpointTotalSupply(ctx)
}

func (d *Distributor) checkpointTotalSupply(ctx context.Context) error {
	nowEpoch := epoch.Floor(d.now())

	cursor, err := d.store.SupplyCursor()
	if err != nil {
		return err
	}
	from := cursor

	for i := 0; i < maxSupplyEpochsPerCall && cursor <= nowEpoch; i++ {
		supply, err := d.oracle.TotalSupplyAt(ctx, cursor)
		if err != nil {
			return fmt.Errorf("%w: total supply at %d: %w", ErrOracleUnavailable, cursor, err)
		}
		if err := d.store.SetSupply(cursor, supply); err != nil {
			return err
		}
		cursor = epoch.Next(cursor)
	}

	if err := d.store.SetSupplyCursor(cursor); err != nil {
		return err
	}
	if cursor != from {
		d.log.Debug("distributor: supply checkpoint",
			"from_epoch", from, "next_epoch", cursor)
	}
	return nil
}

// CheckpointToken reconciles the fee-token balance delta since the last
// checkpoint into the weekly ledger. The admin may always call it; other
// callers need the public-checkpoint flag enabled and the cooldown window
// elapsed since the last checkpoint.
func (d *Distributor) CheckpointToken(ctx context.Context, caller types.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if caller != d.admin {
		if !d.allowCheckpointToken {
			return ErrPermissionDenied
		}
		lastTime, _, err := d.store.TokenCursor()
		if err != nil {
			return err
		}
		if d.now() <= lastTime+d.cooldownSeconds() {
			return ErrCheckpointCooldown
		}
	}
	return d.checkpointToken(ctx)
}

// checkpointToken spreads the balance delta across the half-open interval
// (lastTime, now], splitting at every epoch boundary crossed and crediting
// each epoch proportionally to the elapsed time inside it. Integer division
// floors each share; the final sub-interval receives the residual so the
// delta is conserved exactly. A zero or negative delta distributes nothing
// but still advances the cursor.
func (d *Distributor) checkpointToken(ctx context.Context) error {
	now := d.now()

	balance, err := d.token.BalanceOf(ctx, d.self)
	if err != nil {
		return fmt.Errorf("distributor: read fee token balance: %w", err)
	}
	lastTime, lastBalance, err := d.store.TokenCursor()
	if err != nil {
		return err
	}

	delta := new(uint256.Int)
	if balance.Gt(lastBalance) {
		delta.Sub(balance, lastBalance)
	}

	if err := d.store.SetTokenCursor(now, balance); err != nil {
		return err
	}
	if delta.IsZero() {
		d.log.Debug("distributor: token checkpoint, nothing to distribute", "time", now)
		return nil
	}

	sinceLast := now - lastTime
	if sinceLast == 0 {
		// Checkpoint at the same instant as the previous one: the whole
		// delta belongs to the current epoch.
		if err := d.store.AddTokens(epoch.Floor(now), delta); err != nil {
			return err
		}
		d.log.Debug("distributor: token checkpoint",
			"time", now, "delta", delta.String(), "epochs", 1)
		return nil
	}

	span := uint256.NewInt(sinceLast)
	distributed := new(uint256.Int)
	t := lastTime
	thisEpoch := epoch.Floor(t)
	epochs := 0

	for i := 0; i < maxTokenEpochsPerCall; i++ {
		nextEpoch := epoch.Next(thisEpoch)
		epochs++
		if now < nextEpoch || i == maxTokenEpochsPerCall-1 {
			// Final sub-interval takes the residual, conserving the delta.
			part := new(uint256.Int).Sub(delta, distributed)
			if err := d.store.AddTokens(thisEpoch, part); err != nil {
				return err
			}
			break
		}
		part := new(uint256.Int).Mul(delta, uint256.NewInt(nextEpoch-t))
		part.Div(part, span)
		if err := d.store.AddTokens(thisEpoch, part); err != nil {
			return err
		}
		distributed.Add(distributed, part)
		t = nextEpoch
		thisEpoch = nextEpoch
	}

	d.log.Debug("distributor: token checkpoint",
		"time", now, "delta", delta.String(), "epochs", epochs)
	return nil
}
