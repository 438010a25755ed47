package distributor

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/vedistorg/libvedist-go/epoch"
	"github.com/vedistorg/libvedist-go/types"
)

// Claim pays account its share of every claimable epoch from its cursor
// forward and returns the amount transferred, which may be zero. At most
// maxClaimEpochsPerCall epochs are settled per call; long-idle accounts
// claim repeatedly, each call advancing the cursor.
//
// An epoch is claimable once it has both a token-ledger and a supply-ledger
// entry. A stale supply ledger is refreshed first, and when the admin gate
// allows it and the cooldown has elapsed a token checkpoint runs too, so
// the most recent complete epoch is payable.
func (d *Distributor) Claim(ctx context.Context, account types.Address) (*uint256.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.claim(ctx, account)
}

// ClaimMany claims for each account in turn and returns the total paid.
// Each account's claim is settled atomically; an error aborts the batch
// after the already-settled accounts have been paid.
func (d *Distributor) ClaimMany(ctx context.Context, accounts []types.Address) (*uint256.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := new(uint256.Int)
	for _, account := range accounts {
		paid, err := d.claim(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("distributor: claim for %s: %w", account, err)
		}
		total.Add(total, paid)
	}
	return total, nil
}

func (d *Distributor) claim(ctx context.Context, account types.Address) (*uint256.Int, error) {
	now := d.now()
	nowEpoch := epoch.Floor(now)

	supplyCursor, err := d.store.SupplyCursor()
	if err != nil {
		return nil, err
	}
	if supplyCursor <= nowEpoch {
		if err := d.checkpointTotalSupply(ctx); err != nil {
			return nil, err
		}
		if supplyCursor, err = d.store.SupplyCursor(); err != nil {
			return nil, err
		}
	}

	lastTokenTime, lastTokenBalance, err := d.store.TokenCursor()
	if err != nil {
		return nil, err
	}
	if d.allowCheckpointToken && now > lastTokenTime+d.cooldownSeconds() {
		if err := d.checkpointToken(ctx); err != nil {
			return nil, err
		}
		if lastTokenTime, lastTokenBalance, err = d.store.TokenCursor(); err != nil {
			return nil, err
		}
	}

	// Epochs strictly below the limit have final token credits and a
	// supply snapshot. The supply cursor is the first unsnapshotted epoch.
	limit := epoch.Floor(lastTokenTime)
	if supplyCursor < limit {
		limit = supplyCursor
	}

	owed, cursor, err := d.accrue(ctx, account, limit)
	if err != nil {
		return nil, err
	}
	if cursor == 0 {
		// No lock history: nothing to pay and no cursor to advance.
		return new(uint256.Int), nil
	}

	if !owed.IsZero() {
		if err := d.token.Transfer(ctx, d.self, account, owed); err != nil {
			// The cursor is untouched: a failed transfer pays nothing and
			// forfeits nothing.
			return nil, fmt.Errorf("distributor: pay claim: %w", err)
		}
		// The payout leaves the distributor's token account; deduct it from
		// the checkpointer's reference balance so the next delta is not
		// read as a withdrawal.
		lastTokenBalance.Sub(lastTokenBalance, owed)
		if err := d.store.SetTokenCursor(lastTokenTime, lastTokenBalance); err != nil {
			return nil, err
		}
	}

	if err := d.store.SetAccountCursor(account, cursor); err != nil {
		return nil, err
	}

	if !owed.IsZero() {
		d.log.Info("distributor: claim paid",
			"account", account.String(), "amount", owed.String(), "next_epoch", cursor)
	} else {
		d.log.Debug("distributor: claim empty",
			"account", account.String(), "next_epoch", cursor)
	}
	return owed, nil
}

// accrue walks the weekly ledger from the account's cursor up to limit
// (exclusive), accumulating tokens[e] * balance / supply per epoch with
// floor division. It returns the amount owed and the advanced cursor. A
// returned cursor of zero means the account has no lock history.
func (d *Distributor) accrue(ctx context.Context, account types.Address, limit uint64) (*uint256.Int, uint64, error) {
	owed := new(uint256.Int)

	cursor, err := d.store.AccountCursor(account)
	if err != nil {
		return nil, 0, err
	}
	if cursor == 0 {
		first, ok, err := d.oracle.FirstLockTime(ctx, account)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: first lock time for %s: %w", ErrOracleUnavailable, account, err)
		}
		if !ok {
			return owed, 0, nil
		}
		// The first epoch fully covered by the account's lock, never before
		// the distributor's start.
		cursor = epoch.Ceil(first)
		if cursor < d.startTime {
			cursor = d.startTime
		}
	}

	share := new(uint256.Int)
	for i := 0; i < maxClaimEpochsPerCall && cursor < limit; i++ {
		supply, err := d.store.SupplyAt(cursor)
		if err != nil {
			return nil, 0, err
		}
		// An epoch with zero supply has no defined shares; it contributes
		// nothing and its tokens stay in the ledger.
		if !supply.IsZero() {
			balance, err := d.oracle.BalanceAt(ctx, account, cursor)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: balance at %d: %w", ErrOracleUnavailable, cursor, err)
			}
			if !balance.IsZero() {
				tokens, err := d.store.TokensAt(cursor)
				if err != nil {
					return nil, 0, err
				}
				share.Mul(tokens, balance)
				share.Div(share, supply)
				owed.Add(owed, share)
			}
		}
		cursor = epoch.Next(cursor)
	}

	return owed, cursor, nil
}
