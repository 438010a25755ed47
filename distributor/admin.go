package distributor

import (
	"fmt"

	"github.com/vedistorg/libvedist-go/types"
)

// Admin returns the current admin account.
func (d *Distributor) Admin() types.Address {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.admin
}

// CanCheckpointToken reports whether public token checkpoints (and the
// auto-checkpoint on claim) are enabled.
func (d *Distributor) CanCheckpointToken() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allowCheckpointToken
}

// ToggleAllowCheckpointToken flips the public-checkpoint flag. Admin only.
func (d *Distributor) ToggleAllowCheckpointToken(caller types.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if caller != d.admin {
		return ErrPermissionDenied
	}
	d.allowCheckpointToken = !d.allowCheckpointToken
	if err := d.persistMeta(); err != nil {
		d.allowCheckpointToken = !d.allowCheckpointToken
		return err
	}
	d.log.Info("distributor: toggled public checkpoint",
		"allow_checkpoint_token", d.allowCheckpointToken)
	return nil
}

// CommitAdmin stages an admin rotation. Admin only. The rotation takes
// effect when ApplyAdmin is called.
func (d *Distributor) CommitAdmin(caller, next types.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if caller != d.admin {
		return ErrPermissionDenied
	}
	d.pendingAdmin = next
	d.log.Info("distributor: admin rotation committed", "next_admin", next.String())
	return nil
}

// ApplyAdmin completes a staged admin rotation. Admin only.
func (d *Distributor) ApplyAdmin(caller types.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if caller != d.admin {
		return ErrPermissionDenied
	}
	if d.pendingAdmin.IsZero() {
		return ErrNoPendingAdmin
	}

	previous := d.admin
	d.admin = d.pendingAdmin
	d.pendingAdmin = types.Address{}
	if err := d.persistMeta(); err != nil {
		d.pendingAdmin = d.admin
		d.admin = previous
		return err
	}
	d.log.Info("distributor: admin rotated",
		"previous", previous.String(), "admin", d.admin.String())
	return nil
}

// persistMeta writes the current identity to the store. Callers hold d.mu.
func (d *Distributor) persistMeta() error {
	err := d.store.SetMeta(&Meta{
		StartTime:            d.startTime,
		Admin:                d.admin,
		AllowCheckpointToken: d.allowCheckpointToken,
	})
	if err != nil {
		return fmt.Errorf("distributor: persist meta: %w", err)
	}
	return nil
}
