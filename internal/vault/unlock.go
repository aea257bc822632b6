package vault

import (
	"context"
	"errors"

	"pulse-chat/go-client/internal/keys"
	"pulse-chat/go-client/internal/keystore"
	"pulse-chat/go-client/pkg/models"
)

// Load decrypts the stored key record and caches the result. While the
// vault is already unlocked it returns the cached key set without running
// the hardening function again.
func (v *Vault) Load(ctx context.Context, password string) (*keys.KeyMaterial, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cached != nil {
		return v.cached, nil
	}

	km, err := v.decryptLocked(ctx, password)
	if err != nil {
		return nil, err
	}
	v.setCacheLocked(km)
	v.logger.Info("identity unlocked")
	return v.cached, nil
}

// Lock wipes the cached key material in place, so references handed out by
// Load observe zeroed private keys. Idempotent.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cached == nil {
		return
	}
	v.cached.Wipe()
	v.cached = nil
	v.logger.Info("identity locked")
}

// IsUnlocked reports whether key material is cached.
func (v *Vault) IsUnlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cached != nil
}

// HasIdentity reports whether a stored identity exists.
func (v *Vault) HasIdentity(ctx context.Context) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	identity, err := v.loadIdentityRecord(ctx)
	return identity != nil, err
}

// CurrentIdentity returns the stored public identity, or nil when none
// exists.
func (v *Vault) CurrentIdentity(ctx context.Context) (*models.StoredIdentity, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadIdentityRecord(ctx)
}

// VerifyPassword decrypts and immediately wipes; the cache is untouched.
// A wrong password is reported as (false, nil).
func (v *Vault) VerifyPassword(ctx context.Context, password string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	km, err := v.decryptLocked(ctx, password)
	if err != nil {
		if errors.Is(err, ErrIncorrectPassword) {
			return false, nil
		}
		return false, err
	}
	km.Wipe()
	return true, nil
}

// ChangePassword re-encrypts the key record under a new password with a
// fresh salt, replacing the stored record in one write. The identity
// record is not touched. No error path leaves key material decryptable by
// neither password.
func (v *Vault) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	km, err := v.decryptLocked(ctx, oldPassword)
	if err != nil {
		return err
	}
	defer km.Wipe()

	if err := v.persistKeyRecordLocked(ctx, km, newPassword); err != nil {
		return err
	}
	v.logger.Info("password changed")
	return nil
}

// decryptLocked runs the throttled, backoff-guarded decryption path shared
// by Load, VerifyPassword, ChangePassword, exports and Rotate. The caller
// owns the returned key material.
func (v *Vault) decryptLocked(ctx context.Context, password string) (*keys.KeyMaterial, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	record, err := v.loadKeyRecord(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNoIdentity
	}

	now := v.now()
	if !v.backoff.Allow(recordKey, now) {
		return nil, ErrTooManyAttempts
	}
	if !v.attempts.Allow(recordKey, now) {
		return nil, ErrTooManyAttempts
	}

	start := v.now()
	km, err := keystore.Decrypt(record, password)
	observeHardening(v.now().Sub(start))
	if err != nil {
		if errors.Is(err, keystore.ErrIncorrectPassword) {
			v.backoff.Fail(recordKey, v.now())
			observeUnlock(false)
			v.logger.Warn("authentication failed", "attempt", v.backoff.Failures(recordKey))
		}
		return nil, err
	}
	v.backoff.Reset(recordKey)
	observeUnlock(true)
	return km, nil
}
