package vault

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"pulse-chat/go-client/internal/keys"
	"pulse-chat/go-client/internal/securemem"
	"pulse-chat/go-client/internal/storage"
	"pulse-chat/go-client/pkg/models"
)

// Rotate archives the current identity, forces a lock and generates a
// fresh identity protected by the same password.
func (v *Vault) Rotate(ctx context.Context, password string) (*models.StoredIdentity, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	current, err := v.loadIdentityRecord(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoIdentity
	}

	// Password must be proven before anything is replaced.
	km, err := v.decryptLocked(ctx, password)
	if err != nil {
		return nil, err
	}
	km.Wipe()

	// Forced lock: the superseded keys must not stay cached.
	if v.cached != nil {
		v.cached.Wipe()
		v.cached = nil
	}

	seed := make([]byte, keys.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	defer securemem.Zero(seed)
	fresh, err := keys.FromSeed(seed)
	if err != nil {
		return nil, err
	}

	identity, err := v.persistReplacingLocked(ctx, fresh, password, current)
	if err != nil {
		fresh.Wipe()
		return nil, err
	}
	v.setCacheLocked(fresh)
	observeRotation()
	v.logger.Info("identity rotated", "identity_id", identity.ID)
	return identity, nil
}

// persistReplacingLocked replaces both records and archives prev in the
// rotation history. Any failure restores the previous records, so a failed
// rotation leaves storage exactly as it was.
func (v *Vault) persistReplacingLocked(ctx context.Context, km *keys.KeyMaterial, password string, prev *models.StoredIdentity) (*models.StoredIdentity, error) {
	identity, err := buildStoredIdentity(km, v.now())
	if err != nil {
		return nil, err
	}
	record, err := v.encryptRecord(km, password)
	if err != nil {
		return nil, err
	}
	recordRaw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	identityRaw, err := json.Marshal(identity)
	if err != nil {
		return nil, err
	}
	prevIdentityRaw, err := json.Marshal(prev)
	if err != nil {
		return nil, err
	}
	prevRecordRaw, err := v.store.Get(ctx, storage.TableKeys, recordKey)
	if err != nil {
		return nil, fmt.Errorf("read key record: %w", err)
	}

	if err := v.store.Set(ctx, storage.TableKeys, recordKey, recordRaw); err != nil {
		return nil, fmt.Errorf("persist key record: %w", err)
	}
	if err := v.store.Set(ctx, storage.TableIdentity, recordKey, identityRaw); err != nil {
		v.restoreKeyRecordLocked(ctx, prevRecordRaw)
		return nil, fmt.Errorf("persist identity: %w", err)
	}
	// Archive only after the new records are durably written; a failed
	// rotation must not leave the still-current identity in history.
	if err := v.appendHistoryLocked(ctx, prev); err != nil {
		_ = v.store.Set(ctx, storage.TableIdentity, recordKey, prevIdentityRaw)
		v.restoreKeyRecordLocked(ctx, prevRecordRaw)
		return nil, err
	}
	return identity, nil
}

func (v *Vault) restoreKeyRecordLocked(ctx context.Context, prevRecordRaw []byte) {
	if prevRecordRaw == nil {
		_, _ = v.store.Delete(ctx, storage.TableKeys, recordKey)
		return
	}
	_ = v.store.Set(ctx, storage.TableKeys, recordKey, prevRecordRaw)
}

// RotationHistory returns archived identities, newest first.
func (v *Vault) RotationHistory(ctx context.Context) ([]models.RotationHistoryEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadHistoryLocked(ctx)
}

func (v *Vault) appendHistoryLocked(ctx context.Context, identity *models.StoredIdentity) error {
	entries, err := v.loadHistoryLocked(ctx)
	if err != nil {
		return err
	}
	entry := models.RotationHistoryEntry{
		Identity:  *identity,
		RotatedAt: v.now().UnixMilli(),
	}
	entries = append([]models.RotationHistoryEntry{entry}, entries...)
	if len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := v.store.Set(ctx, storage.TableHistory, historyKey, raw); err != nil {
		return fmt.Errorf("persist rotation history: %w", err)
	}
	return nil
}

func (v *Vault) loadHistoryLocked(ctx context.Context) ([]models.RotationHistoryEntry, error) {
	raw, err := v.store.Get(ctx, storage.TableHistory, historyKey)
	if err != nil {
		return nil, fmt.Errorf("read rotation history: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var entries []models.RotationHistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse rotation history: %w", err)
	}
	return entries, nil
}

// WipeAll deletes every persisted record and clears the cache. Terminal
// until a new identity is generated or imported.
func (v *Vault) WipeAll(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cached != nil {
		v.cached.Wipe()
		v.cached = nil
	}
	for _, table := range []string{storage.TableKeys, storage.TableIdentity, storage.TableHistory} {
		if err := v.store.Clear(ctx, table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}
	v.backoff.Reset(recordKey)
	v.logger.Info("identity data wiped")
	return nil
}
