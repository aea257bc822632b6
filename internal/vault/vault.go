// Package vault is the identity lifecycle controller: it owns the single
// decrypted-key cache slot and orchestrates generation, import, unlock,
// export, rotation and wipe over the injected storage collaborator.
package vault

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pulse-chat/go-client/internal/fingerprint"
	"pulse-chat/go-client/internal/keyimport"
	"pulse-chat/go-client/internal/keys"
	"pulse-chat/go-client/internal/keystore"
	"pulse-chat/go-client/internal/platform/ratelimiter"
	"pulse-chat/go-client/internal/securemem"
	"pulse-chat/go-client/internal/storage"
	"pulse-chat/go-client/pkg/models"
)

var (
	ErrNoIdentity       = errors.New("no identity stored")
	ErrIdentityExists   = errors.New("an identity already exists; rotate or wipe first")
	ErrPasswordRequired = errors.New("password is required")
	ErrTooManyAttempts  = errors.New("password attempts are temporarily locked")

	// ErrIncorrectPassword is the uniform authentication failure; it never
	// distinguishes a wrong password from tampered ciphertext.
	ErrIncorrectPassword = keystore.ErrIncorrectPassword
)

const (
	recordKey  = "current"
	historyKey = "entries"

	// historyLimit bounds retained superseded identities.
	historyLimit = 10
)

// Vault is a constructor-injected service; callers hold one instance per
// logical identity. All mutating paths serialize on mu, so at most one
// password-hardening run is in flight per record.
type Vault struct {
	mu    sync.Mutex
	store storage.Store

	logger   *slog.Logger
	tier     keystore.Tier
	now      func() time.Time
	attempts *ratelimiter.AttemptLimiter
	backoff  *ratelimiter.Backoff

	cached *keys.KeyMaterial
}

// Option configures a Vault.
type Option func(*Vault)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) { v.logger = logger }
}

func WithTier(tier keystore.Tier) Option {
	return func(v *Vault) { v.tier = tier }
}

func WithAttemptLimiter(l *ratelimiter.AttemptLimiter) Option {
	return func(v *Vault) { v.attempts = l }
}

func withClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// New builds a vault over the given store.
func New(store storage.Store, opts ...Option) *Vault {
	v := &Vault{
		store:   store,
		logger:  slog.Default(),
		tier:    keystore.TierMedium,
		now:     time.Now,
		backoff: ratelimiter.NewBackoff(time.Second, 32*time.Second),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// GenerateNewIdentity creates a fresh random identity protected by
// password and leaves the vault unlocked.
func (v *Vault) GenerateNewIdentity(ctx context.Context, password string) (*models.StoredIdentity, error) {
	seed := make([]byte, keys.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	defer securemem.Zero(seed)
	return v.GenerateFromSeed(ctx, seed, password)
}

// GenerateFromSeed derives an identity from a caller-supplied 32-byte seed.
// The caller keeps ownership of seed and should wipe it after the call.
func (v *Vault) GenerateFromSeed(ctx context.Context, seed []byte, password string) (*models.StoredIdentity, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	km, err := keys.FromSeed(seed)
	if err != nil {
		return nil, err
	}
	return v.adoptKeyMaterial(ctx, km, password)
}

// GenerateFromMnemonic hardens a mnemonic phrase into a seed and derives an
// identity from it.
func (v *Vault) GenerateFromMnemonic(ctx context.Context, phrase, password, passphrase string) (*models.StoredIdentity, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	km, err := keyimport.ImportMnemonic(phrase, passphrase)
	if err != nil {
		return nil, err
	}
	return v.adoptKeyMaterial(ctx, km, password)
}

// ImportIdentity accepts any recognized external key representation
// (secret-key encoding, raw hex or mnemonic) and installs it as the
// identity.
func (v *Vault) ImportIdentity(ctx context.Context, input, password string) (*models.StoredIdentity, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	priv, format, err := keyimport.Import(input)
	if err != nil {
		return nil, err
	}
	if format == keyimport.FormatMnemonic {
		return v.GenerateFromMnemonic(ctx, input, password, "")
	}
	defer securemem.Zero(priv)
	km, err := keys.FromProtocolKey(priv)
	if err != nil {
		return nil, err
	}
	return v.adoptKeyMaterial(ctx, km, password)
}

// adoptKeyMaterial takes ownership of km: it is either cached on success or
// wiped on failure.
func (v *Vault) adoptKeyMaterial(ctx context.Context, km *keys.KeyMaterial, password string) (*models.StoredIdentity, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	existing, err := v.loadIdentityRecord(ctx)
	if err != nil {
		km.Wipe()
		return nil, err
	}
	if existing != nil {
		km.Wipe()
		return nil, ErrIdentityExists
	}

	identity, err := v.persistLocked(ctx, km, password)
	if err != nil {
		km.Wipe()
		return nil, err
	}

	v.setCacheLocked(km)
	v.backoff.Reset(recordKey)
	observeGeneration()
	v.logger.Info("identity created", "identity_id", identity.ID)
	return identity, nil
}

// persistLocked writes the encrypted record and the public metadata.
// Encryption and write behave as one step: if the metadata write fails the
// key record is rolled back so storage is left untouched.
func (v *Vault) persistLocked(ctx context.Context, km *keys.KeyMaterial, password string) (*models.StoredIdentity, error) {
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

	if err := v.store.Set(ctx, storage.TableKeys, recordKey, recordRaw); err != nil {
		return nil, fmt.Errorf("persist key record: %w", err)
	}
	if err := v.store.Set(ctx, storage.TableIdentity, recordKey, identityRaw); err != nil {
		_, _ = v.store.Delete(ctx, storage.TableKeys, recordKey)
		return nil, fmt.Errorf("persist identity: %w", err)
	}
	return identity, nil
}

// persistKeyRecordLocked re-encrypts km under password and replaces only
// the encrypted key record. Identity metadata is untouched: StoredIdentity
// is immutable outside rotation.
func (v *Vault) persistKeyRecordLocked(ctx context.Context, km *keys.KeyMaterial, password string) error {
	record, err := v.encryptRecord(km, password)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := v.store.Set(ctx, storage.TableKeys, recordKey, raw); err != nil {
		return fmt.Errorf("persist key record: %w", err)
	}
	return nil
}

func (v *Vault) encryptRecord(km *keys.KeyMaterial, password string) (*keystore.EncryptedKeyRecord, error) {
	start := v.now()
	record, err := keystore.Encrypt(km, password, v.tier)
	observeHardening(v.now().Sub(start))
	return record, err
}

func buildStoredIdentity(km *keys.KeyMaterial, now time.Time) (*models.StoredIdentity, error) {
	id, err := models.BuildIdentityID(km.ProtocolPublicKey)
	if err != nil {
		return nil, err
	}
	encoded, err := keyimport.ExportPublicKey(km.ProtocolPublicKey)
	if err != nil {
		return nil, err
	}
	fp, err := fingerprint.New(km.ProtocolPublicKey)
	if err != nil {
		return nil, err
	}
	return &models.StoredIdentity{
		Version:          models.StoredIdentityVersion,
		ID:               id,
		PublicKey:        hex.EncodeToString(km.ProtocolPublicKey),
		PublicKeyEncoded: encoded,
		Fingerprint:      fp.Hash,
		CreatedAt:        now.UnixMilli(),
		AuxPublicKeyA:    hex.EncodeToString(km.MessagingPublicKey),
		AuxPublicKeyB:    hex.EncodeToString(km.ExchangePublicKey),
	}, nil
}

// setCacheLocked installs km as the single cached key set, wiping any
// previous occupant first.
func (v *Vault) setCacheLocked(km *keys.KeyMaterial) {
	if v.cached != nil {
		v.cached.Wipe()
	}
	v.cached = km
}

func (v *Vault) loadIdentityRecord(ctx context.Context) (*models.StoredIdentity, error) {
	raw, err := v.store.Get(ctx, storage.TableIdentity, recordKey)
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var identity models.StoredIdentity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, fmt.Errorf("parse identity: %w", err)
	}
	return &identity, nil
}

func (v *Vault) loadKeyRecord(ctx context.Context) (*keystore.EncryptedKeyRecord, error) {
	raw, err := v.store.Get(ctx, storage.TableKeys, recordKey)
	if err != nil {
		return nil, fmt.Errorf("read key record: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var record keystore.EncryptedKeyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("parse key record: %w", err)
	}
	return &record, nil
}
