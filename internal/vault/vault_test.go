package vault

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pulse-chat/go-client/internal/keystore"
	"pulse-chat/go-client/internal/storage"
)

// fakeClock lets tests step past the failed-attempt backoff window.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestVault(t *testing.T) (*Vault, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	v := New(storage.NewMemStore(),
		WithTier(keystore.TierLow),
		withClock(clock.Now),
	)
	return v, clock
}

func TestGenerateAndUnlock(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)

	identity, err := v.GenerateNewIdentity(ctx, "hunter2")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(identity.ID, "pls1") {
		t.Fatalf("identity id %q lacks prefix", identity.ID)
	}
	if !v.IsUnlocked() {
		t.Fatal("vault should be unlocked after generation")
	}

	km, err := v.Load(ctx, "hunter2")
	if err != nil {
		t.Fatalf("load while unlocked: %v", err)
	}
	if km.PrivateKeysZeroed() {
		t.Fatal("cached keys should be live")
	}

	v.Lock()
	if v.IsUnlocked() {
		t.Fatal("vault should be locked")
	}
	// References handed out before Lock observe the wipe.
	if !km.PrivateKeysZeroed() {
		t.Fatal("lock must zero previously returned key material")
	}
}

func TestGenerateRejectsSecondIdentity(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)
	if _, err := v.GenerateNewIdentity(ctx, "pw"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := v.GenerateNewIdentity(ctx, "pw"); !errors.Is(err, ErrIdentityExists) {
		t.Fatalf("want ErrIdentityExists, got %v", err)
	}
}

func TestWrongThenCorrectPassword(t *testing.T) {
	ctx := context.Background()
	v, clock := newTestVault(t)
	if _, err := v.GenerateNewIdentity(ctx, "correct horse"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	v.Lock()

	if _, err := v.Load(ctx, "battery staple"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("want ErrIncorrectPassword, got %v", err)
	}
	if v.IsUnlocked() {
		t.Fatal("failed unlock must not cache anything")
	}

	// A retry inside the backoff window is refused outright.
	if _, err := v.Load(ctx, "correct horse"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("want ErrTooManyAttempts, got %v", err)
	}

	clock.Advance(2 * time.Second)
	if _, err := v.Load(ctx, "correct horse"); err != nil {
		t.Fatalf("unlock after backoff: %v", err)
	}
	if !v.IsUnlocked() {
		t.Fatal("vault should be unlocked")
	}
}

func TestEmptyPasswordRejected(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)
	if _, err := v.GenerateNewIdentity(ctx, ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("generate: want ErrPasswordRequired, got %v", err)
	}
	if _, err := v.Load(ctx, ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("load: want ErrPasswordRequired, got %v", err)
	}
}

func TestLoadWithoutIdentity(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)
	if _, err := v.Load(ctx, "pw"); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("want ErrNoIdentity, got %v", err)
	}
}

func TestExportThenReimportPreservesPublicKey(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)
	original, err := v.GenerateNewIdentity(ctx, "pw")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	bundle, err := v.ExportSecretKey(ctx, "pw")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(bundle.Data, "psec1") {
		t.Fatalf("export data %q lacks secret-key prefix", bundle.Data)
	}
	if bundle.PublicKey != original.PublicKey {
		t.Fatalf("bundle public key %q != identity %q", bundle.PublicKey, original.PublicKey)
	}

	if err := v.WipeAll(ctx); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	restored, err := v.ImportIdentity(ctx, bundle.Data, "new password")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if restored.PublicKey != original.PublicKey {
		t.Fatal("restored identity must reproduce the original public key")
	}
	if restored.ID != original.ID {
		t.Fatal("restored identity must reproduce the original id")
	}
	if restored.AuxPublicKeyA != original.AuxPublicKeyA || restored.AuxPublicKeyB != original.AuxPublicKeyB {
		t.Fatal("restored identity must reproduce the derived auxiliary keys")
	}
}

func TestHexImportIsDeterministic(t *testing.T) {
	ctx := context.Background()
	hexKey := strings.Repeat("a", 64)

	v1, _ := newTestVault(t)
	first, err := v1.ImportIdentity(ctx, hexKey, "pw")
	if err != nil {
		t.Fatalf("first import: %v", err)
	}

	v2, _ := newTestVault(t)
	second, err := v2.ImportIdentity(ctx, hexKey, "other pw")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if first.PublicKey != second.PublicKey || first.ID != second.ID {
		t.Fatal("same hex key must yield the same identity")
	}
}

func TestMnemonicImportRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("mnemonic hardening is slow")
	}
	ctx := context.Background()
	phrase := "legal winner thank year wave sausage worth useful legal winner thank yellow"

	v1, _ := newTestVault(t)
	first, err := v1.ImportIdentity(ctx, phrase, "pw")
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	v2, _ := newTestVault(t)
	second, err := v2.GenerateFromMnemonic(ctx, phrase, "pw", "")
	if err != nil {
		t.Fatalf("generate from mnemonic: %v", err)
	}
	if first.PublicKey != second.PublicKey {
		t.Fatal("mnemonic must derive the same identity on both paths")
	}
}

func TestVerifyPassword(t *testing.T) {
	ctx := context.Background()
	v, clock := newTestVault(t)
	if _, err := v.GenerateNewIdentity(ctx, "pw"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	ok, err := v.VerifyPassword(ctx, "pw")
	if err != nil || !ok {
		t.Fatalf("verify correct: ok=%v err=%v", ok, err)
	}
	if !v.IsUnlocked() {
		t.Fatal("verify must not touch the cache")
	}

	ok, err = v.VerifyPassword(ctx, "nope")
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password reported as valid")
	}

	clock.Advance(2 * time.Second)
	ok, err = v.VerifyPassword(ctx, "pw")
	if err != nil || !ok {
		t.Fatalf("verify after failure: ok=%v err=%v", ok, err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	v, clock := newTestVault(t)
	original, err := v.GenerateNewIdentity(ctx, "old pw")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := v.ChangePassword(ctx, "old pw", "new pw"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	v.Lock()

	if _, err := v.Load(ctx, "old pw"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("old password should fail, got %v", err)
	}
	clock.Advance(2 * time.Second)
	if _, err := v.Load(ctx, "new pw"); err != nil {
		t.Fatalf("load with new password: %v", err)
	}
	identity, err := v.CurrentIdentity(ctx)
	if err != nil {
		t.Fatalf("current identity: %v", err)
	}
	if identity.PublicKey != original.PublicKey {
		t.Fatal("password change must not alter the identity")
	}
	if identity.ID != original.ID {
		t.Fatal("password change must not alter the identity id")
	}
	if identity.CreatedAt != original.CreatedAt {
		t.Fatalf("password change must not alter CreatedAt: got %d, want %d",
			identity.CreatedAt, original.CreatedAt)
	}
}

func TestRotationHistoryBound(t *testing.T) {
	if testing.Short() {
		t.Skip("repeated hardening is slow")
	}
	ctx := context.Background()
	v, _ := newTestVault(t)
	identity, err := v.GenerateNewIdentity(ctx, "pw")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	seen := []string{identity.ID}
	for i := 0; i < historyLimit+2; i++ {
		next, err := v.Rotate(ctx, "pw")
		if err != nil {
			t.Fatalf("rotate %d: %v", i, err)
		}
		if next.ID == seen[len(seen)-1] {
			t.Fatal("rotation must mint a new identity")
		}
		seen = append(seen, next.ID)
	}

	history, err := v.RotationHistory(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != historyLimit {
		t.Fatalf("history length %d, want %d", len(history), historyLimit)
	}
	// Newest first: the last superseded identity leads.
	if history[0].Identity.ID != seen[len(seen)-2] {
		t.Fatal("history[0] should be the most recently superseded identity")
	}
	for i, entry := range history {
		want := seen[len(seen)-2-i]
		if entry.Identity.ID != want {
			t.Fatalf("history[%d] = %s, want %s", i, entry.Identity.ID, want)
		}
	}
}

func TestRotateRequiresPassword(t *testing.T) {
	ctx := context.Background()
	v, clock := newTestVault(t)
	if _, err := v.GenerateNewIdentity(ctx, "pw"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := v.Rotate(ctx, "wrong"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("want ErrIncorrectPassword, got %v", err)
	}
	history, err := v.RotationHistory(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatal("failed rotation must not archive anything")
	}
	clock.Advance(2 * time.Second)
	if _, err := v.Rotate(ctx, "pw"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
}

// flakyStore fails Set for selected tables while delegating everything
// else to the embedded in-memory store.
type flakyStore struct {
	*storage.MemStore
	failSets map[string]error
}

func (s *flakyStore) Set(ctx context.Context, table, key string, value []byte) error {
	if err, ok := s.failSets[table]; ok {
		return err
	}
	return s.MemStore.Set(ctx, table, key, value)
}

func newFlakyVault(t *testing.T) (*Vault, *flakyStore) {
	t.Helper()
	clock := newFakeClock()
	store := &flakyStore{MemStore: storage.NewMemStore(), failSets: map[string]error{}}
	v := New(store, WithTier(keystore.TierLow), withClock(clock.Now))
	return v, store
}

func TestRotateRollsBackOnIdentityWriteFailure(t *testing.T) {
	ctx := context.Background()
	v, store := newFlakyVault(t)
	original, err := v.GenerateNewIdentity(ctx, "pw")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	store.failSets[storage.TableIdentity] = errors.New("disk full")
	if _, err := v.Rotate(ctx, "pw"); err == nil {
		t.Fatal("rotate should surface the write failure")
	}
	delete(store.failSets, storage.TableIdentity)

	identity, err := v.CurrentIdentity(ctx)
	if err != nil {
		t.Fatalf("current identity: %v", err)
	}
	if identity == nil || identity.ID != original.ID {
		t.Fatal("failed rotation must leave the original identity current")
	}
	history, err := v.RotationHistory(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatal("failed rotation must not archive anything")
	}
	if _, err := v.Load(ctx, "pw"); err != nil {
		t.Fatalf("original password must still unlock: %v", err)
	}
}

func TestRotateRollsBackOnHistoryWriteFailure(t *testing.T) {
	ctx := context.Background()
	v, store := newFlakyVault(t)
	original, err := v.GenerateNewIdentity(ctx, "pw")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	store.failSets[storage.TableHistory] = errors.New("disk full")
	if _, err := v.Rotate(ctx, "pw"); err == nil {
		t.Fatal("rotate should surface the history write failure")
	}
	delete(store.failSets, storage.TableHistory)

	identity, err := v.CurrentIdentity(ctx)
	if err != nil {
		t.Fatalf("current identity: %v", err)
	}
	if identity == nil || identity.ID != original.ID {
		t.Fatal("failed rotation must restore the original identity")
	}
	history, err := v.RotationHistory(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatal("failed rotation must not archive anything")
	}
	if _, err := v.Load(ctx, "pw"); err != nil {
		t.Fatalf("original password must still unlock: %v", err)
	}
}

func TestWipeAll(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)
	if _, err := v.GenerateNewIdentity(ctx, "pw"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	km, err := v.Load(ctx, "pw")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := v.WipeAll(ctx); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if !km.PrivateKeysZeroed() {
		t.Fatal("wipe must zero cached key material")
	}
	if v.IsUnlocked() {
		t.Fatal("vault should be locked after wipe")
	}
	has, err := v.HasIdentity(ctx)
	if err != nil {
		t.Fatalf("has identity: %v", err)
	}
	if has {
		t.Fatal("identity should be gone")
	}
	identity, err := v.CurrentIdentity(ctx)
	if err != nil {
		t.Fatalf("current identity: %v", err)
	}
	if identity != nil {
		t.Fatal("current identity should be nil after wipe")
	}
	history, err := v.RotationHistory(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history != nil {
		t.Fatal("history should be gone after wipe")
	}

	// The slate is clean: a new identity can be generated.
	if _, err := v.GenerateNewIdentity(ctx, "pw2"); err != nil {
		t.Fatalf("generate after wipe: %v", err)
	}
}
