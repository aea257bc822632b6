package vault

import (
	"context"
	"encoding/hex"

	"pulse-chat/go-client/internal/fingerprint"
	"pulse-chat/go-client/internal/keyimport"
	"pulse-chat/go-client/internal/keys"
	"pulse-chat/go-client/pkg/models"
)

// ExportSecretKey returns the protocol private key in its bech32 secret-key
// encoding. The password is always re-proven, even while unlocked.
func (v *Vault) ExportSecretKey(ctx context.Context, password string) (*models.ExportBundle, error) {
	return v.export(ctx, password, func(km *keys.KeyMaterial) (string, error) {
		return keyimport.ExportSecretKey(km.ProtocolPrivateKey)
	})
}

// ExportRawHex returns the protocol private key as bare hex. Maximally
// sensitive: the caller owns the only copy and must treat it like the key
// itself.
func (v *Vault) ExportRawHex(ctx context.Context, password string) (*models.ExportBundle, error) {
	return v.export(ctx, password, func(km *keys.KeyMaterial) (string, error) {
		return hex.EncodeToString(km.ProtocolPrivateKey), nil
	})
}

func (v *Vault) export(ctx context.Context, password string, encode func(*keys.KeyMaterial) (string, error)) (*models.ExportBundle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	km, err := v.decryptLocked(ctx, password)
	if err != nil {
		return nil, err
	}
	defer km.Wipe()

	data, err := encode(km)
	if err != nil {
		return nil, err
	}
	fp, err := fingerprint.New(km.ProtocolPublicKey)
	if err != nil {
		return nil, err
	}
	v.logger.Info("identity exported")
	return &models.ExportBundle{
		Data:        data,
		PublicKey:   hex.EncodeToString(km.ProtocolPublicKey),
		Fingerprint: fp.Hash,
		ExportedAt:  v.now().UnixMilli(),
	}, nil
}
