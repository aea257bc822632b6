package models

import (
	"fmt"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"
)

// identityKeySize is the raw public key length the ID scheme accepts.
const identityKeySize = 32

// StoredIdentityVersion tags the persisted identity record layout.
const StoredIdentityVersion = 1

// IdentityIDPrefix precedes the base58 identity hash in user-facing IDs.
const IdentityIDPrefix = "pls1"

// StoredIdentity is the public, unencrypted half of an identity. It is
// immutable once written; rotation archives it and writes a fresh record.
type StoredIdentity struct {
	Version          int    `json:"version"`
	ID               string `json:"id"`
	PublicKey        string `json:"publicKey"`
	PublicKeyEncoded string `json:"publicKeyEncoded"`
	Fingerprint      string `json:"fingerprint"`
	CreatedAt        int64  `json:"createdAt"`
	AuxPublicKeyA    string `json:"auxPublicKeyA"`
	AuxPublicKeyB    string `json:"auxPublicKeyB"`
}

// RotationHistoryEntry is a superseded identity retained for audit.
type RotationHistoryEntry struct {
	Identity  StoredIdentity `json:"identity"`
	RotatedAt int64          `json:"rotatedAt"`
}

// ExportBundle carries one exported key representation. Data is secret for
// private-key exports and must never be logged.
type ExportBundle struct {
	Data        string `json:"data"`
	PublicKey   string `json:"publicKey"`
	Fingerprint string `json:"fingerprint"`
	ExportedAt  int64  `json:"exportedAt"`
}

// BuildIdentityID derives the user-facing identity ID from a 32-byte
// public key: prefix + base58(BLAKE2b-256(key)).
func BuildIdentityID(publicKey []byte) (string, error) {
	if len(publicKey) != identityKeySize {
		return "", fmt.Errorf("invalid public key size: %d", len(publicKey))
	}
	h := blake2b.Sum256(publicKey)
	return IdentityIDPrefix + base58.Encode(h[:]), nil
}

// VerifyIdentityID reports whether identityID was built from publicKey.
func VerifyIdentityID(identityID string, publicKey []byte) (bool, error) {
	expected, err := BuildIdentityID(publicKey)
	if err != nil {
		return false, err
	}
	return identityID == expected, nil
}
