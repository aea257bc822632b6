package keys

import "pulse-chat/go-client/internal/securemem"

// Key sizes, fixed by the identity scheme.
const (
	SeedSize = 32

	ProtocolPrivateKeySize  = 32
	ProtocolPublicKeySize   = 32 // x-only secp256k1 point
	MessagingPrivateKeySize = 64 // ed25519 seed || public
	MessagingPublicKeySize  = 32
	ExchangePrivateKeySize  = 32
	ExchangePublicKeySize   = 32
)

// KeyMaterial is the full derived key set for one identity. The three
// keypairs are deterministic functions of the protocol private key.
type KeyMaterial struct {
	ProtocolPrivateKey []byte
	ProtocolPublicKey  []byte

	MessagingPrivateKey []byte
	MessagingPublicKey  []byte

	ExchangePrivateKey []byte
	ExchangePublicKey  []byte
}

// Clone returns a deep copy so callers can hold key material independently
// of the vault cache slot.
func (km *KeyMaterial) Clone() *KeyMaterial {
	if km == nil {
		return nil
	}
	return &KeyMaterial{
		ProtocolPrivateKey:  append([]byte(nil), km.ProtocolPrivateKey...),
		ProtocolPublicKey:   append([]byte(nil), km.ProtocolPublicKey...),
		MessagingPrivateKey: append([]byte(nil), km.MessagingPrivateKey...),
		MessagingPublicKey:  append([]byte(nil), km.MessagingPublicKey...),
		ExchangePrivateKey:  append([]byte(nil), km.ExchangePrivateKey...),
		ExchangePublicKey:   append([]byte(nil), km.ExchangePublicKey...),
	}
}

// Wipe zeroes every private key slice in place. Public keys stay readable.
func (km *KeyMaterial) Wipe() {
	if km == nil {
		return
	}
	securemem.Zero(km.ProtocolPrivateKey)
	securemem.Zero(km.MessagingPrivateKey)
	securemem.Zero(km.ExchangePrivateKey)
}

// PrivateKeysZeroed reports whether every private key byte is zero.
func (km *KeyMaterial) PrivateKeysZeroed() bool {
	if km == nil {
		return true
	}
	return securemem.IsZero(km.ProtocolPrivateKey) &&
		securemem.IsZero(km.MessagingPrivateKey) &&
		securemem.IsZero(km.ExchangePrivateKey)
}
