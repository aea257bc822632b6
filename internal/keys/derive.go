package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/curve25519"

	"pulse-chat/go-client/internal/securemem"
)

// Domain-separation labels. These are a compatibility contract with the
// native implementations; changing any byte changes every derived key.
const (
	labelProtocol  = "pulse/keys/protocol/v1"
	labelMessaging = "pulse/keys/messaging/v1"
	labelExchange  = "pulse/keys/exchange/v1"
)

var (
	ErrInvalidSeedLength = errors.New("seed must be exactly 32 bytes")
	ErrInvalidKeyLength  = errors.New("private key must be exactly 32 bytes")
)

// FromSeed derives the full key set from a 32-byte seed. The protocol
// private key is the labeled SHA-256 of the seed; the auxiliary keys derive
// from the protocol key so that importing a bare private key reproduces the
// same key set (see FromProtocolKey).
func FromSeed(seed []byte) (*KeyMaterial, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSeedLength, len(seed))
	}
	protocolPriv := subSeed(labelProtocol, seed)
	defer securemem.Zero(protocolPriv)
	return FromProtocolKey(protocolPriv)
}

// FromProtocolKey derives the full key set from the 32-byte protocol
// private key. This is the re-entry point for imported keys.
func FromProtocolKey(priv []byte) (*KeyMaterial, error) {
	if len(priv) != ProtocolPrivateKeySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(priv))
	}

	protocolPriv := append([]byte(nil), priv...)
	protocolPub, err := protocolPublicKey(protocolPriv)
	if err != nil {
		securemem.Zero(protocolPriv)
		return nil, err
	}

	messagingSeed := subSeed(labelMessaging, protocolPriv)
	messagingPriv := ed25519.NewKeyFromSeed(messagingSeed)
	securemem.Zero(messagingSeed)
	messagingPub := append([]byte(nil), messagingPriv[ed25519.SeedSize:]...)

	exchangePriv := subSeed(labelExchange, protocolPriv)
	exchangePub, err := curve25519.X25519(exchangePriv, curve25519.Basepoint)
	if err != nil {
		securemem.Zero(protocolPriv)
		securemem.Zero(messagingPriv)
		securemem.Zero(exchangePriv)
		return nil, err
	}

	return &KeyMaterial{
		ProtocolPrivateKey:  protocolPriv,
		ProtocolPublicKey:   protocolPub,
		MessagingPrivateKey: messagingPriv,
		MessagingPublicKey:  messagingPub,
		ExchangePrivateKey:  exchangePriv,
		ExchangePublicKey:   exchangePub,
	}, nil
}

// ProtocolPublicKey computes the 32-byte x-only public key for a protocol
// private key without deriving the rest of the key set. The temporary
// scalar is wiped before returning.
func ProtocolPublicKey(priv []byte) ([]byte, error) {
	if len(priv) != ProtocolPrivateKeySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(priv))
	}
	return protocolPublicKey(priv)
}

func protocolPublicKey(priv []byte) ([]byte, error) {
	sk := secp256k1.PrivKeyFromBytes(priv)
	defer sk.Zero()
	compressed := sk.PubKey().SerializeCompressed()
	// x-only encoding: drop the parity byte.
	return append([]byte(nil), compressed[1:]...), nil
}

// subSeed hashes label || secret into a fresh 32-byte sub-seed. Callers own
// the result and must wipe it.
func subSeed(label string, secret []byte) []byte {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write(secret)
	return h.Sum(nil)
}
