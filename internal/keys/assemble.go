package keys

import (
	"crypto/ed25519"
	"errors"

	"golang.org/x/crypto/curve25519"
)

var ErrInvalidKeyMaterial = errors.New("key material has invalid layout")

// Assemble rebuilds a KeyMaterial from its three serialized private keys,
// recomputing the public halves. Inputs are copied, not retained.
func Assemble(protocolPriv, messagingPriv, exchangePriv []byte) (*KeyMaterial, error) {
	if len(protocolPriv) != ProtocolPrivateKeySize ||
		len(messagingPriv) != MessagingPrivateKeySize ||
		len(exchangePriv) != ExchangePrivateKeySize {
		return nil, ErrInvalidKeyMaterial
	}

	protocolPub, err := protocolPublicKey(protocolPriv)
	if err != nil {
		return nil, err
	}
	exchangePub, err := curve25519.X25519(exchangePriv, curve25519.Basepoint)
	if err != nil {
		return nil, err
	}

	messaging := append([]byte(nil), messagingPriv...)
	return &KeyMaterial{
		ProtocolPrivateKey:  append([]byte(nil), protocolPriv...),
		ProtocolPublicKey:   protocolPub,
		MessagingPrivateKey: messaging,
		MessagingPublicKey:  append([]byte(nil), messaging[ed25519.SeedSize:]...),
		ExchangePrivateKey:  append([]byte(nil), exchangePriv...),
		ExchangePublicKey:   exchangePub,
	}, nil
}
