package keyimport

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"pulse-chat/go-client/internal/keys"
)

// ExportSecretKey encodes a 32-byte protocol private key as psec1…. Pure
// function, no storage I/O.
func ExportSecretKey(priv []byte) (string, error) {
	if len(priv) != keys.ProtocolPrivateKeySize {
		return "", fmt.Errorf("%w: %d bytes", ErrWrongLength, len(priv))
	}
	return encode(SecretKeyHRP, priv)
}

// ExportPublicKey encodes a 32-byte protocol public key as ppub1….
func ExportPublicKey(pub []byte) (string, error) {
	if len(pub) != keys.ProtocolPublicKeySize {
		return "", fmt.Errorf("%w: %d bytes", ErrWrongLength, len(pub))
	}
	return encode(PublicKeyHRP, pub)
}

func encode(hrp string, raw []byte) (string, error) {
	grouped, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, grouped)
}
