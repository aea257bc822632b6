package keyimport

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/argon2"

	"pulse-chat/go-client/internal/keys"
	"pulse-chat/go-client/internal/securemem"
)

// Import failure modes. Messages never carry key bytes.
var (
	ErrMalformedEncoding = errors.New("malformed key encoding")
	ErrBadChecksum       = errors.New("invalid encoding checksum")
	ErrWrongLength       = errors.New("decoded key has wrong length")
	ErrWrongPrefix       = errors.New("unrecognized encoding prefix")
	ErrNotHex            = errors.New("input contains non-hex characters")
	ErrWordCount         = errors.New("mnemonic must have 12, 15, 18, 21 or 24 words")
	ErrMalformedWord     = errors.New("mnemonic contains malformed words")
	ErrUnrecognized      = errors.New("unrecognized key format")
)

// Mnemonic hardening parameters. Compatibility constants: the native apps
// run the same Argon2id configuration to reach the same seed.
const (
	mnemonicSaltLabel   = "pulse/mnemonic/v1"
	mnemonicArgonTime   = 2
	mnemonicArgonMemKB  = 64 * 1024
	mnemonicArgonLanes  = 1
	mnemonicSeedLength  = 32
	mnemonicSaltLength  = 16
	generatedEntropyBit = 256 // 24-word backup phrases
)

// ImportSecretKey decodes a psec1 bech32 string into the 32-byte protocol
// private key. The caller owns the result and must wipe it.
func ImportSecretKey(input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	hrp, grouped, err := bech32.Decode(input)
	if err != nil {
		var chk bech32.ErrInvalidChecksum
		if errors.As(err, &chk) {
			return nil, ErrBadChecksum
		}
		return nil, ErrMalformedEncoding
	}
	if hrp != SecretKeyHRP {
		return nil, fmt.Errorf("%w: %q", ErrWrongPrefix, hrp)
	}
	raw, err := bech32.ConvertBits(grouped, 5, 8, false)
	if err != nil {
		return nil, ErrMalformedEncoding
	}
	if len(raw) != keys.ProtocolPrivateKeySize {
		securemem.Zero(raw)
		return nil, fmt.Errorf("%w: %d bytes", ErrWrongLength, len(raw))
	}
	return raw, nil
}

// ImportHex decodes a 64-character hex string into the 32-byte protocol
// private key. The caller owns the result and must wipe it.
func ImportHex(input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	if len(input) != hexKeyLength {
		return nil, fmt.Errorf("%w: %d characters", ErrWrongLength, len(input))
	}
	raw, err := hex.DecodeString(strings.ToLower(input))
	if err != nil {
		return nil, ErrNotHex
	}
	return raw, nil
}

// ImportMnemonic hardens a mnemonic phrase into a seed and derives the full
// key set. Validation is structural; the wordlist is not checked.
func ImportMnemonic(phrase, passphrase string) (*keys.KeyMaterial, error) {
	normalized, err := normalizeMnemonic(phrase)
	if err != nil {
		return nil, err
	}
	seed := mnemonicSeed(normalized, passphrase)
	defer securemem.Zero(seed)
	return keys.FromSeed(seed)
}

// Import parses any recognized representation. Plain formats return the raw
// 32-byte private key; the mnemonic path must go through ImportMnemonic
// because it produces a full derivation rather than a bare key.
func Import(input string) ([]byte, Format, error) {
	switch f := Detect(input); f {
	case FormatSecretKey:
		raw, err := ImportSecretKey(input)
		return raw, f, err
	case FormatHex:
		raw, err := ImportHex(input)
		return raw, f, err
	case FormatMnemonic:
		return nil, f, nil
	default:
		return nil, FormatUnknown, ErrUnrecognized
	}
}

// GenerateMnemonic produces a fresh 24-word backup phrase.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(generatedEntropyBit)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func normalizeMnemonic(phrase string) (string, error) {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(phrase)))
	if _, ok := mnemonicWordCounts[len(words)]; !ok {
		return "", fmt.Errorf("%w: got %d", ErrWordCount, len(words))
	}
	for _, w := range words {
		if !isWordShaped(w) {
			return "", ErrMalformedWord
		}
	}
	return strings.Join(words, " "), nil
}

// mnemonicSeed stretches the phrase with Argon2id. The salt is derived
// deterministically from the passphrase so the mapping is reproducible
// across devices.
func mnemonicSeed(normalized, passphrase string) []byte {
	h := sha256.New()
	h.Write([]byte(mnemonicSaltLabel))
	h.Write([]byte(passphrase))
	salt := h.Sum(nil)[:mnemonicSaltLength]
	return argon2.IDKey([]byte(normalized), salt, mnemonicArgonTime, mnemonicArgonMemKB, mnemonicArgonLanes, mnemonicSeedLength)
}
