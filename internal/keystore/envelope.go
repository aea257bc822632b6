package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"pulse-chat/go-client/internal/keys"
	"pulse-chat/go-client/internal/securemem"
)

const saltSize = 16

// maxHardeningMemoryKiB bounds the stored Argon2id memory cost so a
// tampered record cannot force a huge allocation during decryption.
const maxHardeningMemoryKiB = 4 * 1024 * 1024

// serializedSize is the fixed plaintext layout:
// protocol(32) || messaging(64) || exchange(32).
const serializedSize = keys.ProtocolPrivateKeySize +
	keys.MessagingPrivateKeySize + keys.ExchangePrivateKeySize

var (
	// ErrIncorrectPassword covers every authentication failure uniformly;
	// callers can never tell wrong password from tampered ciphertext.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrCorruptRecord means decryption succeeded but the plaintext layout
	// is impossible. Fatal, not retryable.
	ErrCorruptRecord = errors.New("decrypted key record has invalid layout")
)

// Encrypt serializes km and seals it under a password-derived key with a
// fresh random salt. The hardening key and the plaintext serialization are
// wiped before returning.
func Encrypt(km *keys.KeyMaterial, password string, tier Tier) (*EncryptedKeyRecord, error) {
	params, err := ParamsForTier(tier)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	key := hardenPassword(password, salt, params)
	defer securemem.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	plaintext := serialize(km)
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	securemem.Zero(plaintext)

	return &EncryptedKeyRecord{
		Version:    RecordVersion,
		Ciphertext: base64.StdEncoding.EncodeToString(append(nonce, ciphertext...)),
		Salt:       hex.EncodeToString(salt),
		Algorithm:  AlgorithmArgon2id,
		Params:     params,
		KeyType:    KeyTypeCombined,
	}, nil
}

// Decrypt re-derives the hardening key from the stored salt and parameters
// and opens the envelope. Every authentication or structural decode failure
// is reported as ErrIncorrectPassword.
func Decrypt(record *EncryptedKeyRecord, password string) (*keys.KeyMaterial, error) {
	if record == nil || record.Version != RecordVersion || record.Algorithm != AlgorithmArgon2id {
		return nil, ErrIncorrectPassword
	}
	// Stored params are untrusted input; argon2 panics on zero iterations
	// or lanes and requires 8 KiB of memory per lane.
	if p := record.Params; p.Iterations == 0 || p.Parallelism == 0 ||
		p.Memory < 8*uint32(p.Parallelism) || p.Memory > maxHardeningMemoryKiB {
		return nil, ErrIncorrectPassword
	}
	salt, err := hex.DecodeString(record.Salt)
	if err != nil || len(salt) != saltSize {
		return nil, ErrIncorrectPassword
	}
	sealed, err := base64.StdEncoding.DecodeString(record.Ciphertext)
	if err != nil || len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, ErrIncorrectPassword
	}
	nonce := sealed[:chacha20poly1305.NonceSizeX]
	ciphertext := sealed[chacha20poly1305.NonceSizeX:]

	key := hardenPassword(password, salt, record.Params)
	defer securemem.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrIncorrectPassword
	}
	defer securemem.Zero(plaintext)

	return deserialize(plaintext)
}

func hardenPassword(password string, salt []byte, params Params) []byte {
	return argon2.IDKey([]byte(password), salt,
		params.Iterations, params.Memory, params.Parallelism,
		chacha20poly1305.KeySize)
}

func serialize(km *keys.KeyMaterial) []byte {
	buf := make([]byte, 0, serializedSize)
	buf = append(buf, km.ProtocolPrivateKey...)
	buf = append(buf, km.MessagingPrivateKey...)
	buf = append(buf, km.ExchangePrivateKey...)
	return buf
}

func deserialize(plaintext []byte) (*keys.KeyMaterial, error) {
	if len(plaintext) != serializedSize {
		return nil, ErrCorruptRecord
	}
	protocolEnd := keys.ProtocolPrivateKeySize
	messagingEnd := protocolEnd + keys.MessagingPrivateKeySize
	km, err := keys.Assemble(
		plaintext[:protocolEnd],
		plaintext[protocolEnd:messagingEnd],
		plaintext[messagingEnd:],
	)
	if err != nil {
		return nil, ErrCorruptRecord
	}
	return km, nil
}
