// Package keystore encrypts derived key material at rest: Argon2id password
// hardening feeding an XChaCha20-Poly1305 envelope over a fixed-layout
// serialization of the three private keys.
package keystore

import "fmt"

// RecordVersion tags the persisted envelope layout.
const RecordVersion = 1

// KeyTypeCombined marks records holding the full serialized key set.
const KeyTypeCombined = "combined"

// AlgorithmArgon2id is the only supported password-hardening algorithm.
const AlgorithmArgon2id = "argon2id"

// Params are the Argon2id cost parameters stored alongside a record so
// decryption always replays the exact hardening run.
type Params struct {
	Memory      uint32 `json:"memory"` // KiB
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
}

// EncryptedKeyRecord is the persisted envelope. Ciphertext is base64 of
// nonce || AEAD output; Salt is 32 hex chars (16 bytes).
type EncryptedKeyRecord struct {
	Version    int    `json:"version"`
	Ciphertext string `json:"ciphertext"`
	Salt       string `json:"salt"`
	Algorithm  string `json:"algorithm"`
	Params     Params `json:"params"`
	KeyType    string `json:"keyType"`
}

// Tier selects an Argon2id cost level, trading unlock latency for
// brute-force resistance.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// tierParams values are compatibility constants: the medium tier matches
// the envelope parameters the native apps write.
var tierParams = map[Tier]Params{
	TierLow:    {Memory: 19 * 1024, Iterations: 2, Parallelism: 1},
	TierMedium: {Memory: 64 * 1024, Iterations: 2, Parallelism: 1},
	TierHigh:   {Memory: 256 * 1024, Iterations: 3, Parallelism: 2},
}

// ParamsForTier resolves a tier name; unknown tiers are an error rather
// than a silent downgrade.
func ParamsForTier(tier Tier) (Params, error) {
	p, ok := tierParams[tier]
	if !ok {
		return Params{}, fmt.Errorf("unknown hardening tier %q", tier)
	}
	return p, nil
}
