// Package fingerprint derives deterministic, human-comparable
// representations of a public key for out-of-band verification. Every
// output is a pure function of the SHA-256 of the key; nothing here touches
// secret material and nothing is ever persisted.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	colorCount = 8
	emojiCount = 8
	wordCount  = 8
)

var ErrEmptyKey = errors.New("public key is empty")

// Fingerprint bundles every representation of one public key hash.
type Fingerprint struct {
	Hash       string   // hex, 64 chars
	HexGrouped string   // colon-separated byte pairs
	Blocks     []string // 4-char hex groups
	Colors     []string // 8 × #RRGGBB
	Emoji      string   // 8 symbols
	Randomart  string   // drunken-bishop grid
	Words      []string // 8 words from the fixed list
}

// New computes the fingerprint of a raw public key.
func New(publicKey []byte) (*Fingerprint, error) {
	if len(publicKey) == 0 {
		return nil, ErrEmptyKey
	}
	sum := sha256.Sum256(publicKey)
	return fromHash(sum[:]), nil
}

// FromHex computes the fingerprint of a hex-encoded public key.
func FromHex(publicKeyHex string) (*Fingerprint, error) {
	raw, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(publicKeyHex)))
	if err != nil {
		return nil, fmt.Errorf("invalid public key hex: %w", err)
	}
	return New(raw)
}

func fromHash(hash []byte) *Fingerprint {
	hexHash := hex.EncodeToString(hash)
	return &Fingerprint{
		Hash:       hexHash,
		HexGrouped: groupColons(hexHash),
		Blocks:     groupBlocks(hexHash),
		Colors:     colorPalette(hash),
		Emoji:      emojiSequence(hash),
		Randomart:  randomart(hash),
		Words:      wordSequence(hash),
	}
}

func groupColons(hexHash string) string {
	pairs := make([]string, 0, len(hexHash)/2)
	for i := 0; i+2 <= len(hexHash); i += 2 {
		pairs = append(pairs, hexHash[i:i+2])
	}
	return strings.Join(pairs, ":")
}

func groupBlocks(hexHash string) []string {
	blocks := make([]string, 0, len(hexHash)/4)
	for i := 0; i+4 <= len(hexHash); i += 4 {
		blocks = append(blocks, hexHash[i:i+4])
	}
	return blocks
}

// colorPalette maps consecutive 3-byte chunks of the hash to RGB colors.
func colorPalette(hash []byte) []string {
	colors := make([]string, 0, colorCount)
	for i := 0; i < colorCount; i++ {
		r, g, b := hash[i*3], hash[i*3+1], hash[i*3+2]
		colors = append(colors, fmt.Sprintf("#%02x%02x%02x", r, g, b))
	}
	return colors
}

func emojiSequence(hash []byte) string {
	var sb strings.Builder
	for i := 0; i < emojiCount; i++ {
		sb.WriteRune(emojiTable[int(hash[i])%len(emojiTable)])
	}
	return sb.String()
}

func wordSequence(hash []byte) []string {
	words := make([]string, 0, wordCount)
	for i := 0; i < wordCount; i++ {
		b := hash[len(hash)-wordCount+i]
		words = append(words, wordList[int(b)%len(wordList)])
	}
	return words
}
