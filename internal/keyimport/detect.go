// Package keyimport parses, validates and exports external key material:
// bech32 secret-key encodings, raw hex private keys and mnemonic phrases.
package keyimport

import "strings"

// Format tags the recognized external key representations.
type Format int

const (
	FormatUnknown Format = iota
	FormatSecretKey
	FormatHex
	FormatMnemonic
)

func (f Format) String() string {
	switch f {
	case FormatSecretKey:
		return "secret-key"
	case FormatHex:
		return "hex"
	case FormatMnemonic:
		return "mnemonic"
	default:
		return "unknown"
	}
}

// Human-readable parts of the bech32 encodings. Compatibility constants.
const (
	SecretKeyHRP = "psec"
	PublicKeyHRP = "ppub"
)

const hexKeyLength = 64

var mnemonicWordCounts = map[int]struct{}{
	12: {}, 15: {}, 18: {}, 21: {}, 24: {},
}

// Detect classifies input by shape. Classification is order-independent:
// each matcher is exclusive, so a string with a foreign bech32 prefix is
// never reported as a secret key.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	switch {
	case looksLikeSecretKey(input):
		return FormatSecretKey
	case looksLikeHexKey(input):
		return FormatHex
	case looksLikeMnemonic(input):
		return FormatMnemonic
	default:
		return FormatUnknown
	}
}

func looksLikeSecretKey(input string) bool {
	lower := strings.ToLower(input)
	if !strings.HasPrefix(lower, SecretKeyHRP+"1") {
		return false
	}
	return len(lower) > len(SecretKeyHRP)+1
}

func looksLikeHexKey(input string) bool {
	if len(input) != hexKeyLength {
		return false
	}
	for _, c := range input {
		if !isHexDigit(c) {
			return false
		}
	}
	return true
}

func looksLikeMnemonic(input string) bool {
	words := strings.Fields(input)
	if _, ok := mnemonicWordCounts[len(words)]; !ok {
		return false
	}
	for _, w := range words {
		if !isWordShaped(w) {
			return false
		}
	}
	return true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isWordShaped(word string) bool {
	for _, c := range word {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return len(word) > 0
}
