package keyimport

import (
	"encoding/hex"

	"pulse-chat/go-client/internal/keys"
	"pulse-chat/go-client/internal/securemem"
)

// Result reports what Validate learned about an input without returning any
// key material. PublicKeyPreview is hex and only set for the plain formats;
// mnemonic previews are omitted because deriving them costs an Argon2id run.
type Result struct {
	Valid            bool
	Format           Format
	Err              error
	PublicKeyPreview string
}

// Validate classifies and checks input. Temporary private-key buffers
// created for the preview are wiped before returning.
func Validate(input string) Result {
	format := Detect(input)
	switch format {
	case FormatSecretKey:
		raw, err := ImportSecretKey(input)
		if err != nil {
			return Result{Format: format, Err: err}
		}
		return previewResult(format, raw)
	case FormatHex:
		raw, err := ImportHex(input)
		if err != nil {
			return Result{Format: format, Err: err}
		}
		return previewResult(format, raw)
	case FormatMnemonic:
		if _, err := normalizeMnemonic(input); err != nil {
			return Result{Format: format, Err: err}
		}
		return Result{Valid: true, Format: format}
	default:
		return Result{Format: FormatUnknown, Err: ErrUnrecognized}
	}
}

func previewResult(format Format, priv []byte) Result {
	defer securemem.Zero(priv)
	pub, err := keys.ProtocolPublicKey(priv)
	if err != nil {
		return Result{Format: format, Err: err}
	}
	return Result{Valid: true, Format: format, PublicKeyPreview: hex.EncodeToString(pub)}
}
