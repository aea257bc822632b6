package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"pulse-chat/go-client/internal/fingerprint"
	"pulse-chat/go-client/internal/keyimport"
	"pulse-chat/go-client/internal/vault"
	"pulse-chat/go-client/pkg/models"
)

// commandLoop reads line-oriented commands from r until EOF or ctx
// cancellation. Output goes to w; secrets are printed only on explicit
// export commands.
func commandLoop(ctx context.Context, v *vault.Vault, r io.Reader, w io.Writer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := dispatch(ctx, v, w, line); quit {
				return
			}
		}
	}
}

func dispatch(ctx context.Context, v *vault.Vault, w io.Writer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "help":
		printHelp(w)
	case "status":
		err = cmdStatus(ctx, v, w)
	case "generate":
		err = cmdGenerate(ctx, v, w, args)
	case "import":
		err = cmdImport(ctx, v, w, args)
	case "validate":
		err = cmdValidate(w, args)
	case "unlock":
		err = cmdUnlock(ctx, v, w, args)
	case "lock":
		v.Lock()
		fmt.Fprintln(w, "locked")
	case "verify":
		err = cmdVerify(ctx, v, w, args)
	case "passwd":
		err = cmdPasswd(ctx, v, w, args)
	case "fingerprint":
		err = cmdFingerprint(ctx, v, w)
	case "export-secret":
		err = cmdExport(ctx, v, w, args, v.ExportSecretKey)
	case "export-hex":
		err = cmdExport(ctx, v, w, args, v.ExportRawHex)
	case "rotate":
		err = cmdRotate(ctx, v, w, args)
	case "history":
		err = cmdHistory(ctx, v, w)
	case "wipe":
		err = cmdWipe(ctx, v, w, args)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(w, "unknown command %q, try help\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return false
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `commands:
  status                      identity and lock state
  generate <password>         create a fresh identity
  import <key> <password>     install an identity from psec1/hex/mnemonic
  validate <key>              check a key encoding without importing
  unlock <password>           decrypt and cache the key set
  lock                        wipe the cached key set
  verify <password>           check a password without unlocking
  passwd <old> <new>          change the password
  fingerprint                 show verification views of the identity
  export-secret <password>    export the secret key (psec1)
  export-hex <password>       export the secret key (hex)
  rotate <password>           archive the identity and mint a new one
  history                     list archived identities
  wipe confirm                delete all identity data
  quit
`)
}

func cmdStatus(ctx context.Context, v *vault.Vault, w io.Writer) error {
	identity, err := v.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	if identity == nil {
		fmt.Fprintln(w, "no identity stored")
		return nil
	}
	state := "locked"
	if v.IsUnlocked() {
		state = "unlocked"
	}
	fmt.Fprintf(w, "id:          %s\n", identity.ID)
	fmt.Fprintf(w, "public key:  %s\n", identity.PublicKeyEncoded)
	fmt.Fprintf(w, "fingerprint: %s\n", identity.Fingerprint)
	fmt.Fprintf(w, "state:       %s\n", state)
	return nil
}

func cmdGenerate(ctx context.Context, v *vault.Vault, w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: generate <password>")
	}
	identity, err := v.GenerateNewIdentity(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created %s\n", identity.ID)
	return nil
}

func cmdImport(ctx context.Context, v *vault.Vault, w io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: import <key> <password>")
	}
	// Mnemonic phrases span multiple fields; the password is the last one.
	input := strings.Join(args[:len(args)-1], " ")
	identity, err := v.ImportIdentity(ctx, input, args[len(args)-1])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "imported %s\n", identity.ID)
	return nil
}

func cmdValidate(w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: validate <key>")
	}
	res := keyimport.Validate(strings.Join(args, " "))
	if !res.Valid {
		fmt.Fprintf(w, "invalid %s input: %v\n", res.Format, res.Err)
		return nil
	}
	if res.PublicKeyPreview != "" {
		fmt.Fprintf(w, "valid %s input, public key %s\n", res.Format, res.PublicKeyPreview)
	} else {
		fmt.Fprintf(w, "valid %s input\n", res.Format)
	}
	return nil
}

func cmdUnlock(ctx context.Context, v *vault.Vault, w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unlock <password>")
	}
	if _, err := v.Load(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(w, "unlocked")
	return nil
}

func cmdVerify(ctx context.Context, v *vault.Vault, w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: verify <password>")
	}
	ok, err := v.VerifyPassword(ctx, args[0])
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(w, "password ok")
	} else {
		fmt.Fprintln(w, "wrong password")
	}
	return nil
}

func cmdPasswd(ctx context.Context, v *vault.Vault, w io.Writer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: passwd <old> <new>")
	}
	if err := v.ChangePassword(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(w, "password changed")
	return nil
}

func cmdFingerprint(ctx context.Context, v *vault.Vault, w io.Writer) error {
	identity, err := v.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	if identity == nil {
		return vault.ErrNoIdentity
	}
	fp, err := fingerprint.FromHex(identity.PublicKey)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", fp.HexGrouped)
	fmt.Fprintf(w, "%s\n", strings.Join(fp.Blocks, " "))
	fmt.Fprintf(w, "%s\n", fp.Emoji)
	fmt.Fprintf(w, "%s\n", strings.Join(fp.Words, " "))
	fmt.Fprintln(w, fp.Randomart)
	return nil
}

func cmdExport(ctx context.Context, v *vault.Vault, w io.Writer, args []string, export func(context.Context, string) (*models.ExportBundle, error)) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: export-secret|export-hex <password>")
	}
	bundle, err := export(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, bundle.Data)
	return nil
}

func cmdRotate(ctx context.Context, v *vault.Vault, w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rotate <password>")
	}
	identity, err := v.Rotate(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "rotated, new identity %s\n", identity.ID)
	return nil
}

func cmdHistory(ctx context.Context, v *vault.Vault, w io.Writer) error {
	entries, err := v.RotationHistory(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no archived identities")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s rotated_at=%d\n", e.Identity.ID, e.RotatedAt)
	}
	return nil
}

func cmdWipe(ctx context.Context, v *vault.Vault, w io.Writer, args []string) error {
	if len(args) != 1 || args[0] != "confirm" {
		return fmt.Errorf("wipe deletes all identity data; run: wipe confirm")
	}
	if err := v.WipeAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "wiped")
	return nil
}
