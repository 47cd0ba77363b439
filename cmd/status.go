package cmd

import (
	"fmt"
	"time"

	"github.com/illarion/lockpass/internal/core"
	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/git"
	"github.com/illarion/lockpass/internal/keyring"
	"github.com/illarion/lockpass/internal/storage"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show vault file details without unlocking it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus()
		},
	}
}

func (a *app) runStatus() error {
	path := a.config.VaultPath
	header, err := core.ReadHeader(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Vault:    %s\n", highlight(path))
	fmt.Fprintf(a.out, "Format:   version %d\n", header.Version)
	fmt.Fprintf(a.out, "KDF:      %s\n", formatKDF(&header.KDF))

	if header.IsLegacy() {
		fmt.Fprintf(a.out, "%s legacy format, it will be upgraded the next time it is unlocked\n", warning("!"))
	} else {
		fmt.Fprintf(a.out, "ID:       %s\n", header.VaultID)
		fmt.Fprintf(a.out, "Created:  %s\n", header.Created.Format(time.RFC3339))
		fmt.Fprintf(a.out, "Modified: %s\n", header.Modified.Format(time.RFC3339))
		fmt.Fprintf(a.out, "Keyring:  %s\n", keyringState(header))
	}

	fmt.Fprint(a.out, git.FormatVaultStatus(git.CheckVault(path), path))
	return nil
}

func formatKDF(kdf *crypto.KDF) string {
	switch kdf.Algorithm {
	case crypto.Argon2id:
		return fmt.Sprintf("argon2id (time=%d, memory=%d KiB, threads=%d)", kdf.Iterations, kdf.Memory, kdf.Threads)
	case crypto.PBKDF2SHA256:
		return fmt.Sprintf("pbkdf2-sha256 (%d iterations)", kdf.Iterations)
	default:
		return string(kdf.Algorithm)
	}
}

func keyringState(header *storage.Header) string {
	if keyring.HasPassword(header.VaultID) {
		return "password stored"
	}
	return "not stored"
}
