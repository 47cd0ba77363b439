package cmd

import (
	"fmt"

	"github.com/illarion/lockpass/internal/keyring"
	"github.com/spf13/cobra"
)

func newPasswdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPasswd()
		},
	}
}

func (a *app) runPasswd() error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// Always typed: the environment holds the current password.
	next, err := a.prompt.ReadConfirmed("New master password")
	if err != nil {
		return err
	}
	defer next.Erase()

	stop := a.startSpinner("Re-encrypting vault...")
	err = store.ChangeMasterPassphrase(next)
	stop()
	if err != nil {
		return err
	}

	// Keep a cached password in step with the vault
	vaultID := store.Header().VaultID
	if keyring.HasPassword(vaultID) {
		if err := keyring.SavePassword(vaultID, next); err != nil {
			a.log.Errorf("could not update the keyring, it still holds the old password: %v", err)
		} else {
			fmt.Fprintln(a.out, "Keyring updated with new password")
		}
	}

	fmt.Fprintf(a.out, "%s Master password changed\n", success("✓"))
	return nil
}
