package cmd

import (
	"errors"
	"fmt"

	"github.com/illarion/lockpass/internal/core"
	"github.com/illarion/lockpass/internal/keyring"
	"github.com/spf13/cobra"
)

func newKeyringCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyring",
		Short: "Cache the master password in the OS keyring",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save",
			Short: "Save the master password to the OS keyring",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runKeyringSave()
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the master password from the OS keyring",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runKeyringDelete()
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the master password is in the OS keyring",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runKeyringStatus()
			},
		},
	)
	return cmd
}

// runKeyringSave asks for the password and checks it against the vault
// before caching it.
func (a *app) runKeyringSave() error {
	path := a.config.VaultPath
	if _, err := core.ReadHeader(path); err != nil {
		return err
	}

	passphrase, err := a.prompt.ReadMasterPassphrase()
	if err != nil {
		return err
	}
	defer passphrase.Erase()

	store, err := a.unlock(path, passphrase)
	if err != nil {
		return err
	}
	defer store.Close()

	// Legacy vaults get their ID when Open upgrades them
	if err := keyring.SavePassword(store.Header().VaultID, passphrase); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Password saved to keyring\n", success("✓"))
	return nil
}

func (a *app) runKeyringDelete() error {
	header, err := core.ReadHeader(a.config.VaultPath)
	if err != nil {
		return err
	}

	if header.VaultID == "" {
		fmt.Fprintln(a.out, "No password stored in keyring")
		return nil
	}
	err = keyring.DeletePassword(header.VaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		fmt.Fprintln(a.out, "No password stored in keyring")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Password removed from keyring\n", success("✓"))
	return nil
}

func (a *app) runKeyringStatus() error {
	header, err := core.ReadHeader(a.config.VaultPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Password: %s\n", keyringState(header))
	return nil
}
