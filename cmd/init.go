package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/lockpass/internal/configs"
	"github.com/illarion/lockpass/internal/core"
	"github.com/illarion/lockpass/internal/git"
	"github.com/illarion/lockpass/internal/secret"
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new vault",
		Long: `Creates an empty vault at the configured path.

The master password is read twice from the terminal, or once from
$LOCKPASS_PASSWORD. If there is no config file yet, one is written
with the current settings so later commands find this vault.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit()
		},
	}
}

// newMasterPassphrase reads a new master password, confirmed unless it
// comes from the environment.
func (a *app) newMasterPassphrase() (*secret.Buffer, error) {
	if a.passphraseFromEnv() {
		return a.prompt.ReadMasterPassphrase()
	}
	return a.prompt.ReadConfirmed("New master password")
}

func (a *app) runInit() error {
	path := a.config.VaultPath
	if _, err := os.Stat(path); err == nil {
		return core.ErrAlreadyExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	passphrase, err := a.newMasterPassphrase()
	if err != nil {
		return err
	}
	defer passphrase.Erase()

	stop := a.startSpinner("Creating vault...")
	store, err := core.Create(path, passphrase, a.storeOptions()...)
	stop()
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(a.out, "%s Created vault %s\n", success("✓"), highlight(path))

	if err := a.writeDefaultConfig(); err != nil {
		a.log.Warnf("%v", err)
	}

	if status := git.CheckVault(path); status.Exposed() {
		fmt.Fprint(a.out, git.FormatVaultStatus(status, path))
	}
	return nil
}

// writeDefaultConfig saves the effective settings when no config file
// exists. An existing file is never touched.
func (a *app) writeDefaultConfig() error {
	if _, err := os.Stat(a.configPath); !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := configs.Save(a.configPath, a.config); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote settings to %s\n", highlight(a.configPath))
	return nil
}
