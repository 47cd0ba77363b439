package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/illarion/lockpass/internal/core"
	"github.com/illarion/lockpass/internal/generate"
	"github.com/illarion/lockpass/internal/keyring"
	"github.com/illarion/lockpass/internal/prompt"
	"github.com/illarion/lockpass/internal/secret"
)

// startSpinner shows progress on stderr during key derivation. In verbose
// or debug mode the message is logged instead. The returned func stops it.
func (a *app) startSpinner(message string) func() {
	if a.verbose || a.debug {
		a.log.Infof("%s", message)
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.errOut))
	s.Suffix = " " + message
	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")
	s.Start()
	return s.Stop
}

func (a *app) storeOptions() []core.Option {
	return []core.Option{core.WithLogger(a.log), core.WithKDF(a.newKDF)}
}

func (a *app) passphraseFromEnv() bool {
	env, ok := a.prompt.(*prompt.Env)
	return ok && env.FromEnv()
}

// openStore unlocks the configured vault. A master password cached in the
// OS keyring is tried first; if it no longer opens the vault the user is
// asked instead.
func (a *app) openStore() (*core.Store, error) {
	path := a.config.VaultPath

	header, err := core.ReadHeader(path)
	if err != nil {
		return nil, err
	}

	if header.VaultID != "" && !a.passphraseFromEnv() {
		cached, err := keyring.GetPassword(header.VaultID)
		switch {
		case err == nil:
			store, err := a.unlock(path, cached)
			cached.Erase()
			if err == nil {
				a.log.Debugf("unlocked with keyring password")
				return store, nil
			}
			if !errors.Is(err, core.ErrWrongPasswordOrCorrupt) {
				return nil, err
			}
			a.log.Warnf("the password in the keyring no longer opens this vault")
		case !errors.Is(err, keyring.ErrNotFound):
			a.log.Debugf("keyring unavailable: %v", err)
		}
	}

	passphrase, err := a.prompt.ReadMasterPassphrase()
	if err != nil {
		return nil, err
	}
	defer passphrase.Erase()

	return a.unlock(path, passphrase)
}

func (a *app) unlock(path string, passphrase *secret.Buffer) (*core.Store, error) {
	stop := a.startSpinner("Unlocking vault...")
	defer stop()
	return core.Open(path, passphrase, a.storeOptions()...)
}

// deliver shows a password or puts it on the clipboard.
func (a *app) deliver(name string, password *secret.Buffer, show bool) {
	if show {
		fmt.Fprintln(a.out, password.String())
		return
	}

	if err := a.clipboard.Copy(password); err != nil {
		a.log.Debugf("clipboard: %v", err)
		fmt.Fprintf(a.out, "%s Could not copy the password to the clipboard. See it with %s\n",
			warning("!"), code("lockpass get "+name+" --show"))
		return
	}
	fmt.Fprintf(a.out, "%s Copied the password for %s to the clipboard. Paste it with %s.\n",
		success("✓"), highlight(name), a.clipboard.PasteShortcutDescription())
}

// generateSpec applies --length and --alnum on top of the configured spec.
func (a *app) generateSpec(length int, alnum bool) generate.Spec {
	spec := a.config.GeneratorSpec()
	if length != 0 {
		spec.Length = length
	}
	if alnum {
		spec.AllowSymbols = false
	}
	return spec
}

// errorMessage turns an error into a message and an optional hint.
func errorMessage(err error) (string, string) {
	switch {
	case errors.Is(err, core.ErrFileNotFound):
		return err.Error(), "Run 'lockpass init' to create a vault"
	case errors.Is(err, core.ErrAlreadyExists):
		return "a vault already exists at this path", "Use 'lockpass status' to see it"
	case errors.Is(err, core.ErrWrongPasswordOrCorrupt):
		return "wrong master password, or the vault file is damaged", ""
	case errors.Is(err, core.ErrUnsupportedFormat):
		return "this is not a lockpass vault, or it was written by a newer version", ""
	case errors.Is(err, core.ErrCorruptVault):
		return "the vault file is damaged: " + err.Error(), ""
	case errors.Is(err, core.ErrNotFound):
		return err.Error(), "Use 'lockpass list' to see saved passwords"
	case errors.Is(err, core.ErrDuplicateName):
		return err.Error(), "Use 'lockpass change' or 'lockpass regenerate' to update it"
	case errors.Is(err, core.ErrPersist):
		return "could not save the vault, nothing was changed: " + err.Error(), ""
	case errors.Is(err, prompt.ErrMismatch):
		return "passwords do not match", ""
	case errors.Is(err, generate.ErrEntropyUnavailable):
		return "could not generate a password: " + err.Error(), ""
	default:
		return err.Error(), ""
	}
}

// HandleError prints err for the user and exits with status 1.
func HandleError(err error) {
	msg, hint := errorMessage(err)
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Sprint("Error:"), msg)
	if hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	os.Exit(1)
}
