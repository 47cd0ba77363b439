package cmd

import (
	"io"
	"os"

	"github.com/illarion/lockpass/internal/clipboard"
	"github.com/illarion/lockpass/internal/configs"
	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/logging"
	"github.com/illarion/lockpass/internal/prompt"
	"github.com/spf13/cobra"
)

// app carries flags and collaborators shared by all commands.
type app struct {
	vaultFlag  string
	configFlag string
	verbose    bool
	debug      bool

	out    io.Writer
	errOut io.Writer
	log        *logging.Logger
	config     *configs.Config
	configPath string

	prompt    prompt.Port
	clipboard clipboard.Port
	newKDF    func() (*crypto.KDF, error)
	lookupEnv func(string) (string, bool)
}

// NewRootCmd builds the lockpass command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{
		out:       os.Stdout,
		errOut:    os.Stderr,
		lookupEnv: os.LookupEnv,
	})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lockpass",
		Short: "lockpass - a local, encrypted password manager",
		Long: `lockpass keeps your passwords in a single encrypted file.

The vault is sealed with a key derived from your master password using
Argon2id. Nothing leaves your machine; copied passwords go to the clipboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.vaultFlag, "file", "f", "", "vault file (default from config or $"+configs.EnvFile+")")
	root.PersistentFlags().StringVar(&a.configFlag, "config", "", "config file (default $XDG_CONFIG_HOME/lockpass/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "enable debug output")

	root.AddCommand(
		newInitCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newAddCmd(a),
		newGenerateCmd(a),
		newRegenerateCmd(a),
		newChangeCmd(a),
		newDeleteCmd(a),
		newRenameCmd(a),
		newPasswdCmd(a),
		newStatusCmd(a),
		newKeyringCmd(a),
	)
	return root
}

// setup resolves the logger, config, vault path and ports before any
// subcommand runs. Collaborators already set, as in tests, are kept.
func (a *app) setup() error {
	a.log = &logging.Logger{Verbose: a.verbose, Debug: a.debug, Out: a.errOut, Err: a.errOut}
	a.log.Debugf("starting with verbose=%t, debug=%t", a.verbose, a.debug)

	configPath := a.configFlag
	if configPath == "" {
		p, err := configs.DefaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	config, err := configs.Load(configPath)
	if err != nil {
		return err
	}
	config.ApplyEnv(a.lookupEnv)
	if a.vaultFlag != "" {
		config.VaultPath = a.vaultFlag
	}
	a.config = config
	a.configPath = configPath
	a.log.Debugf("config %s, vault %s", configPath, config.VaultPath)

	if a.prompt == nil {
		a.prompt = prompt.WithEnv(prompt.NewTerminal(), a.lookupEnv)
	}
	if a.clipboard == nil {
		if config.Clipboard.Enabled {
			a.clipboard = clipboard.NewSystem()
		} else {
			a.clipboard = clipboard.Disabled{}
		}
	}
	if a.newKDF == nil {
		a.newKDF = config.NewKDF
	}
	return nil
}
