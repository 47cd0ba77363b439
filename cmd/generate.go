package cmd

import (
	"fmt"

	"github.com/illarion/lockpass/internal/core"
	"github.com/illarion/lockpass/internal/generate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type generateFlags struct {
	length int
	alnum  bool
	show   bool
}

func (f *generateFlags) register(fs *pflag.FlagSet) {
	fs.IntVarP(&f.length, "length", "l", 0, "password length (default from config)")
	fs.BoolVarP(&f.alnum, "alnum", "a", false, "only letters and digits")
	fs.BoolVarP(&f.show, "show", "s", false, "print the password instead of copying it")
}

func newGenerateCmd(a *app) *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "generate <app> <username>",
		Short: "Generate and save a new password",
		Example: `  lockpass generate mail me@example.com
  lockpass generate bank 1234-5678 --alnum --length 16`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(args[0], args[1], flags)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func (a *app) runGenerate(name, username string, flags generateFlags) error {
	spec := a.generateSpec(flags.length, flags.alnum)
	if err := spec.Validate(); err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	password, err := generate.Generate(spec)
	if err != nil {
		return err
	}
	defer password.Erase()

	if err := store.Add(name, username, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Saved a new password for %s\n", success("✓"), highlight(name))
	a.deliver(name, password, flags.show)
	return nil
}

func newRegenerateCmd(a *app) *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:     "regenerate <app>",
		Short:   "Replace a saved password with a generated one",
		Example: `  lockpass regenerate mail`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRegenerate(args[0], flags)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func (a *app) runRegenerate(name string, flags generateFlags) error {
	spec := a.generateSpec(flags.length, flags.alnum)
	if err := spec.Validate(); err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	password, err := generate.Generate(spec)
	if err != nil {
		return err
	}
	defer password.Erase()

	record, err := store.Change(name, func(r core.Record) core.Record {
		r.Password = password
		return r
	})
	if err != nil {
		return err
	}
	record.Erase()

	fmt.Fprintf(a.out, "%s Saved a new password for %s\n", success("✓"), highlight(name))
	a.deliver(name, password, flags.show)
	return nil
}
