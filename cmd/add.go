package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "add <app> <username>",
		Short:   "Save a password you already have",
		Example: `  lockpass add mail me@example.com`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAdd(args[0], args[1])
		},
	}
}

func (a *app) runAdd(name, username string) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	password, err := a.prompt.ReadSecret("Password for " + name)
	if err != nil {
		return err
	}
	defer password.Erase()

	if err := store.Add(name, username, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Saved the password for %s\n", success("✓"), highlight(name))
	return nil
}
