package cmd

import (
	"fmt"

	"github.com/illarion/lockpass/internal/core"
	"github.com/spf13/cobra"
)

func newChangeCmd(a *app) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "change <app>",
		Short: "Replace a saved password with one you type",
		Example: `  lockpass change mail
  lockpass change mail --username new@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChange(args[0], username, cmd.Flags().Changed("username"))
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "also change the username")
	return cmd
}

func (a *app) runChange(name, username string, setUsername bool) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// Fail before asking for the new password
	existing, err := store.Get(name)
	if err != nil {
		return err
	}
	existing.Erase()

	password, err := a.prompt.ReadConfirmed("New password for " + name)
	if err != nil {
		return err
	}
	defer password.Erase()

	record, err := store.Change(name, func(r core.Record) core.Record {
		r.Password = password
		if setUsername {
			r.Username = username
		}
		return r
	})
	if err != nil {
		return err
	}
	record.Erase()

	fmt.Fprintf(a.out, "%s Changed the password for %s\n", success("✓"), highlight(name))
	return nil
}
