package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCmd(a *app) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "get <app>",
		Short: "Copy a password to the clipboard",
		Example: `  lockpass get mail
  lockpass get mail --show`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGet(args[0], show)
		},
	}
	cmd.Flags().BoolVarP(&show, "show", "s", false, "print the password instead of copying it")
	return cmd
}

func (a *app) runGet(name string, show bool) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.Get(name)
	if err != nil {
		return err
	}
	defer record.Erase()

	if record.Username != "" {
		fmt.Fprintf(a.out, "Username: %s\n", highlight(record.Username))
	}
	a.deliver(name, record.Password, show)
	return nil
}
