package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <app>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved password",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDelete(args[0])
		},
	}
}

func (a *app) runDelete(name string) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.Delete(name)
	if err != nil {
		return err
	}
	record.Erase()

	fmt.Fprintf(a.out, "%s Deleted the password for %s\n", success("✓"), highlight(name))
	return nil
}
