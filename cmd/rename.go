package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rename <old> <new>",
		Short:   "Rename a saved password",
		Example: `  lockpass rename mail work-mail`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRename(args[0], args[1])
		},
	}
}

func (a *app) runRename(oldName, newName string) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Rename(oldName, newName); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Renamed %s to %s\n", success("✓"), highlight(oldName), highlight(newName))
	return nil
}
