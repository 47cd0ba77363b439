package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved passwords",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList()
		},
	}
}

func (a *app) runList() error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summaries := store.List()
	if len(summaries) == 0 {
		fmt.Fprintln(a.out, "No passwords saved yet")
		fmt.Fprintf(a.out, "Use %s to add one\n", code("lockpass add <app> <username>"))
		return nil
	}

	width := 0
	for _, s := range summaries {
		width = max(width, len(s.Name))
	}
	for _, s := range summaries {
		fmt.Fprintf(a.out, "  %-*s  %s\n", width, s.Name, muted(s.Username))
	}
	return nil
}
