package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <orb>",
		Short: "Remove the note for an orb",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := noteID(args[0])
			if err != nil {
				return err
			}
			store, err := f.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete note: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}
