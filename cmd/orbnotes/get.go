package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <orb>",
		Short: "Show the note for an orb",
		Long: `Get prints the note for an orb. An orb without a note prints as empty.

Example:
  orbnotes get 42
  orbnotes get --json 42`,
		Args: cobra.ExactArgs(1),
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

			n, err := store.Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get note: %w", err)
			}
			return printNote(cmd.OutOrStdout(), id, n, f.json)
		},
	}
}
