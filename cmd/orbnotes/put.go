package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/orbfield/notes"
)

func newPutCmd(f *flags) *cobra.Command {
	var title, body string
	cmd := &cobra.Command{
		Use:   "put <orb>",
		Short: "Write the note for an orb",
		Long: `Put replaces the note for an orb. The title is cut to 120 and the body
to 10000 characters.

Example:
  orbnotes put 42 --title "Vega" --body "bright, blue-white"`,
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

			in := notes.Input{Title: title, Body: body}
			if err := store.Put(cmd.Context(), id, in); err != nil {
				return fmt.Errorf("put note: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "note title")
	cmd.Flags().StringVarP(&body, "body", "b", "", "note body")
	return cmd
}
