package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/orbfield/notes"
)

// noteRecord is one exported CSV row.
type noteRecord struct {
	ID        string `csv:"id"`
	Title     string `csv:"title"`
	Body      string `csv:"body"`
	UpdatedAt string `csv:"updated_at"`
}

func newExportCmd(f *flags) *cobra.Command {
	var count int
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every orb's note as CSV",
		Long: `Export reads the notes of orbs 0..count-1 and writes those that exist
as CSV. The count defaults to swarm.count from the config.

Example:
  orbnotes export --backend sqlite --out notes.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig()
			if err != nil {
				return err
			}
			if count <= 0 {
				count = cfg.Swarm.Count
			}
			store, err := f.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var records []noteRecord
			for i := 0; i < count; i++ {
				id := notes.OrbID(i)
				n, err := store.Get(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("get note %s: %w", id, err)
				}
				if n.UpdatedAt == 0 {
					continue
				}
				records = append(records, noteRecord{
					ID:        id,
					Title:     n.Title,
					Body:      n.Body,
					UpdatedAt: n.Updated().Format(time.RFC3339),
				})
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer file.Close()
				w = file
			}
			if err := gocsv.Marshal(records, w); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d notes\n", len(records))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of orbs to scan (default: swarm.count)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}
