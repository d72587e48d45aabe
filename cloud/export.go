package cloud

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// PointRecord is one cloud point flattened for CSV export.
type PointRecord struct {
	Shell string  `csv:"shell"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
	Z     float64 `csv:"z"`
	R     float64 `csv:"r"`
	G     float64 `csv:"g"`
	B     float64 `csv:"b"`
}

// Records flattens the cloud in shell order.
func (c *Cloud) Records() []PointRecord {
	out := make([]PointRecord, 0, c.Len())
	for _, s := range c.Shells {
		for _, p := range s.Points {
			out = append(out, PointRecord{
				Shell: s.Spec.Name,
				X:     p.Position.X,
				Y:     p.Position.Y,
				Z:     p.Position.Z,
				R:     p.Color.R,
				G:     p.Color.G,
				B:     p.Color.B,
			})
		}
	}
	return out
}

// WriteCSV writes every point with a header row.
func (c *Cloud) WriteCSV(w io.Writer) error {
	records := c.Records()
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("writing cloud csv: %w", err)
	}
	return nil
}
