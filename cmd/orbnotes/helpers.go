package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pthm-cable/orbfield/notes"
)

// noteID maps an orb index or a raw id to a validated note id.
func noteID(arg string) (string, error) {
	id := arg
	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 {
			return "", fmt.Errorf("orb index %d is negative", i)
		}
		id = notes.OrbID(i)
	}
	if err := notes.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

type noteView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

func printNote(w io.Writer, id string, n notes.Note, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(noteView{ID: id, Title: n.Title, Body: n.Body, UpdatedAt: n.UpdatedAt})
	}
	if n.UpdatedAt == 0 {
		fmt.Fprintf(w, "%s: (no note)\n", id)
		return nil
	}
	fmt.Fprintf(w, "%s: %s\n", id, n.Title)
	fmt.Fprintf(w, "updated %s\n", n.Updated().Format(time.RFC3339))
	if n.Body != "" {
		fmt.Fprintf(w, "\n%s\n", n.Body)
	}
	return nil
}
