// Package notes stores per-orb text notes.
//
// A Store is keyed by note id (the decimal orb index for notes attached to
// orbs). Reading an absent note yields an empty note, deleting is
// idempotent, and every write truncates the title and body before storing.
package notes

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Length limits in Unicode code points.
const (
	MaxTitle = 120
	MaxBody  = 10000
)

// KeyPrefix namespaces note keys in shared storage.
const KeyPrefix = "note:"

var (
	// ErrInvalidID is returned for ids that are empty, too long or contain
	// characters outside [A-Za-z0-9_-].
	ErrInvalidID = errors.New("notes: invalid id")

	idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Note is a stored note. UpdatedAt is Unix milliseconds; zero means the note
// has never been written.
type Note struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// Updated returns UpdatedAt as a time, or the zero time for an unwritten note.
func (n Note) Updated() time.Time {
	if n.UpdatedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(n.UpdatedAt).UTC()
}

// Empty reports whether the note has no content.
func (n Note) Empty() bool {
	return n.Title == "" && n.Body == ""
}

// Input is the user-editable part of a note.
type Input struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Store persists notes. Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (Note, error)
	Put(ctx context.Context, id string, in Input) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Clock returns the current time. Stores take one so tests can pin
// UpdatedAt.
type Clock func() time.Time

// OrbID returns the note id for orb index i.
func OrbID(i int) string {
	return strconv.Itoa(i)
}

// Key returns the storage key for id.
func Key(id string) string {
	return KeyPrefix + id
}

// ValidateID checks that id can be used as a note key.
func ValidateID(id string) error {
	err := validation.Validate(id,
		validation.Required,
		validation.Length(1, 64),
		validation.Match(idPattern),
	)
	if err != nil {
		return errors.Join(ErrInvalidID, err)
	}
	return nil
}

// Sanitize truncates the title to MaxTitle and the body to MaxBody code
// points. Invalid UTF-8 bytes are replaced rather than split.
func Sanitize(in Input) Input {
	return Input{
		Title: truncate(in.Title, MaxTitle),
		Body:  truncate(in.Body, MaxBody),
	}
}

// stamp builds the note stored for in at now.
func stamp(in Input, now time.Time) Note {
	in = Sanitize(in)
	return Note{Title: in.Title, Body: in.Body, UpdatedAt: now.UnixMilli()}
}

func truncate(s string, limit int) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
