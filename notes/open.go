package notes

import (
	"fmt"
	"time"
)

// Backends accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Options selects and configures a Store backend.
type Options struct {
	Backend       string
	SQLitePath    string
	RemoteURL     string
	RemoteToken   string
	AllowInsecure bool
	Timeout       time.Duration
	Clock         Clock
}

// Open creates the Store named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemory(opts.Clock), nil
	case BackendSQLite:
		return OpenSQLite(opts.SQLitePath, opts.Clock)
	case BackendRemote:
		return NewRemote(RemoteOptions{
			URL:           opts.RemoteURL,
			Token:         opts.RemoteToken,
			AllowInsecure: opts.AllowInsecure,
			Timeout:       opts.Timeout,
		})
	default:
		return nil, fmt.Errorf("notes: unknown backend %q", opts.Backend)
	}
}
