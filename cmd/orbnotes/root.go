package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/orbfield/config"
	"github.com/pthm-cable/orbfield/notes"
)

// flags holds the global flag values. Empty values fall back to the config.
type flags struct {
	configPath string
	backend    string
	sqlitePath string
	url        string
	token      string
	insecure   bool
	json       bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "orbnotes",
		Short: "Read and write orb notes",
		Long: `orbnotes talks to the same note stores as the orb field: the SQLite
file, or a notesd server. Orbs are addressed by index (0, 1, ...) or by raw
note id.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default: embedded defaults)")
	pf.StringVar(&f.backend, "backend", "", "store backend: sqlite | remote (default: notes.backend)")
	pf.StringVar(&f.sqlitePath, "sqlite-path", "", "SQLite file (default: notes.sqlite_path)")
	pf.StringVar(&f.url, "url", "", "notesd base URL (default: notes.remote_url)")
	pf.StringVar(&f.token, "token", "", "notesd bearer token (default: notes.remote_token)")
	pf.BoolVar(&f.insecure, "insecure", false, "allow plain http URLs")
	pf.BoolVar(&f.json, "json", false, "output as JSON")

	root.AddCommand(newGetCmd(f))
	root.AddCommand(newPutCmd(f))
	root.AddCommand(newDeleteCmd(f))
	root.AddCommand(newExportCmd(f))
	return root
}

func (f *flags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore resolves the store options from the config and flags.
func (f *flags) openStore() (notes.Store, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	opts := cfg.Notes.Options()
	if f.backend != "" {
		opts.Backend = f.backend
	}
	if f.sqlitePath != "" {
		opts.SQLitePath = f.sqlitePath
	}
	if f.url != "" {
		opts.RemoteURL = f.url
	}
	if f.token != "" {
		opts.RemoteToken = f.token
	}
	if f.insecure {
		opts.AllowInsecure = true
	}
	if opts.Backend == notes.BackendMemory || opts.Backend == "" {
		return nil, fmt.Errorf("backend %q does not persist; use --backend sqlite or remote", opts.Backend)
	}
	return notes.Open(opts)
}
