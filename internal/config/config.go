// Package config loads the ambient settings the relational storage layer
// needs to stand up an engine and a Database, but that the core itself
// never specifies: the backing DSN, the root subspace prefix, and the
// retry budget. None of these participate in the relational
// layer's invariants; they exist only to wire it up.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level TOML document read by cmd/relstore.
type Config struct {
	Store tomlStore `toml:"store"`
}

type tomlStore struct {
	DSN          string `toml:"dsn"`
	RootSubspace string `toml:"root_subspace"`
	MaxRetries   int    `toml:"max_retries"`
}

// Resolved is the validated, defaulted configuration the CLI and engine
// constructors consume.
type Resolved struct {
	DSN          string
	RootSubspace []byte
	MaxRetries   int
}

const defaultRootSubspace = "relstore"
const defaultMaxRetries = 10

// Load reads and validates a TOML config file at path.
func Load(path string) (Resolved, error) {
	f, err := os.Open(path)
	if err != nil {
		return Resolved{}, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer f.Close()

	var doc Config
	if _, err := toml.NewDecoder(f).Decode(&doc); err != nil {
		return Resolved{}, fmt.Errorf("config: decode error: %w", err)
	}

	return resolve(doc)
}

func resolve(doc Config) (Resolved, error) {
	if doc.Store.DSN == "" {
		return Resolved{}, fmt.Errorf("config: store.dsn is required")
	}

	root := doc.Store.RootSubspace
	if root == "" {
		root = defaultRootSubspace
	}

	maxRetries := doc.Store.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return Resolved{
		DSN:          doc.Store.DSN,
		RootSubspace: []byte(root),
		MaxRetries:   maxRetries,
	}, nil
}
