// Package params implements the parameter store: a hierarchical,
// read-only key→value map loaded from a YAML document, with ParamRef
// resolution against its top-level keys.
package params

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

// Store is the hierarchical parameter tree. Values are whatever the YAML
// parser (via koanf) produces: nil, bool, int, float64, string, []any, or
// map[string]any. No separate tagged-value type is needed since that is
// already the shape koanf hands back.
type Store struct {
	top map[string]any
}

// Load reads a parameters document from path and returns the resulting
// Store. Fails with *errs.ConfigMissing if path does not exist, or
// *errs.ConfigParseError if the document is malformed.
func Load(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &errs.ConfigMissing{Kind: "parameters", Path: path}
	}

	// The key-path delimiter must never occur in a document key: top-level
	// keys like "params.generation.setting" are flat identifiers, and a "."
	// delimiter would split them into nested maps on the Raw() round trip.
	k := koanf.New("::")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, &errs.ConfigParseError{Path: path, Err: err}
	}

	return &Store{top: k.Raw()}, nil
}

// NewFromMap builds a Store directly from an in-memory map, bypassing file
// loading. Useful for tests and for the Starlark manifest integration
// (internal/script), which assembles parameters programmatically.
func NewFromMap(m map[string]any) *Store {
	if m == nil {
		m = map[string]any{}
	}
	return &Store{top: m}
}

// Get resolves a ParamRef against the store's top-level keys. Dotted keys
// are flat identifiers, never descended into.
func (s *Store) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.top[key]
	return v, ok
}

// Resolve implements the node-parameter binding rule: if binding is a
// string and matches a top-level store key, the stored value is
// substituted; otherwise binding passes through literally.
func (s *Store) Resolve(binding any) any {
	key, ok := binding.(string)
	if !ok {
		return binding
	}
	if v, found := s.Get(key); found {
		return v
	}
	return binding
}

// Raw returns the underlying map, read-only by convention. Callers must
// not mutate it; the Store does not defensively copy.
func (s *Store) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.top
}

// String implements fmt.Stringer for debugging/CLI display.
func (s *Store) String() string {
	return fmt.Sprintf("params.Store{%d top-level keys}", len(s.Raw()))
}
