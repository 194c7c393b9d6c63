package catalog

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

// envPrefix overrides credentials document fields from the process
// environment, so a password never has to sit in a committed YAML file.
// FLOWCRAFT_CRED_<KEY>_PASSWORD overrides the Password field of the
// credentialsKey <key> (lower-cased). Only a single underscore separates
// key from field, so a credentialsKey itself must not contain one.
const envPrefix = "FLOWCRAFT_CRED_"

// Credentials holds one entry from the credentials document. Extra
// carries any fields beyond the documented set without losing them
// (drivers sometimes need vendor-specific options).
type Credentials struct {
	Server    string         `yaml:"Server"`
	Database  string         `yaml:"Database"`
	Schema    string         `yaml:"Schema"`
	User      string         `yaml:"User"`
	Password  string         `yaml:"Password"`
	Warehouse string         `yaml:"Warehouse"`
	Extra     map[string]any `yaml:",remain"`
}

// CredentialsStore is the loaded credentialsKey → Credentials mapping.
type CredentialsStore struct {
	path    string
	entries map[string]Credentials
}

// LoadCredentials reads a credentials document from credentialsPath, then
// overlays any FLOWCRAFT_CRED_* environment variables on top of it.
func LoadCredentials(credentialsPath string) (*CredentialsStore, error) {
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, &errs.ConfigMissing{Kind: "credentials", Path: credentialsPath}
	}

	k := koanf.New("::")
	if err := k.Load(file.Provider(credentialsPath), yaml.Parser()); err != nil {
		return nil, &errs.ConfigParseError{Path: credentialsPath, Err: err}
	}
	if err := k.Load(env.Provider(envPrefix, "::", envKeyToPath), nil); err != nil {
		return nil, &errs.ConfigParseError{Path: "environment", Err: err}
	}

	entries := map[string]Credentials{}
	for key, raw := range k.Raw() {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		c, err := credentialsFromMap(m)
		if err != nil {
			return nil, &errs.ConfigParseError{Path: credentialsPath, Err: err}
		}
		entries[key] = c
	}

	return &CredentialsStore{path: credentialsPath, entries: entries}, nil
}

// envKeyToPath turns FLOWCRAFT_CRED_SNOWFLAKE_PASSWORD into
// snowflake::Password so it merges onto the matching credentialsKey.
func envKeyToPath(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	key, field, found := strings.Cut(s, "_")
	if !found {
		return strings.ToLower(s)
	}
	field = strings.ToLower(field)
	if field == "" {
		return strings.ToLower(key)
	}
	return strings.ToLower(key) + "::" + strings.ToUpper(field[:1]) + field[1:]
}

func credentialsFromMap(m map[string]any) (Credentials, error) {
	c := Credentials{Extra: map[string]any{}}
	if err := decodeEntry(m, &c); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

// Lookup resolves a credentialsKey, failing with *errs.UnknownCredentials
// if absent.
func (s *CredentialsStore) Lookup(key string) (Credentials, error) {
	c, ok := s.entries[key]
	if !ok {
		return Credentials{}, &errs.UnknownCredentials{Key: key}
	}
	return c, nil
}
