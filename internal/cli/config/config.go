// Package config holds the CLI's own process-level settings (project
// paths, output mode) and the context plumbing root.go and the command
// package share. It is deliberately distinct from the three data
// documents (parameters, catalog, credentials): those are read directly
// by pkg/params and pkg/catalog from the paths this package resolves,
// never through a CLI config layer.
package config

import (
	"context"
	"log/slog"
	"path/filepath"
)

// Default locations for the three data configuration documents, relative
// to a project's root directory.
const (
	DefaultParametersPath  = "conf/base/parameters.yaml"
	DefaultCatalogPath     = "conf/base/catalog.yaml"
	DefaultCredentialsPath = "conf/credentials/credentials.yaml"
	DefaultLedgerPath      = ".flowcraft/ledger.db"
)

// Config holds the settings flowcraft's own cobra/pflag flags bind to.
type Config struct {
	ProjectDir      string
	ParametersPath  string
	CatalogPath     string
	CredentialsPath string
	LedgerPath      string
	OutputFormat    string
	Verbose         bool
}

// Default returns a Config rooted at the current directory, before any
// flags are applied.
func Default() *Config {
	return &Config{
		ProjectDir:      ".",
		ParametersPath:  DefaultParametersPath,
		CatalogPath:     DefaultCatalogPath,
		CredentialsPath: DefaultCredentialsPath,
		LedgerPath:      DefaultLedgerPath,
		OutputFormat:    "text",
	}
}

// Resolve rewrites every relative path against ProjectDir, so commands can
// be run from outside the project directory via --project-dir.
func (c *Config) Resolve() {
	c.ParametersPath = c.joinIfRelative(c.ParametersPath)
	c.CatalogPath = c.joinIfRelative(c.CatalogPath)
	c.CredentialsPath = c.joinIfRelative(c.CredentialsPath)
	if c.LedgerPath != ":memory:" {
		c.LedgerPath = c.joinIfRelative(c.LedgerPath)
	}
}

func (c *Config) joinIfRelative(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectDir, path)
}

type configKey struct{}
type loggerKey struct{}

// WithConfig returns a context carrying cfg, retrievable via FromContext.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the Config stored by WithConfig, or a default one
// if none was stored (e.g. in a unit test that builds a command directly).
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Default()
}

// WithLogger returns a context carrying logger, retrievable via LoggerFromContext.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext retrieves the logger stored by WithLogger, or a
// discard logger if none was stored.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
