// Package errs defines the typed error taxonomy for the pipeline
// execution core. Each failure mode gets its own struct with an Error()
// method; callers inspect them with errors.As.
package errs

import "fmt"

// ConfigMissing is returned when a configuration file (parameters, catalog,
// credentials) does not exist at the expected path.
type ConfigMissing struct {
	Kind string // "parameters", "catalog", "credentials"
	Path string
}

func (e *ConfigMissing) Error() string {
	return fmt.Sprintf("%s config missing: %s", e.Kind, e.Path)
}

// ConfigParseError wraps a parser diagnostic for a malformed config file.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("failed to parse config at %s: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// InvalidNode is a node construction-time validation failure.
type InvalidNode struct {
	Reason string
}

func (e *InvalidNode) Error() string {
	return fmt.Sprintf("invalid node: %s", e.Reason)
}

// InvalidPipeline is a pipeline construction-time validation failure.
type InvalidPipeline struct {
	Reason string
}

func (e *InvalidPipeline) Error() string {
	return fmt.Sprintf("invalid pipeline: %s", e.Reason)
}

// UnknownDataset is returned when a catalog lookup finds no matching entry.
type UnknownDataset struct {
	Name        string
	CatalogPath string
}

func (e *UnknownDataset) Error() string {
	return fmt.Sprintf("dataset %q not found in catalog %s", e.Name, e.CatalogPath)
}

// UnsupportedType is returned when a catalog entry's type discriminator is
// not one of CSVDataset, EXCELDataset, SQLDataSet.
type UnsupportedType struct {
	Name string
	Type string
}

func (e *UnsupportedType) Error() string {
	return fmt.Sprintf("dataset %q has unsupported type %q", e.Name, e.Type)
}

// UnknownCredentials is returned when a SQL entry's credentialsKey is absent
// from the loaded credentials document.
type UnknownCredentials struct {
	Key string
}

func (e *UnknownCredentials) Error() string {
	return fmt.Sprintf("unknown credentials key %q", e.Key)
}

// UnsupportedDatabase is returned for any SQL databaseKind other than the
// one the core guarantees (Snowflake).
type UnsupportedDatabase struct {
	Kind string
}

func (e *UnsupportedDatabase) Error() string {
	return fmt.Sprintf("unsupported database kind %q (only Snowflake is supported)", e.Kind)
}

// SqlFileMissing is returned when a SQL entry's sqlPath does not exist.
type SqlFileMissing struct {
	Path string
}

func (e *SqlFileMissing) Error() string {
	return fmt.Sprintf("sql query file missing: %s", e.Path)
}

// InputResolutionFailed is returned when a node's input was neither in
// memory nor loadable from the catalog.
type InputResolutionFailed struct {
	NodeName string
	DataRef  string
	Cause    error
}

func (e *InputResolutionFailed) Error() string {
	return fmt.Sprintf("node %q: failed to resolve input %q: %v", e.NodeName, e.DataRef, e.Cause)
}

func (e *InputResolutionFailed) Unwrap() error { return e.Cause }

// MissingArgument is returned when a node's declared required argument was
// not supplied by its resolved inputs/parameters.
type MissingArgument struct {
	NodeName string
	ArgName  string
}

func (e *MissingArgument) Error() string {
	return fmt.Sprintf("node %q: missing required argument %q", e.NodeName, e.ArgName)
}

// OutputShapeError is returned when a node declares a named-mapping output
// but its function returned a non-mapping value.
type OutputShapeError struct {
	NodeName string
}

func (e *OutputShapeError) Error() string {
	return fmt.Sprintf("node %q: outputs declared as a named mapping but func did not return one", e.NodeName)
}

// Cancelled is returned when a run is aborted by a user-initiated
// cancellation (e.g. a cancelled context).
type Cancelled struct {
	NodeName string
	Cause    error
}

func (e *Cancelled) Error() string {
	if e.NodeName != "" {
		return fmt.Sprintf("run cancelled at node %q: %v", e.NodeName, e.Cause)
	}
	return fmt.Sprintf("run cancelled: %v", e.Cause)
}

func (e *Cancelled) Unwrap() error { return e.Cause }
