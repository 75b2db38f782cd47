package bootmark

import (
	"errors"
	"fmt"

	version "github.com/hashicorp/go-version"

	"github.com/bootmark/go-bootmark/core"
	"github.com/bootmark/go-bootmark/markers"
)

// BootstrapConfig represents the configuration required to create a Runtime.
type BootstrapConfig struct {
	EntryPackage string       // Package containing the annotated entry point. Fallback scan root when the marker declares none.
	EntryType    core.TypeRef // Optional type reference of the entry point itself; registered explicitly before deferred imports.
	EntryName    string       // Optional registration name for the entry point. Derived from EntryType if empty.
	HostVersion  string       // Optional host version. Discovered candidates requiring a newer version are dropped.
	ScanRoots    []string     // Filesystem roots for the default source scanner (used when Scanner is nil).

	Scanner   core.Scanner         // Candidate scanner collaborator. Defaults to a source scanner over ScanRoots.
	Discovery core.CandidateSource // Automatic capability discovery collaborator. May be nil.
	Container core.Container       // Registration sink. May be nil for dry runs.

	// ExcludeHooks are externally registered exclusion predicates invoked by
	// the built-in delegation filter. A candidate is excluded as soon as any
	// hook returns true.
	ExcludeHooks []core.ExcludeHook

	// ExcludeFilters are the declared exclusion filters, evaluated after the
	// built-in delegation and already-discovered filters.
	ExcludeFilters []core.ExcludeFilter

	// Registrations are explicitly declared units, applied to the container
	// before any deferred import. An explicit unit of a given identity always
	// wins over a discovered one.
	Registrations []core.Registration
}

// BootstrapConfigFunc defines a function that can modify or validate a BootstrapConfig.
type BootstrapConfigFunc func(*BootstrapConfig) error

// Validate applies the given BootstrapConfigFunc validators to the config.
// Panics if any validator returns an error.
func (config *BootstrapConfig) Validate(validators ...BootstrapConfigFunc) {
	for _, fn := range validators {
		if err := fn(config); err != nil {
			panic(err)
		}
	}
}

// withEntryPackage validates that the EntryPackage field is not empty.
func withEntryPackage(config *BootstrapConfig) error {
	if config.EntryPackage == "" {
		return errors.New("entry package cannot be empty string")
	}
	return nil
}

// withEntryName derives a registration name from the entry type if none is
// provided.
func withEntryName(config *BootstrapConfig) error {
	if config.EntryName == "" && !config.EntryType.IsZero() {
		config.EntryName = markers.DefaultName(config.EntryType.Name)
	}
	return nil
}

// withHostVersion validates HostVersion when one is configured.
func withHostVersion(config *BootstrapConfig) error {
	if config.HostVersion == "" {
		return nil
	}
	if _, err := version.NewVersion(config.HostVersion); err != nil {
		return fmt.Errorf("invalid host version %q: %w", config.HostVersion, err)
	}
	return nil
}

// withDefaultScanner installs the source scanner when scan roots are given
// and no scanner was supplied.
func withDefaultScanner(config *BootstrapConfig) error {
	if config.Scanner == nil && len(config.ScanRoots) > 0 {
		config.Scanner = markers.NewSourceScanner(config.ScanRoots...)
	}
	return nil
}

// withExcludeFilters builds the declared filter chain once, so malformed
// filters (invalid regex, zero type references, nil predicates) surface at
// construction instead of mid-bootstrap.
func withExcludeFilters(config *BootstrapConfig) error {
	if len(config.ExcludeFilters) == 0 {
		return nil
	}
	if _, err := core.NewFilterChain(config.ExcludeFilters...); err != nil {
		return err
	}
	return nil
}
