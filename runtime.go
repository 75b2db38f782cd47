package bootmark

import (
	"context"
	"fmt"

	version "github.com/hashicorp/go-version"

	"github.com/bootmark/go-bootmark/core"
	"github.com/bootmark/go-bootmark/markers"
)

// Runtime ties the compiled Application marker to one set of configured
// collaborators. A Runtime is cheap; independent bootstraps (separate test
// contexts in one process, for instance) each get their own Runtime and
// share only the cached marker definition.
type Runtime struct {
	config      *BootstrapConfig
	model       *core.Model
	hostVersion *version.Version
}

// New builds a Runtime from the given config. The config is validated in
// place: a missing entry package panics, a missing entry name is derived,
// the default source scanner is installed when only scan roots were given
// and declared exclusion filters are pre-built so malformed ones fail here.
func New(config *BootstrapConfig) (*Runtime, error) {
	if config == nil {
		config = &BootstrapConfig{}
	}
	config.Validate(
		withEntryPackage,
		withEntryName,
		withHostVersion,
		withDefaultScanner,
		withExcludeFilters,
	)
	model, err := Application()
	if err != nil {
		return nil, err
	}
	runtime := &Runtime{config: config, model: model}
	if config.HostVersion != "" {
		runtime.hostVersion, _ = version.NewVersion(config.HostVersion)
	}
	return runtime, nil
}

// Model returns the compiled Application marker definition.
func (rt *Runtime) Model() *core.Model {
	return rt.model
}

// Bootstrap runs the full sequence for one use of the Application marker:
// resolve the marker's effective attributes, defer automatically discovered
// capabilities, build the scan specification, scan and prune candidates,
// then hand everything to the container with explicit registrations first.
//
// Any definition or resolution error aborts before scanning begins, and a
// discovery or scan failure aborts before anything is applied. The returned
// report is complete even when no container is configured, which makes dry
// runs cheap.
func (rt *Runtime) Bootstrap(ctx context.Context, marker ApplicationMarker) (*core.BootstrapReport, error) {
	instance, err := rt.model.NewInstance(marker.Assignments()...)
	if err != nil {
		return nil, err
	}
	resolution, err := instance.Report()
	if err != nil {
		return nil, err
	}

	strategy := core.RegisterProxied
	if !instance.BoolValue(appRef(AttrProxyBeanMethods)) {
		strategy = core.RegisterDirect
	}

	coord := &core.Coordinator{
		Exclude:     instance.TypeRefListValue(appRef(AttrExclude)),
		ExcludeName: instance.StringListValue(appRef(AttrExcludeName)),
		HostVersion: rt.hostVersion,
	}
	deferred, droppedDeferred, err := coord.DeferImports(ctx, rt.config.Discovery)
	if err != nil {
		return nil, err
	}
	// The already-discovered filter must see every candidate discovery
	// produced, including ones the coordinator dropped, so a scan cannot
	// resurrect an excluded capability under a new registration.
	discovered := make([]core.Candidate, 0, len(deferred)+len(droppedDeferred))
	discovered = append(discovered, deferred...)
	for _, rec := range droppedDeferred {
		discovered = append(discovered, rec.Candidate)
	}

	var sentinel *core.TypeRef
	if attr, ok := rt.model.Attr(appRef(AttrNameGenerator)); ok {
		sentinel = attr.Sentinel
	}
	spec, err := core.BuildScanSpec(core.ScanInput{
		BasePackages:       instance.StringListValue(appRef(AttrScanBasePackages)),
		BasePackageClasses: instance.TypeRefListValue(appRef(AttrScanBasePackageClasses)),
		NameGenerator:      instance.TypeRefValue(appRef(AttrNameGenerator)),
		NameGenSentinel:    sentinel,
		Filters:            rt.config.ExcludeFilters,
		Hooks:              rt.config.ExcludeHooks,
		Discovered:         discovered,
		EntryPackage:       rt.config.EntryPackage,
	})
	if err != nil {
		return nil, err
	}

	var scanned []core.Candidate
	if rt.config.Scanner != nil {
		scanned, err = rt.config.Scanner.Scan(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("candidate scan failed: %w", err)
		}
	}

	var kept []core.Candidate
	excluded := make([]core.ExclusionRecord, 0, len(droppedDeferred))
	for _, c := range scanned {
		if desc, hit := spec.Excludes.ExcludedBy(c); hit {
			excluded = append(excluded, core.ExclusionRecord{
				Candidate: c,
				Reason:    fmt.Sprintf("excluded by filter %s", desc),
			})
			continue
		}
		kept = append(kept, c)
	}
	excluded = append(excluded, droppedDeferred...)

	registrations := make([]core.Registration, 0, len(rt.config.Registrations)+len(kept)+1)
	if !rt.config.EntryType.IsZero() {
		registrations = append(registrations, core.Registration{
			Name:     rt.config.EntryName,
			Type:     rt.config.EntryType,
			Strategy: strategy,
		})
	}
	registrations = append(registrations, rt.config.Registrations...)
	for _, c := range kept {
		name := c.Name
		if name == "" {
			name = markers.DefaultName(c.Type.Name)
		}
		registrations = append(registrations, core.Registration{
			Name:     name,
			Type:     c.Type,
			Strategy: core.RegisterProxied,
		})
	}

	report := &core.BootstrapReport{
		Composite:  rt.model.Composite.Name,
		Strategy:   strategy.String(),
		Resolution: resolution,
		Spec:       spec,
		Scanned:    scanned,
		Deferred:   deferred,
		Registered: registrations,
		Excluded:   excluded,
	}

	if err := coord.Apply(ctx, rt.config.Container, registrations, deferred); err != nil {
		return nil, err
	}
	return report, nil
}
