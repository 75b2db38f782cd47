package core

import "fmt"

// ScanInput carries everything the scan spec builder consumes: the resolved
// scan attributes of one instance plus the collaborators feeding the
// built-in filters.
type ScanInput struct {
	BasePackages       []string        // explicit base packages, declaration order
	BasePackageClasses []TypeRef       // types whose packages are scanned too
	NameGenerator      TypeRef         // resolved name generator reference
	NameGenSentinel    *TypeRef        // exact type marking the generator as unset
	Filters            []ExcludeFilter // declared filters, appended after the built-ins
	Hooks              []ExcludeHook   // predicates for the delegation filter
	Discovered         []Candidate     // candidates already produced by discovery
	EntryPackage       string          // fallback package when nothing else is given
}

// ScanSpec is the read-only scan configuration handed to a Scanner.
// NameGenerator is nil when the attribute resolved to its sentinel, meaning
// the surrounding runtime keeps whatever generator it already uses.
type ScanSpec struct {
	BasePackages  []string     `json:"basePackages"`
	NameGenerator *TypeRef     `json:"nameGenerator,omitempty"`
	Excludes      *FilterChain `json:"-"`
}

// BuildScanSpec combines explicit base packages with the packages of the
// given classes, keeping first-occurrence order and dropping duplicates.
// When both lists are empty the entry package is used, so a bare marker
// scans its own package. The exclusion chain always starts with the two
// built-in filters, then the declared ones.
func BuildScanSpec(in ScanInput) (*ScanSpec, error) {
	pkgs := make([]string, 0, len(in.BasePackages)+len(in.BasePackageClasses))
	seen := make(map[string]struct{})
	appendPkg := func(pkg string) {
		if pkg == "" {
			return
		}
		if _, dup := seen[pkg]; dup {
			return
		}
		seen[pkg] = struct{}{}
		pkgs = append(pkgs, pkg)
	}
	for _, pkg := range in.BasePackages {
		appendPkg(pkg)
	}
	for _, ref := range in.BasePackageClasses {
		appendPkg(ref.Pkg)
	}
	if len(pkgs) == 0 {
		if in.EntryPackage == "" {
			return nil, fmt.Errorf("no base packages declared and no entry package to fall back to")
		}
		pkgs = append(pkgs, in.EntryPackage)
	}

	var nameGen *TypeRef
	if !in.NameGenerator.IsZero() {
		if in.NameGenSentinel == nil || in.NameGenerator != *in.NameGenSentinel {
			ref := in.NameGenerator
			nameGen = &ref
		}
	}

	filters := make([]ExcludeFilter, 0, len(in.Filters)+2)
	filters = append(filters, DelegationFilter(in.Hooks...))
	filters = append(filters, DiscoveredFilter(in.Discovered))
	filters = append(filters, in.Filters...)
	chain, err := NewFilterChain(filters...)
	if err != nil {
		return nil, err
	}

	logDebugf("scan spec: packages=%v nameGenerator=%v filters=%d", pkgs, nameGen, chain.Len())
	return &ScanSpec{
		BasePackages:  pkgs,
		NameGenerator: nameGen,
		Excludes:      chain,
	}, nil
}
