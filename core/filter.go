package core

import (
	"fmt"
	"regexp"
)

//  ######################################################
//              EXCLUSION FILTERS
//  ######################################################

// ExcludeFilter is the closed set of filter variants a FilterChain can
// evaluate. The set cannot grow outside this package; arbitrary predicates
// plug in through CustomFilter.
type ExcludeFilter interface {
	excludeFilter()
}

// AnnotationTypeFilter excludes candidates carrying the given annotation type.
type AnnotationTypeFilter struct {
	Annotation TypeRef
}

// AssignableTypeFilter excludes candidates whose own type is, or is
// assignable to, the given type.
type AssignableTypeFilter struct {
	Type TypeRef
}

// RegexNameFilter excludes candidates whose qualified type name matches the
// pattern. The whole name must match, not a substring. Candidates without a
// type are matched by candidate name instead.
type RegexNameFilter struct {
	Pattern string
}

// CustomFilter excludes candidates for which the predicate returns true.
// Name labels the filter in reports and logs.
type CustomFilter struct {
	Name      string
	Predicate func(Candidate) bool
}

func (AnnotationTypeFilter) excludeFilter() {}
func (AssignableTypeFilter) excludeFilter() {}
func (RegexNameFilter) excludeFilter()      {}
func (CustomFilter) excludeFilter()         {}

type compiledFilter struct {
	filter ExcludeFilter
	rx     *regexp.Regexp
	desc   string
}

func (cf compiledFilter) matches(c Candidate) bool {
	switch typed := cf.filter.(type) {
	case AnnotationTypeFilter:
		for _, a := range c.Annotations {
			if a == typed.Annotation {
				return true
			}
		}
		return false
	case AssignableTypeFilter:
		if c.Type == typed.Type {
			return true
		}
		for _, impl := range c.Implements {
			if impl == typed.Type {
				return true
			}
		}
		return false
	case RegexNameFilter:
		name := c.Type.Qualified()
		if name == "" {
			name = c.Name
		}
		return cf.rx.MatchString(name)
	case CustomFilter:
		return typed.Predicate(c)
	default:
		return false
	}
}

// FilterChain evaluates an ordered list of exclusion filters. A candidate is
// excluded when any filter matches it, so the outcome never depends on the
// order filters were added in.
type FilterChain struct {
	filters []compiledFilter
}

// NewFilterChain compiles the given filters into a chain. Regex patterns are
// compiled here so an invalid pattern fails the build, not an evaluation.
func NewFilterChain(filters ...ExcludeFilter) (*FilterChain, error) {
	chain := &FilterChain{filters: make([]compiledFilter, 0, len(filters))}
	for _, f := range filters {
		cf := compiledFilter{filter: f}
		switch typed := f.(type) {
		case AnnotationTypeFilter:
			if typed.Annotation.IsZero() {
				return nil, fmt.Errorf("annotation type filter: empty annotation type")
			}
			cf.desc = fmt.Sprintf("annotation:%s", typed.Annotation)
		case AssignableTypeFilter:
			if typed.Type.IsZero() {
				return nil, fmt.Errorf("assignable type filter: empty type")
			}
			cf.desc = fmt.Sprintf("assignable:%s", typed.Type)
		case RegexNameFilter:
			rx, err := regexp.Compile(`\A(?:` + typed.Pattern + `)\z`)
			if err != nil {
				return nil, fmt.Errorf("regex name filter %q: %w", typed.Pattern, err)
			}
			cf.rx = rx
			cf.desc = fmt.Sprintf("regex:%s", typed.Pattern)
		case CustomFilter:
			if typed.Predicate == nil {
				return nil, fmt.Errorf("custom filter %q: nil predicate", typed.Name)
			}
			cf.desc = typed.Name
			if cf.desc == "" {
				cf.desc = "custom"
			}
		default:
			return nil, fmt.Errorf("unsupported filter type %T", f)
		}
		chain.filters = append(chain.filters, cf)
	}
	return chain, nil
}

// Excluded reports whether any filter in the chain matches the candidate.
func (fc *FilterChain) Excluded(c Candidate) bool {
	_, excluded := fc.ExcludedBy(c)
	return excluded
}

// ExcludedBy returns the description of the first filter matching the
// candidate. Which filter gets named depends on chain order; whether any
// matches does not.
func (fc *FilterChain) ExcludedBy(c Candidate) (string, bool) {
	for _, cf := range fc.filters {
		if cf.matches(c) {
			return cf.desc, true
		}
	}
	return "", false
}

// Len returns the number of filters in the chain.
func (fc *FilterChain) Len() int {
	return len(fc.filters)
}

// Describe lists the chain's filter descriptions in order.
func (fc *FilterChain) Describe() []string {
	out := make([]string, 0, len(fc.filters))
	for _, cf := range fc.filters {
		out = append(out, cf.desc)
	}
	return out
}

// DelegationFilter builds the first built-in member of every chain: a
// custom filter consulting the externally registered exclusion hooks. Hooks
// stay opaque to the chain; a candidate is excluded as soon as one hook
// says so.
func DelegationFilter(hooks ...ExcludeHook) ExcludeFilter {
	return CustomFilter{
		Name: "delegation",
		Predicate: func(c Candidate) bool {
			for _, hook := range hooks {
				if hook != nil && hook(c) {
					return true
				}
			}
			return false
		},
	}
}

// DiscoveredFilter builds the second built-in member of every chain. It
// drops scan candidates whose identity an automatic discovery pass already
// produced, so one unit is never registered through both paths.
func DiscoveredFilter(discovered []Candidate) ExcludeFilter {
	known := make(map[string]struct{}, len(discovered))
	for _, c := range discovered {
		known[c.Identity()] = struct{}{}
	}
	return CustomFilter{
		Name: "already-discovered",
		Predicate: func(c Candidate) bool {
			_, ok := known[c.Identity()]
			return ok
		},
	}
}
