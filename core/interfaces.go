package core

import "context"

// Candidate is one registrable unit: a component found by scanning or a
// capability produced by automatic discovery.
type Candidate struct {
	Name            string    `json:"name"`                      // registration name; derived from the type when empty
	Type            TypeRef   `json:"type"`                      // the candidate's own type
	Annotations     []TypeRef `json:"annotations,omitempty"`     // annotation types present on the candidate
	Implements      []TypeRef `json:"implements,omitempty"`      // types the candidate is assignable to
	RequiresVersion string    `json:"requiresVersion,omitempty"` // minimum host version, empty means any
	Source          string    `json:"source,omitempty"`          // where the candidate was found
}

// Identity returns the candidate's stable identity: the qualified type name
// when present, the candidate name otherwise.
func (c Candidate) Identity() string {
	if !c.Type.IsZero() {
		return c.Type.Qualified()
	}
	return c.Name
}

// RegistrationStrategy tells the container how a unit's factory methods are
// treated.
type RegistrationStrategy int

const (
	// RegisterProxied routes repeated factory calls through the container
	// so every caller sees the same instance.
	RegisterProxied RegistrationStrategy = iota
	// RegisterDirect registers plain factory methods without interception.
	RegisterDirect
)

func (s RegistrationStrategy) String() string {
	if s == RegisterDirect {
		return "direct"
	}
	return "proxied"
}

// Registration is one explicit unit handed to the container before any
// deferred candidate.
type Registration struct {
	Name     string               `json:"name"`
	Type     TypeRef              `json:"type"`
	Strategy RegistrationStrategy `json:"strategy"`
}

// Scanner locates candidates for a scan specification.
type Scanner interface {
	Scan(ctx context.Context, spec *ScanSpec) ([]Candidate, error)
}

// CandidateSource produces automatically discovered candidates in a
// deterministic order with duplicates already removed.
type CandidateSource interface {
	Discover(ctx context.Context) ([]Candidate, error)
}

// Container receives the bootstrap output. Explicit registrations are
// always applied before deferred candidates.
type Container interface {
	ApplyExplicit(ctx context.Context, regs []Registration) error
	ApplyDeferred(ctx context.Context, candidates []Candidate) error
}

// ExcludeHook is an externally registered exclusion predicate. Hooks are
// consulted by the first built-in filter of every chain; the hook never
// learns why it is being asked.
type ExcludeHook func(Candidate) bool
