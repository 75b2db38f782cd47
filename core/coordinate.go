package core

import (
	"context"
	"fmt"

	version "github.com/hashicorp/go-version"
)

// ExclusionRecord says which candidate was dropped and by what rule.
type ExclusionRecord struct {
	Candidate Candidate `json:"candidate"`
	Reason    string    `json:"reason"`
}

// Coordinator defers automatically discovered candidates so they are applied
// after every explicit registration. Exclusions requested on the instance
// are taken out of the deferred list here; an exclusion matching nothing is
// inert and never fails a bootstrap.
type Coordinator struct {
	Exclude     []TypeRef        // candidate types dropped from the deferred list
	ExcludeName []string         // candidate names dropped from the deferred list
	HostVersion *version.Version // when set, candidates requiring a newer version are dropped
}

// DeferImports collects candidates from the source and returns the deferred
// list with exclusions applied, preserving the source's order. The second
// return value records what was dropped and why. A nil source yields empty
// lists. A discovery error or an already cancelled context propagates
// untouched, and nothing must be applied in that case.
func (co *Coordinator) DeferImports(ctx context.Context, source CandidateSource) ([]Candidate, []ExclusionRecord, error) {
	if source == nil {
		return nil, nil, nil
	}
	candidates, err := source.Discover(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	deferred, dropped := co.Prune(candidates)
	return deferred, dropped, nil
}

// Prune applies the coordinator's exclusions to an ordered candidate list.
// Kept candidates stay in their original order. Duplicate identities keep
// the first occurrence.
func (co *Coordinator) Prune(candidates []Candidate) ([]Candidate, []ExclusionRecord) {
	kept := make([]Candidate, 0, len(candidates))
	var dropped []ExclusionRecord
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		id := c.Identity()
		if _, dup := seen[id]; dup {
			dropped = append(dropped, ExclusionRecord{Candidate: c, Reason: "duplicate identity"})
			continue
		}
		seen[id] = struct{}{}
		if reason, out := co.excluded(c); out {
			dropped = append(dropped, ExclusionRecord{Candidate: c, Reason: reason})
			logDebugf("coordinator: dropping '%s' (%s)", id, reason)
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

func (co *Coordinator) excluded(c Candidate) (string, bool) {
	for _, ref := range co.Exclude {
		if !ref.IsZero() && c.Type == ref {
			return fmt.Sprintf("excluded by type %s", ref), true
		}
	}
	for _, name := range co.ExcludeName {
		if name == "" {
			continue
		}
		if name == c.Name || name == c.Type.Qualified() {
			return fmt.Sprintf("excluded by name %q", name), true
		}
	}
	if co.HostVersion != nil && c.RequiresVersion != "" {
		required, err := version.NewVersion(c.RequiresVersion)
		if err == nil && co.HostVersion.LessThan(required) {
			return fmt.Sprintf("requires version %s, host is %s", required, co.HostVersion), true
		}
	}
	return "", false
}

// Apply hands the container the explicit registrations first and the
// deferred candidates last, so an explicitly registered unit always wins
// over a discovered one of the same identity. A nil container turns Apply
// into a no-op.
func (co *Coordinator) Apply(ctx context.Context, container Container, explicit []Registration, deferred []Candidate) error {
	if container == nil {
		return nil
	}
	if err := container.ApplyExplicit(ctx, explicit); err != nil {
		return err
	}
	if err := container.ApplyDeferred(ctx, deferred); err != nil {
		return err
	}
	logInfof("bootmark %s: applied %d explicit registration(s), %d deferred candidate(s)",
		LibraryVersion(), len(explicit), len(deferred))
	return nil
}
