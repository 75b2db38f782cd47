package core

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedDirectiveError reports a structurally invalid directive or
// composite definition: unknown alias endpoints, kind mismatches between
// aliased attributes, duplicate declarations, or aliased attributes whose
// declared defaults differ. It is also returned when an instance supplies a
// value that does not fit the declared attribute kind.
type MalformedDirectiveError struct {
	Directive string
	Attribute string
	Reason    string
}

func (e *MalformedDirectiveError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("malformed directive '%s': %s", e.Directive, e.Reason)
	}
	return fmt.Sprintf("malformed directive '%s': attribute '%s': %s", e.Directive, e.Attribute, e.Reason)
}

// AliasCycleError reports a directed alias chain that loops back on itself.
// A mutual pair, two attributes declared as aliases of each other, is legal
// and never reported; any other loop is.
type AliasCycleError struct {
	Chain []AttrRef
}

func (e *AliasCycleError) Error() string {
	parts := make([]string, 0, len(e.Chain))
	for _, ref := range e.Chain {
		parts = append(parts, ref.String())
	}
	return fmt.Sprintf("alias cycle detected: %s", strings.Join(parts, " -> "))
}

// AliasConflictError reports aliased attributes assigned differing explicit
// values on the same instance. Every explicit assignment in the class is
// listed so the caller sees all locations at once.
type AliasConflictError struct {
	Class       []AttrRef
	Assignments []Assignment
}

func (e *AliasConflictError) Error() string {
	parts := make([]string, 0, len(e.Assignments))
	for _, a := range e.Assignments {
		parts = append(parts, fmt.Sprintf("%s=%v", a.Ref, a.Value))
	}
	return fmt.Sprintf("conflicting explicit values for aliased attributes: %s (only one value is permitted)", strings.Join(parts, ", "))
}

func IsMalformedDirectiveErr(err error) bool {
	var mdErr *MalformedDirectiveError
	return errors.As(err, &mdErr)
}

func IsAliasCycleErr(err error) bool {
	var acErr *AliasCycleError
	return errors.As(err, &acErr)
}

func IsAliasConflictErr(err error) bool {
	var confErr *AliasConflictError
	return errors.As(err, &confErr)
}
