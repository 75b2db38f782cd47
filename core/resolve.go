package core

import (
	"fmt"
	"sync"
)

// ValueOrigin tells where an effective attribute value came from.
type ValueOrigin int

const (
	// OriginDefault means no attribute in the alias class was explicitly set.
	OriginDefault ValueOrigin = iota
	// OriginExplicit means the value was supplied on the instance, on the
	// attribute itself or on one of its aliases.
	OriginExplicit
)

func (o ValueOrigin) String() string {
	if o == OriginExplicit {
		return "explicit"
	}
	return "default"
}

// Assignment is one explicitly supplied attribute value on an instance.
type Assignment struct {
	Ref   AttrRef `json:"ref"`
	Value any     `json:"value"`
}

// EffectiveValue is the resolved value of one attribute on one instance.
type EffectiveValue struct {
	Value  any         `json:"value"`
	Origin ValueOrigin `json:"origin"`
	// Path lists the attributes touched while resolving: the attribute
	// itself first, then the aliased attribute the value propagated from.
	Path []AttrRef `json:"path"`
}

// Instance binds explicit attribute values to a compiled model. Resolution
// runs at most once per instance; repeated calls return the same artifacts.
type Instance struct {
	model    *Model
	explicit map[AttrRef]any
	order    []AttrRef

	once     sync.Once
	resolved map[AttrRef]EffectiveValue
	err      error
}

// NewInstance validates and binds explicit assignments against the model.
// Unknown attributes, repeated assignments and values of the wrong kind are
// rejected.
func (m *Model) NewInstance(assignments ...Assignment) (*Instance, error) {
	inst := &Instance{
		model:    m,
		explicit: make(map[AttrRef]any, len(assignments)),
	}
	for _, a := range assignments {
		ca, ok := m.attrs[a.Ref]
		if !ok {
			return nil, &MalformedDirectiveError{
				Directive: a.Ref.Directive,
				Attribute: a.Ref.Attribute,
				Reason:    "unknown attribute",
			}
		}
		if _, dup := inst.explicit[a.Ref]; dup {
			return nil, &MalformedDirectiveError{
				Directive: a.Ref.Directive,
				Attribute: a.Ref.Attribute,
				Reason:    "attribute assigned more than once",
			}
		}
		val, err := normalizeValue(ca.attr, a.Value)
		if err != nil {
			return nil, &MalformedDirectiveError{
				Directive: a.Ref.Directive,
				Attribute: a.Ref.Attribute,
				Reason:    err.Error(),
			}
		}
		inst.explicit[a.Ref] = val
		inst.order = append(inst.order, a.Ref)
	}
	return inst, nil
}

// Resolve computes the effective value of every attribute in the model.
//
// Attributes connected by alias declarations form one class and always end
// up with a single shared value: the class default when nothing was set, or
// the one explicit value when it was. Setting the same value on several
// class members is fine; differing explicit values produce an
// AliasConflictError naming every assignment involved.
//
// Resolution is pure: the same instance always yields the same map, and the
// map is shared between callers. Treat it as read-only.
func (inst *Instance) Resolve() (map[AttrRef]EffectiveValue, error) {
	inst.once.Do(inst.resolve)
	return inst.resolved, inst.err
}

func (inst *Instance) resolve() {
	resolved := make(map[AttrRef]EffectiveValue, len(inst.model.order))
	for ci, class := range inst.model.classes {
		var hits []Assignment
		for _, ref := range inst.order {
			if inst.model.classOf[ref] == ci {
				hits = append(hits, Assignment{Ref: ref, Value: inst.explicit[ref]})
			}
		}
		for i := 1; i < len(hits); i++ {
			if !valueEqual(hits[i].Value, hits[0].Value) {
				inst.err = &AliasConflictError{Class: class, Assignments: hits}
				inst.resolved = nil
				return
			}
		}
		if len(hits) > 0 {
			src := hits[0]
			for _, ref := range class {
				path := []AttrRef{ref}
				if ref != src.Ref {
					path = append(path, src.Ref)
				}
				resolved[ref] = EffectiveValue{Value: src.Value, Origin: OriginExplicit, Path: path}
			}
			logDebugf("resolve: %v <- explicit %s", class, src.Ref)
		} else {
			def := inst.model.attrs[class[0]].def
			for _, ref := range class {
				resolved[ref] = EffectiveValue{Value: def, Origin: OriginDefault, Path: []AttrRef{ref}}
			}
		}
	}
	inst.resolved = resolved
}

// Effective returns the resolved value for a single attribute.
func (inst *Instance) Effective(ref AttrRef) (EffectiveValue, error) {
	resolved, err := inst.Resolve()
	if err != nil {
		return EffectiveValue{}, err
	}
	ev, ok := resolved[ref]
	if !ok {
		return EffectiveValue{}, &MalformedDirectiveError{
			Directive: ref.Directive,
			Attribute: ref.Attribute,
			Reason:    "unknown attribute",
		}
	}
	return ev, nil
}

func (inst *Instance) effectiveOrPanic(ref AttrRef) EffectiveValue {
	ev, err := inst.Effective(ref)
	if err != nil {
		panic(fmt.Sprintf("instance of '%s': %v", inst.model.Composite.Name, err))
	}
	return ev
}

// StringValue returns the resolved string value of ref.
// Panics if the instance failed to resolve or the attribute holds a
// different kind; check Resolve before using typed accessors.
func (inst *Instance) StringValue(ref AttrRef) string {
	ev := inst.effectiveOrPanic(ref)
	s, ok := ev.Value.(string)
	if !ok {
		panic(fmt.Sprintf("attribute '%s' is not a string", ref))
	}
	return s
}

// BoolValue returns the resolved bool value of ref.
// Panics if the instance failed to resolve or the attribute holds a
// different kind.
func (inst *Instance) BoolValue(ref AttrRef) bool {
	ev := inst.effectiveOrPanic(ref)
	b, ok := ev.Value.(bool)
	if !ok {
		panic(fmt.Sprintf("attribute '%s' is not a bool", ref))
	}
	return b
}

// StringListValue returns the resolved string-list value of ref.
// Panics if the instance failed to resolve or the attribute holds a
// different kind.
func (inst *Instance) StringListValue(ref AttrRef) []string {
	ev := inst.effectiveOrPanic(ref)
	xs, ok := ev.Value.([]string)
	if !ok {
		panic(fmt.Sprintf("attribute '%s' is not a string-list", ref))
	}
	return xs
}

// TypeRefValue returns the resolved type-reference value of ref.
// Panics if the instance failed to resolve or the attribute holds a
// different kind.
func (inst *Instance) TypeRefValue(ref AttrRef) TypeRef {
	ev := inst.effectiveOrPanic(ref)
	t, ok := ev.Value.(TypeRef)
	if !ok {
		panic(fmt.Sprintf("attribute '%s' is not a type-reference", ref))
	}
	return t
}

// TypeRefListValue returns the resolved type-reference-list value of ref.
// Panics if the instance failed to resolve or the attribute holds a
// different kind.
func (inst *Instance) TypeRefListValue(ref AttrRef) []TypeRef {
	ev := inst.effectiveOrPanic(ref)
	refs, ok := ev.Value.([]TypeRef)
	if !ok {
		panic(fmt.Sprintf("attribute '%s' is not a type-reference-list", ref))
	}
	return refs
}

// Report resolves the instance and lists every attribute with its effective
// value and origin, in declaration order.
func (inst *Instance) Report() (*ResolutionReport, error) {
	resolved, err := inst.Resolve()
	if err != nil {
		return nil, err
	}
	report := &ResolutionReport{
		Composite: inst.model.Composite.Name,
		Attrs:     make([]ResolvedAttr, 0, len(inst.model.order)),
	}
	for _, ref := range inst.model.order {
		ev := resolved[ref]
		row := ResolvedAttr{
			Ref:    ref.String(),
			Value:  fmt.Sprintf("%v", ev.Value),
			Origin: ev.Origin.String(),
		}
		if len(ev.Path) > 1 {
			row.Via = ev.Path[1].String()
		}
		report.Attrs = append(report.Attrs, row)
	}
	return report, nil
}
