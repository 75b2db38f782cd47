package core

import (
	"fmt"
	"reflect"
	"strings"
)

// AttrKind is the declared kind of a directive attribute. Explicit values
// and defaults must match the declared kind exactly.
type AttrKind int

const (
	// KindInvalid represents a kind that can't be handled.
	KindInvalid AttrKind = iota
	// KindString is a single string value.
	KindString
	// KindStringList is an ordered list of strings.
	KindStringList
	// KindTypeRef is a qualified reference to a named type.
	KindTypeRef
	// KindTypeRefList is an ordered list of type references.
	KindTypeRefList
	// KindBool is a boolean flag.
	KindBool
	// KindEnum is a string restricted to a declared value set.
	KindEnum
)

func (k AttrKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStringList:
		return "string-list"
	case KindTypeRef:
		return "type-reference"
	case KindTypeRefList:
		return "type-reference-list"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return "invalid"
	}
}

// TypeRef is a qualified reference to a named type. Pkg is the slash
// separated package path, Name the type's name within it. TypeRefs are
// compared by value; two references are the same type only when both
// fields match.
type TypeRef struct {
	Pkg  string `json:"pkg"`
	Name string `json:"name"`
}

// Qualified returns "pkg.Name", or just Name when the package is empty.
func (t TypeRef) Qualified() string {
	if t.Pkg == "" {
		return t.Name
	}
	return t.Pkg + "." + t.Name
}

func (t TypeRef) IsZero() bool {
	return t.Pkg == "" && t.Name == ""
}

func (t TypeRef) String() string {
	return t.Qualified()
}

// ParseTypeRef parses "pkg/path.Name" into a TypeRef. Text without a dot is
// treated as a bare type name with no package.
func ParseTypeRef(s string) TypeRef {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return TypeRef{Name: s}
	}
	return TypeRef{Pkg: s[:idx], Name: s[idx+1:]}
}

// AttrRef identifies a single attribute of a single directive.
type AttrRef struct {
	Directive string `json:"directive"`
	Attribute string `json:"attribute"`
}

func (r AttrRef) String() string {
	return r.Directive + "." + r.Attribute
}

// Attribute declares one typed attribute of a directive.
type Attribute struct {
	Name     string   // attribute name, unique within its directive
	Kind     AttrKind // declared kind
	Default  any      // declared default, normalized at compile time
	Enum     []string // allowed values for KindEnum attributes
	Sentinel *TypeRef // for KindTypeRef: resolving to this exact type means "not set"
	Doc      string   // optional help text
}

// Directive is a single declarative unit: a named set of typed attributes
// with declared defaults.
type Directive struct {
	Name  string
	Attrs []Attribute
}

// AliasEdge declares one attribute as an alias of another. An attribute may
// declare at most one alias. Two attributes may declare each other, forming
// a mutual pair; any longer loop is rejected at compile time.
type AliasEdge struct {
	From AttrRef
	To   AttrRef
}

// Composite is a directive that aggregates member directives and declares
// alias edges between attributes, typically from its own surface attributes
// to member attributes.
type Composite struct {
	Name    string
	Attrs   []Attribute
	Members []*Directive
	Aliases []AliasEdge
}

type compiledAttr struct {
	ref  AttrRef
	attr Attribute
	def  any
}

// Model is a compiled, validated composite definition. It is immutable and
// safe for concurrent readers; per-instance state lives on Instance.
type Model struct {
	Composite *Composite

	attrs   map[AttrRef]*compiledAttr
	order   []AttrRef
	classes [][]AttrRef
	classOf map[AttrRef]int
}

// Compile validates a composite definition and builds its alias equivalence
// classes.
//
// Validation covers, in order: attribute tables (unique names, known kinds,
// defaults matching the declared kind), alias edges (both endpoints exist,
// kinds agree, one alias per attribute), alias cycles, and default identity
// inside every equivalence class. The first violation is returned as a
// MalformedDirectiveError or AliasCycleError and nothing is cached.
func Compile(composite *Composite) (*Model, error) {
	if composite == nil {
		return nil, &MalformedDirectiveError{Reason: "nil composite"}
	}
	if composite.Name == "" {
		return nil, &MalformedDirectiveError{Reason: "composite has no name"}
	}

	m := &Model{
		Composite: composite,
		attrs:     make(map[AttrRef]*compiledAttr),
		classOf:   make(map[AttrRef]int),
	}

	type unit struct {
		name  string
		attrs []Attribute
	}
	units := make([]unit, 0, len(composite.Members)+1)
	units = append(units, unit{name: composite.Name, attrs: composite.Attrs})
	seenUnits := map[string]struct{}{composite.Name: {}}
	for _, member := range composite.Members {
		if member == nil || member.Name == "" {
			return nil, &MalformedDirectiveError{Directive: composite.Name, Reason: "member directive has no name"}
		}
		if _, dup := seenUnits[member.Name]; dup {
			return nil, &MalformedDirectiveError{Directive: member.Name, Reason: "duplicate directive name"}
		}
		seenUnits[member.Name] = struct{}{}
		units = append(units, unit{name: member.Name, attrs: member.Attrs})
	}

	for _, u := range units {
		for _, a := range u.attrs {
			if a.Name == "" {
				return nil, &MalformedDirectiveError{Directive: u.name, Reason: "attribute has no name"}
			}
			ref := AttrRef{Directive: u.name, Attribute: a.Name}
			if _, dup := m.attrs[ref]; dup {
				return nil, &MalformedDirectiveError{Directive: u.name, Attribute: a.Name, Reason: "duplicate attribute name"}
			}
			def, err := normalizeValue(a, a.Default)
			if err != nil {
				return nil, &MalformedDirectiveError{Directive: u.name, Attribute: a.Name, Reason: fmt.Sprintf("default: %v", err)}
			}
			m.attrs[ref] = &compiledAttr{ref: ref, attr: a, def: def}
			m.order = append(m.order, ref)
		}
	}

	outgoing := make(map[AttrRef]AttrRef, len(composite.Aliases))
	for _, edge := range composite.Aliases {
		from, ok := m.attrs[edge.From]
		if !ok {
			return nil, &MalformedDirectiveError{
				Directive: edge.From.Directive,
				Attribute: edge.From.Attribute,
				Reason:    "alias declared on unknown attribute",
			}
		}
		to, ok := m.attrs[edge.To]
		if !ok {
			return nil, &MalformedDirectiveError{
				Directive: edge.From.Directive,
				Attribute: edge.From.Attribute,
				Reason:    fmt.Sprintf("alias target '%s' does not exist", edge.To),
			}
		}
		if _, dup := outgoing[edge.From]; dup {
			return nil, &MalformedDirectiveError{
				Directive: edge.From.Directive,
				Attribute: edge.From.Attribute,
				Reason:    "attribute declares more than one alias",
			}
		}
		if from.attr.Kind != to.attr.Kind {
			return nil, &MalformedDirectiveError{
				Directive: edge.From.Directive,
				Attribute: edge.From.Attribute,
				Reason:    fmt.Sprintf("kind %s does not match kind %s of alias '%s'", from.attr.Kind, to.attr.Kind, edge.To),
			}
		}
		outgoing[edge.From] = edge.To
	}

	if err := checkAliasCycles(m.order, outgoing); err != nil {
		return nil, err
	}

	uf := newUnionFind()
	for _, edge := range composite.Aliases {
		uf.union(edge.From, edge.To)
	}
	groups := make(map[AttrRef][]AttrRef)
	for _, ref := range m.order {
		root := uf.find(ref)
		groups[root] = append(groups[root], ref)
	}
	seenRoots := make(map[AttrRef]struct{})
	for _, ref := range m.order {
		root := uf.find(ref)
		if _, done := seenRoots[root]; done {
			continue
		}
		seenRoots[root] = struct{}{}
		idx := len(m.classes)
		members := groups[root]
		m.classes = append(m.classes, members)
		for _, member := range members {
			m.classOf[member] = idx
		}
	}

	for _, class := range m.classes {
		if len(class) < 2 {
			continue
		}
		base := m.attrs[class[0]]
		for _, ref := range class[1:] {
			other := m.attrs[ref]
			if !valueEqual(base.def, other.def) {
				return nil, &MalformedDirectiveError{
					Directive: ref.Directive,
					Attribute: ref.Attribute,
					Reason:    fmt.Sprintf("default %v differs from default %v of alias '%s'", other.def, base.def, class[0]),
				}
			}
		}
	}

	return m, nil
}

// checkAliasCycles walks the alias graph. Every attribute has at most one
// outgoing edge, so each walk either terminates or closes a loop. A loop of
// two distinct attributes is a mutual pair and allowed; anything else,
// including an attribute aliasing itself, is reported with the full chain.
func checkAliasCycles(order []AttrRef, outgoing map[AttrRef]AttrRef) error {
	const (
		white = iota
		grey
		black
	)
	state := make(map[AttrRef]int, len(order))
	for _, start := range order {
		if state[start] != white {
			continue
		}
		var path []AttrRef
		cur := start
		for {
			state[cur] = grey
			path = append(path, cur)
			next, ok := outgoing[cur]
			if !ok || state[next] == black {
				break
			}
			if state[next] == grey {
				idx := 0
				for i, ref := range path {
					if ref == next {
						idx = i
						break
					}
				}
				cycle := append(append([]AttrRef{}, path[idx:]...), next)
				// a mutual pair closes as [a, b, a]
				if len(cycle) != 3 {
					return &AliasCycleError{Chain: cycle}
				}
				break
			}
			cur = next
		}
		for _, ref := range path {
			state[ref] = black
		}
	}
	return nil
}

// Attr returns the declared attribute for ref.
func (m *Model) Attr(ref AttrRef) (Attribute, bool) {
	ca, ok := m.attrs[ref]
	if !ok {
		return Attribute{}, false
	}
	return ca.attr, true
}

// Refs returns every attribute reference in declaration order. The returned
// slice is shared; treat it as read-only.
func (m *Model) Refs() []AttrRef {
	return m.order
}

// Classes returns the alias equivalence classes in declaration order.
// Attributes with no alias form singleton classes.
func (m *Model) Classes() [][]AttrRef {
	return m.classes
}

// ClassOf returns the equivalence class containing ref, or nil for an
// unknown attribute.
func (m *Model) ClassOf(ref AttrRef) []AttrRef {
	idx, ok := m.classOf[ref]
	if !ok {
		return nil
	}
	return m.classes[idx]
}

// normalizeValue checks a value against the declared attribute kind and
// returns its canonical form. Nil lists become empty lists so equality
// checks never have to distinguish the two.
func normalizeValue(attr Attribute, v any) (any, error) {
	switch attr.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected enum string, got %T", v)
		}
		for _, allowed := range attr.Enum {
			if s == allowed {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value %q not in enum %v", s, attr.Enum)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	case KindStringList:
		if v == nil {
			return []string{}, nil
		}
		xs, ok := v.([]string)
		if !ok {
			return nil, fmt.Errorf("expected []string, got %T", v)
		}
		out := make([]string, len(xs))
		copy(out, xs)
		return out, nil
	case KindTypeRef:
		ref, ok := v.(TypeRef)
		if !ok {
			return nil, fmt.Errorf("expected TypeRef, got %T", v)
		}
		return ref, nil
	case KindTypeRefList:
		if v == nil {
			return []TypeRef{}, nil
		}
		refs, ok := v.([]TypeRef)
		if !ok {
			return nil, fmt.Errorf("expected []TypeRef, got %T", v)
		}
		out := make([]TypeRef, len(refs))
		copy(out, refs)
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported attribute kind %d", attr.Kind)
	}
}

// valueEqual compares two normalized attribute values.
func valueEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

type unionFind struct {
	parent map[AttrRef]AttrRef
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[AttrRef]AttrRef)}
}

func (u *unionFind) find(x AttrRef) AttrRef {
	p, ok := u.parent[x]
	if !ok || p == x {
		return x
	}
	root := u.find(p)
	u.parent[x] = root
	return root
}

func (u *unionFind) union(a, b AttrRef) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
