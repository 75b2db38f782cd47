package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func ref(directive, attribute string) AttrRef {
	return AttrRef{Directive: directive, Attribute: attribute}
}

// serviceComposite declares a small composite with one aliased pair and one
// free attribute, used by tests that need a valid definition.
func serviceComposite() *Composite {
	web := &Directive{
		Name: "Web",
		Attrs: []Attribute{
			{Name: "paths", Kind: KindStringList, Default: []string{}},
			{Name: "handler", Kind: KindTypeRef, Default: TypeRef{Pkg: "web", Name: "Default"}},
		},
	}
	return &Composite{
		Name: "Service",
		Attrs: []Attribute{
			{Name: "paths", Kind: KindStringList, Default: []string{}},
			{Name: "mode", Kind: KindEnum, Default: "fast", Enum: []string{"fast", "safe"}},
		},
		Members: []*Directive{web},
		Aliases: []AliasEdge{
			{From: ref("Service", "paths"), To: ref("Web", "paths")},
		},
	}
}

func TestCompile_Valid(t *testing.T) {
	model, err := Compile(serviceComposite())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if got := len(model.Refs()); got != 4 {
		t.Errorf("len(Refs()) = %d, want 4", got)
	}

	class := model.ClassOf(ref("Service", "paths"))
	want := []AttrRef{ref("Service", "paths"), ref("Web", "paths")}
	if !reflect.DeepEqual(class, want) {
		t.Errorf("ClassOf(Service.paths) = %v, want %v", class, want)
	}
	if !reflect.DeepEqual(model.ClassOf(ref("Web", "paths")), class) {
		t.Error("aliased attributes ended up in different classes")
	}
	if got := len(model.ClassOf(ref("Service", "mode"))); got != 1 {
		t.Errorf("len(ClassOf(Service.mode)) = %d, want singleton", got)
	}

	attr, ok := model.Attr(ref("Web", "handler"))
	if !ok {
		t.Fatal("Attr(Web.handler) not found")
	}
	if attr.Kind != KindTypeRef {
		t.Errorf("Attr(Web.handler).Kind = %v, want KindTypeRef", attr.Kind)
	}
}

func TestCompile_MutualPairAllowed(t *testing.T) {
	composite := serviceComposite()
	composite.Aliases = append(composite.Aliases, AliasEdge{
		From: ref("Web", "paths"), To: ref("Service", "paths"),
	})

	model, err := Compile(composite)
	if err != nil {
		t.Fatalf("Compile() with mutual pair error = %v", err)
	}
	if got := len(model.ClassOf(ref("Service", "paths"))); got != 2 {
		t.Errorf("mutual pair class size = %d, want 2", got)
	}
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		composite *Composite
		wantCycle bool
	}{
		{
			name:      "nil composite",
			composite: nil,
		},
		{
			name:      "unnamed composite",
			composite: &Composite{},
		},
		{
			name: "duplicate directive name",
			composite: &Composite{
				Name: "Service",
				Members: []*Directive{
					{Name: "Web"},
					{Name: "Web"},
				},
			},
		},
		{
			name: "duplicate attribute name",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "paths", Kind: KindStringList},
					{Name: "paths", Kind: KindStringList},
				},
			},
		},
		{
			name: "default of wrong kind",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "enabled", Kind: KindBool, Default: "yes"},
				},
			},
		},
		{
			name: "enum default outside value set",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "mode", Kind: KindEnum, Default: "turbo", Enum: []string{"fast", "safe"}},
				},
			},
		},
		{
			name: "alias declared on unknown attribute",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "paths", Kind: KindStringList},
				},
				Aliases: []AliasEdge{
					{From: ref("Service", "missing"), To: ref("Service", "paths")},
				},
			},
		},
		{
			name: "alias target does not exist",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "paths", Kind: KindStringList},
				},
				Aliases: []AliasEdge{
					{From: ref("Service", "paths"), To: ref("Web", "paths")},
				},
			},
		},
		{
			name: "two aliases from one attribute",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "a", Kind: KindString, Default: ""},
					{Name: "b", Kind: KindString, Default: ""},
					{Name: "c", Kind: KindString, Default: ""},
				},
				Aliases: []AliasEdge{
					{From: ref("Service", "a"), To: ref("Service", "b")},
					{From: ref("Service", "a"), To: ref("Service", "c")},
				},
			},
		},
		{
			name: "kind mismatch between aliased attributes",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "a", Kind: KindString, Default: ""},
					{Name: "b", Kind: KindStringList},
				},
				Aliases: []AliasEdge{
					{From: ref("Service", "a"), To: ref("Service", "b")},
				},
			},
		},
		{
			name: "differing defaults on aliased pair",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "a", Kind: KindString, Default: "x"},
					{Name: "b", Kind: KindString, Default: "y"},
				},
				Aliases: []AliasEdge{
					{From: ref("Service", "a"), To: ref("Service", "b")},
				},
			},
		},
		{
			name: "attribute aliasing itself",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "a", Kind: KindString, Default: ""},
				},
				Aliases: []AliasEdge{
					{From: ref("Service", "a"), To: ref("Service", "a")},
				},
			},
			wantCycle: true,
		},
		{
			name: "three attribute cycle",
			composite: &Composite{
				Name: "Service",
				Attrs: []Attribute{
					{Name: "a", Kind: KindString, Default: ""},
					{Name: "b", Kind: KindString, Default: ""},
					{Name: "c", Kind: KindString, Default: ""},
				},
				Aliases: []AliasEdge{
					{From: ref("Service", "a"), To: ref("Service", "b")},
					{From: ref("Service", "b"), To: ref("Service", "c")},
					{From: ref("Service", "c"), To: ref("Service", "a")},
				},
			},
			wantCycle: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.composite)
			if err == nil {
				t.Fatal("Compile() error = nil, want error")
			}
			if tt.wantCycle {
				if !IsAliasCycleErr(err) {
					t.Errorf("IsAliasCycleErr() = false for %v", err)
				}
			} else {
				if !IsMalformedDirectiveErr(err) {
					t.Errorf("IsMalformedDirectiveErr() = false for %v", err)
				}
			}
		})
	}
}

func TestCompile_CycleChainNamesAttributes(t *testing.T) {
	composite := &Composite{
		Name: "Service",
		Attrs: []Attribute{
			{Name: "a", Kind: KindString, Default: ""},
			{Name: "b", Kind: KindString, Default: ""},
			{Name: "c", Kind: KindString, Default: ""},
		},
		Aliases: []AliasEdge{
			{From: ref("Service", "a"), To: ref("Service", "b")},
			{From: ref("Service", "b"), To: ref("Service", "c")},
			{From: ref("Service", "c"), To: ref("Service", "a")},
		},
	}

	_, err := Compile(composite)
	var cycleErr *AliasCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Compile() error = %v, want AliasCycleError", err)
	}
	if len(cycleErr.Chain) != 4 {
		t.Errorf("len(Chain) = %d, want 4 (closed loop)", len(cycleErr.Chain))
	}
	msg := cycleErr.Error()
	for _, attr := range []string{"Service.a", "Service.b", "Service.c"} {
		if !strings.Contains(msg, attr) {
			t.Errorf("Error() = %q, missing %s", msg, attr)
		}
	}
}

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  TypeRef
	}{
		{
			name:  "qualified",
			input: "acme/web.Server",
			want:  TypeRef{Pkg: "acme/web", Name: "Server"},
		},
		{
			name:  "bare name",
			input: "Server",
			want:  TypeRef{Name: "Server"},
		},
		{
			name:  "dotted package",
			input: "com.example.Server",
			want:  TypeRef{Pkg: "com.example", Name: "Server"},
		},
		{
			name:  "empty",
			input: "",
			want:  TypeRef{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTypeRef(tt.input); got != tt.want {
				t.Errorf("ParseTypeRef(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTypeRef_Qualified(t *testing.T) {
	if got := (TypeRef{Pkg: "acme/web", Name: "Server"}).Qualified(); got != "acme/web.Server" {
		t.Errorf("Qualified() = %q, want %q", got, "acme/web.Server")
	}
	if got := (TypeRef{Name: "Server"}).Qualified(); got != "Server" {
		t.Errorf("Qualified() = %q, want %q", got, "Server")
	}
}
