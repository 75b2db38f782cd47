package markers

import (
	"testing"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := DefaultRegistry()

	def := registry.Lookup("+bootmark:component=name=cache", DescribesType)
	if def == nil {
		t.Fatal("Lookup() = nil for registered marker")
	}
	if def.Name != ComponentMarker {
		t.Errorf("Name = %q, want %q", def.Name, ComponentMarker)
	}

	if registry.Lookup("+bootmark:component", DescribesField) != nil {
		t.Error("Lookup() found a type marker under the field target")
	}
	if registry.Lookup("+unknown:marker", DescribesType) != nil {
		t.Error("Lookup() found an unregistered marker")
	}
	if registry.GetDefinition(ApplicationMarker) == nil {
		t.Error("GetDefinition() = nil for registered marker")
	}
}

func TestRegistry_AnalyzesOutputType(t *testing.T) {
	def := DefaultRegistry().GetDefinition(ApplicationMarker)

	arg, ok := def.Fields["proxyBeanMethods"]
	if !ok {
		t.Fatal("argument proxyBeanMethods not analyzed")
	}
	if arg.Type != BoolType || !arg.Optional {
		t.Errorf("proxyBeanMethods = %+v, want optional bool", arg)
	}

	arg, ok = def.Fields["excludeName"]
	if !ok {
		t.Fatal("argument excludeName not analyzed")
	}
	if arg.Type != SliceType || arg.ItemType == nil || arg.ItemType.Type != StringType {
		t.Errorf("excludeName = %+v, want slice of strings", arg)
	}

	if def.FieldNames["scanBasePackages"] != "ScanBasePackages" {
		t.Errorf("FieldNames[scanBasePackages] = %q", def.FieldNames["scanBasePackages"])
	}
}

func TestDefaultName(t *testing.T) {
	tests := []struct {
		typeName string
		want     string
	}{
		{typeName: "CacheService", want: "cacheService"},
		{typeName: "App", want: "app"},
		{typeName: "A", want: "a"},
		{typeName: "already", want: "already"},
		{typeName: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			if got := DefaultName(tt.typeName); got != tt.want {
				t.Errorf("DefaultName(%q) = %q, want %q", tt.typeName, got, tt.want)
			}
		})
	}
}
