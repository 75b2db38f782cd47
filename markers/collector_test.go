package markers

import (
	"os"
	"path/filepath"
	"testing"
)

const collectorSrc = `// Package app holds test fixtures.
package app

import "io"

// CacheService stores things.
// +bootmark:component=name=cache
type CacheService struct {
	io.Closer
	Helper
	name string
}

// Plain carries no markers.
type Plain struct{}

// +bootmark:capability=requires=2.0.0
type Exporter struct{}
`

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestCollector_ParseSource(t *testing.T) {
	collector := NewCollector(DefaultRegistry())

	found, err := collector.ParseSource("app.go", collectorSrc)
	if err != nil {
		t.Fatalf("ParseSource() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found %d markers, want 2: %+v", len(found), found)
	}

	if found[0].Name != ComponentMarker || found[1].Name != CapabilityMarker {
		t.Errorf("markers out of source order: %s, %s", found[0].Name, found[1].Name)
	}
	component, ok := found[0].Value.(ComponentValues)
	if !ok || component.Name != "cache" {
		t.Errorf("component value = %+v", found[0].Value)
	}
	if found[0].Target != DescribesType {
		t.Errorf("target = %v, want type", found[0].Target)
	}
}

func TestCollector_ParseFileCaches(t *testing.T) {
	path := writeSource(t, t.TempDir(), "app.go", collectorSrc)
	collector := NewCollector(DefaultRegistry())

	first, err := collector.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	// A cached file is never re-read, so rewriting it must not change the result.
	if err := os.WriteFile(path, []byte("package app\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	second, err := collector.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(first) != len(second) {
		t.Errorf("cache miss: first=%d second=%d", len(first), len(second))
	}
}

func TestCollector_EachType(t *testing.T) {
	path := writeSource(t, t.TempDir(), "app.go", collectorSrc)
	collector := NewCollector(DefaultRegistry())

	infos := make(map[string]*TypeInfo)
	err := collector.EachType(path, func(info *TypeInfo) {
		infos[info.Name] = info
	})
	if err != nil {
		t.Fatalf("EachType() error = %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("visited %d types, want 3", len(infos))
	}

	cache := infos["CacheService"]
	if cache == nil {
		t.Fatal("CacheService not visited")
	}
	if !cache.Markers.Has(ComponentMarker) {
		t.Error("component marker not collected")
	}
	if cache.Doc != "CacheService stores things." {
		t.Errorf("Doc = %q", cache.Doc)
	}
	if len(cache.Fields) != 3 {
		t.Fatalf("collected %d fields, want 3", len(cache.Fields))
	}
	if cache.Fields[0].Name != "" || cache.Fields[1].Name != "" {
		t.Error("embedded fields should have empty names")
	}
	if cache.Fields[2].Name != "name" {
		t.Errorf("Fields[2].Name = %q, want name", cache.Fields[2].Name)
	}

	if infos["Plain"].Markers.Has(ComponentMarker) {
		t.Error("unmarked type collected a marker")
	}
	if !infos["Exporter"].Markers.Has(CapabilityMarker) {
		t.Error("capability marker not collected")
	}
}

func TestCollector_UnknownMarkersAreSkipped(t *testing.T) {
	src := `package app

// +some:other=thing
// +bootmark:component
type Service struct{}
`
	collector := NewCollector(DefaultRegistry())
	found, err := collector.ParseSource("app.go", src)
	if err != nil {
		t.Fatalf("ParseSource() error = %v", err)
	}
	if len(found) != 1 || found[0].Name != ComponentMarker {
		t.Errorf("found = %+v, want only the component marker", found)
	}
}
