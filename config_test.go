package bootmark

import (
	"errors"
	"testing"

	"github.com/bootmark/go-bootmark/core"
	"github.com/bootmark/go-bootmark/markers"
)

func TestWithEntryPackage(t *testing.T) {
	if err := withEntryPackage(&BootstrapConfig{}); err == nil {
		t.Error("withEntryPackage() accepted an empty entry package")
	}
	if err := withEntryPackage(&BootstrapConfig{EntryPackage: "app"}); err != nil {
		t.Errorf("withEntryPackage() error = %v", err)
	}
}

func TestWithEntryName(t *testing.T) {
	tests := []struct {
		name   string
		config BootstrapConfig
		want   string
	}{
		{
			name:   "derived from entry type",
			config: BootstrapConfig{EntryType: core.TypeRef{Pkg: "app", Name: "MainApp"}},
			want:   "mainApp",
		},
		{
			name:   "explicit name wins",
			config: BootstrapConfig{EntryName: "custom", EntryType: core.TypeRef{Pkg: "app", Name: "MainApp"}},
			want:   "custom",
		},
		{
			name:   "nothing to derive from",
			config: BootstrapConfig{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := withEntryName(&tt.config); err != nil {
				t.Fatalf("withEntryName() error = %v", err)
			}
			if tt.config.EntryName != tt.want {
				t.Errorf("EntryName = %q, want %q", tt.config.EntryName, tt.want)
			}
		})
	}
}

func TestWithHostVersion(t *testing.T) {
	if err := withHostVersion(&BootstrapConfig{}); err != nil {
		t.Errorf("withHostVersion() error = %v for unset version", err)
	}
	if err := withHostVersion(&BootstrapConfig{HostVersion: "5.0.0"}); err != nil {
		t.Errorf("withHostVersion() error = %v", err)
	}
	if err := withHostVersion(&BootstrapConfig{HostVersion: "not-a-version"}); err == nil {
		t.Error("withHostVersion() accepted an unparsable version")
	}
}

func TestWithDefaultScanner(t *testing.T) {
	config := &BootstrapConfig{ScanRoots: []string{"."}}
	if err := withDefaultScanner(config); err != nil {
		t.Fatalf("withDefaultScanner() error = %v", err)
	}
	if _, ok := config.Scanner.(*markers.SourceScanner); !ok {
		t.Errorf("Scanner = %T, want source scanner over the roots", config.Scanner)
	}

	custom := &fakeScanner{}
	config = &BootstrapConfig{ScanRoots: []string{"."}, Scanner: custom}
	if err := withDefaultScanner(config); err != nil {
		t.Fatalf("withDefaultScanner() error = %v", err)
	}
	if config.Scanner != custom {
		t.Error("withDefaultScanner() replaced a configured scanner")
	}

	config = &BootstrapConfig{}
	if err := withDefaultScanner(config); err != nil {
		t.Fatalf("withDefaultScanner() error = %v", err)
	}
	if config.Scanner != nil {
		t.Error("withDefaultScanner() installed a scanner without roots")
	}
}

func TestWithExcludeFilters(t *testing.T) {
	config := &BootstrapConfig{
		ExcludeFilters: []core.ExcludeFilter{core.RegexNameFilter{Pattern: `.*Legacy.*`}},
	}
	if err := withExcludeFilters(config); err != nil {
		t.Errorf("withExcludeFilters() error = %v", err)
	}

	config = &BootstrapConfig{
		ExcludeFilters: []core.ExcludeFilter{core.RegexNameFilter{Pattern: `(`}},
	}
	if err := withExcludeFilters(config); err == nil {
		t.Error("withExcludeFilters() accepted an invalid regex")
	}
}

func TestValidate_PanicsOnError(t *testing.T) {
	wantErr := errors.New("rejected")
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("Validate() did not panic")
		} else if err, ok := r.(error); !ok || !errors.Is(err, wantErr) {
			t.Errorf("panic = %v, want validator error", r)
		}
	}()

	config := &BootstrapConfig{}
	config.Validate(func(*BootstrapConfig) error { return wantErr })
}
