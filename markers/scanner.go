package markers

import (
	"context"
	"go/ast"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bootmark/go-bootmark/core"
)

// Marker names recognized by the source scanner.
const (
	ComponentMarker   = "bootmark:component"
	CapabilityMarker  = "bootmark:capability"
	ApplicationMarker = "bootmark:application"
)

// ComponentValues carries the arguments of a bootmark:component marker.
type ComponentValues struct {
	Name    string `marker:"name,optional"`
	Profile string `marker:"profile,optional"`
}

// CapabilityValues carries the arguments of a bootmark:capability marker.
// Requires names the minimum host version the capability needs.
type CapabilityValues struct {
	Name     string `marker:"name,optional"`
	Requires string `marker:"requires,optional"`
}

// ApplicationValues carries the arguments of a bootmark:application marker.
// Slice and pointer fields absent from the marker stay nil, meaning unset.
type ApplicationValues struct {
	Exclude                []string `marker:"exclude,optional"`
	ExcludeName            []string `marker:"excludeName,optional"`
	ScanBasePackages       []string `marker:"scanBasePackages,optional"`
	ScanBasePackageClasses []string `marker:"scanBasePackageClasses,optional"`
	NameGenerator          string   `marker:"nameGenerator,optional"`
	ProxyBeanMethods       *bool    `marker:"proxyBeanMethods,optional"`
}

// Annotation identities attached to candidates found by the source scanner.
var (
	ComponentAnnotation  = core.TypeRef{Pkg: "github.com/bootmark/go-bootmark/markers", Name: "Component"}
	CapabilityAnnotation = core.TypeRef{Pkg: "github.com/bootmark/go-bootmark/markers", Name: "Capability"}
)

// DefaultRegistry returns a registry with the bootmark markers registered.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.MustRegister(ComponentMarker, DescribesType, ComponentValues{},
		"marks a type as a registrable component")
	registry.MustRegister(CapabilityMarker, DescribesType, CapabilityValues{},
		"marks a type as an automatically importable capability")
	registry.MustRegister(ApplicationMarker, DescribesType, ApplicationValues{},
		"marks a type as a composed application entry point")
	return registry
}

// SourceScanner discovers candidates by parsing marker comments in Go source
// under the configured roots. Base packages from the scan spec resolve to
// directories relative to each root; a package missing under one root is
// simply skipped.
type SourceScanner struct {
	Roots []string

	collector *Collector
}

// NewSourceScanner returns a scanner over the given filesystem roots with
// the bootmark markers registered.
func NewSourceScanner(roots ...string) *SourceScanner {
	return &SourceScanner{
		Roots:     roots,
		collector: NewCollector(DefaultRegistry()),
	}
}

// Scan walks every base package under every root and returns the candidates
// whose types carry component or capability markers. Exclusion filters are
// not applied here; pruning stays with the caller.
func (s *SourceScanner) Scan(ctx context.Context, spec *core.ScanSpec) ([]core.Candidate, error) {
	var candidates []core.Candidate
	err := s.walkPackages(ctx, spec.BasePackages, func(pkgPath, filename string) error {
		found, err := s.fileCandidates(pkgPath, filename)
		if err != nil {
			return err
		}
		candidates = append(candidates, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// FoundApplication is one entry point type carrying the application marker.
type FoundApplication struct {
	Type   core.TypeRef
	Values ApplicationValues
	Source string
}

// Applications finds every type marked as an application entry point in the
// given packages. With no packages the roots are walked whole.
func (s *SourceScanner) Applications(ctx context.Context, pkgs ...string) ([]FoundApplication, error) {
	if len(pkgs) == 0 {
		pkgs = []string{""}
	}
	var found []FoundApplication
	err := s.walkPackages(ctx, pkgs, func(pkgPath, filename string) error {
		return s.collector.EachType(filename, func(info *TypeInfo) {
			values, ok := info.Markers.Get(ApplicationMarker).(ApplicationValues)
			if !ok {
				return
			}
			found = append(found, FoundApplication{
				Type:   core.TypeRef{Pkg: pkgPath, Name: info.Name},
				Values: values,
				Source: filename,
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// walkPackages visits every non-test Go file of every package under every
// root. Dot, underscore and testdata directories are skipped.
func (s *SourceScanner) walkPackages(ctx context.Context, pkgs []string, visit func(pkgPath, filename string) error) error {
	for _, root := range s.Roots {
		for _, pkg := range pkgs {
			dir := filepath.Join(root, filepath.FromSlash(pkg))
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}
			err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				name := d.Name()
				if d.IsDir() {
					if path != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
						return filepath.SkipDir
					}
					return nil
				}
				if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
					return nil
				}
				pkgPath := pkg
				if rel, relErr := filepath.Rel(dir, filepath.Dir(path)); relErr == nil && rel != "." {
					if pkgPath == "" {
						pkgPath = filepath.ToSlash(rel)
					} else {
						pkgPath = pkgPath + "/" + filepath.ToSlash(rel)
					}
				}
				return visit(pkgPath, path)
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// fileCandidates extracts the marked types of one file as candidates.
func (s *SourceScanner) fileCandidates(pkgPath, filename string) ([]core.Candidate, error) {
	var candidates []core.Candidate
	err := s.collector.EachType(filename, func(info *TypeInfo) {
		component, isComponent := info.Markers.Get(ComponentMarker).(ComponentValues)
		capability, isCapability := info.Markers.Get(CapabilityMarker).(CapabilityValues)
		if !isComponent && !isCapability {
			return
		}
		candidate := core.Candidate{
			Type:       core.TypeRef{Pkg: pkgPath, Name: info.Name},
			Implements: embeddedTypes(pkgPath, info),
			Source:     filename,
		}
		if isComponent {
			candidate.Name = component.Name
			candidate.Annotations = append(candidate.Annotations, ComponentAnnotation)
		}
		if isCapability {
			if candidate.Name == "" {
				candidate.Name = capability.Name
			}
			candidate.Annotations = append(candidate.Annotations, CapabilityAnnotation)
			candidate.RequiresVersion = capability.Requires
		}
		if candidate.Name == "" {
			candidate.Name = DefaultName(info.Name)
		}
		candidates = append(candidates, candidate)
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// embeddedTypes lists a type's embedded fields as references. Qualified
// embeds keep the package qualifier as written in source; unqualified ones
// take the scanned package.
func embeddedTypes(pkgPath string, info *TypeInfo) []core.TypeRef {
	var refs []core.TypeRef
	for _, field := range info.Fields {
		if field.Name != "" || field.RawField == nil {
			continue
		}
		qualifier, name := typeExprName(field.RawField.Type)
		if name == "" {
			continue
		}
		if qualifier == "" {
			qualifier = pkgPath
		}
		refs = append(refs, core.TypeRef{Pkg: qualifier, Name: name})
	}
	return refs
}

// typeExprName unwraps an embedded field's type expression down to its
// qualifier and name.
func typeExprName(expr ast.Expr) (string, string) {
	switch t := expr.(type) {
	case *ast.Ident:
		return "", t.Name
	case *ast.StarExpr:
		return typeExprName(t.X)
	case *ast.SelectorExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name, t.Sel.Name
		}
	}
	return "", ""
}
