package bootmark

import (
	"github.com/bootmark/go-bootmark/core"
	"github.com/bootmark/go-bootmark/markers"
)

// Directive names making up the Application marker.
const (
	ApplicationDirective   = "Application"
	FactoryConfigDirective = "FactoryConfig"
	AutoDiscoveryDirective = "AutoDiscovery"
	ComponentScanDirective = "ComponentScan"
)

// Attribute names on the Application marker surface.
const (
	AttrExclude                = "exclude"
	AttrExcludeName            = "excludeName"
	AttrScanBasePackages       = "scanBasePackages"
	AttrScanBasePackageClasses = "scanBasePackageClasses"
	AttrNameGenerator          = "nameGenerator"
	AttrProxyBeanMethods       = "proxyBeanMethods"
)

// InheritNameGenerator is the sentinel default of the nameGenerator
// attribute. A marker left at this exact type reference keeps whatever
// naming strategy the container already uses; only a different explicit
// reference overrides it. Comparison is by type identity, never by value
// shape.
var InheritNameGenerator = core.TypeRef{
	Pkg:  "github.com/bootmark/go-bootmark",
	Name: "NameGenerator",
}

// appRef addresses an attribute on the Application surface.
func appRef(attr string) core.AttrRef {
	return core.AttrRef{Directive: ApplicationDirective, Attribute: attr}
}

func memberRef(directive, attr string) core.AttrRef {
	return core.AttrRef{Directive: directive, Attribute: attr}
}

// newApplicationComposite declares the Application marker: three member
// directives plus the surface attributes, each aliased onto the member
// attribute it stands for. Aliased pairs must share a default, which Compile
// enforces.
func newApplicationComposite() *core.Composite {
	factoryConfig := &core.Directive{
		Name: FactoryConfigDirective,
		Attrs: []core.Attribute{
			{Name: "proxyMethods", Kind: core.KindBool, Default: true,
				Doc: "proxy factory methods so repeated calls return the registered instance"},
		},
	}
	autoDiscovery := &core.Directive{
		Name: AutoDiscoveryDirective,
		Attrs: []core.Attribute{
			{Name: "exclude", Kind: core.KindTypeRefList, Default: []core.TypeRef{},
				Doc: "capability identities never auto-imported"},
			{Name: "excludeName", Kind: core.KindStringList, Default: []string{},
				Doc: "capability names never auto-imported, matched lazily by name"},
		},
	}
	componentScan := &core.Directive{
		Name: ComponentScanDirective,
		Attrs: []core.Attribute{
			{Name: "basePackages", Kind: core.KindStringList, Default: []string{},
				Doc: "explicit scan roots"},
			{Name: "basePackageClasses", Kind: core.KindTypeRefList, Default: []core.TypeRef{},
				Doc: "scan roots derived from these types' packages"},
			{Name: "nameGenerator", Kind: core.KindTypeRef, Default: InheritNameGenerator,
				Sentinel: &InheritNameGenerator,
				Doc:      "naming strategy for discovered units, sentinel means inherit"},
		},
	}
	return &core.Composite{
		Name: ApplicationDirective,
		Attrs: []core.Attribute{
			{Name: AttrExclude, Kind: core.KindTypeRefList, Default: []core.TypeRef{}},
			{Name: AttrExcludeName, Kind: core.KindStringList, Default: []string{}},
			{Name: AttrScanBasePackages, Kind: core.KindStringList, Default: []string{}},
			{Name: AttrScanBasePackageClasses, Kind: core.KindTypeRefList, Default: []core.TypeRef{}},
			{Name: AttrNameGenerator, Kind: core.KindTypeRef, Default: InheritNameGenerator,
				Sentinel: &InheritNameGenerator},
			{Name: AttrProxyBeanMethods, Kind: core.KindBool, Default: true},
		},
		Members: []*core.Directive{factoryConfig, autoDiscovery, componentScan},
		Aliases: []core.AliasEdge{
			{From: appRef(AttrExclude), To: memberRef(AutoDiscoveryDirective, "exclude")},
			{From: appRef(AttrExcludeName), To: memberRef(AutoDiscoveryDirective, "excludeName")},
			{From: appRef(AttrScanBasePackages), To: memberRef(ComponentScanDirective, "basePackages")},
			{From: appRef(AttrScanBasePackageClasses), To: memberRef(ComponentScanDirective, "basePackageClasses")},
			{From: appRef(AttrNameGenerator), To: memberRef(ComponentScanDirective, "nameGenerator")},
			{From: appRef(AttrProxyBeanMethods), To: memberRef(FactoryConfigDirective, "proxyMethods")},
		},
	}
}

// Compiled Application models are cached here so every Runtime in the
// process shares one validated definition.
var defaultRegistry = core.NewRegistry()

// Application returns the compiled model of the composed Application marker.
// The definition is validated and compiled at most once per process;
// concurrent callers share the cached model.
func Application() (*core.Model, error) {
	return defaultRegistry.Compile(newApplicationComposite())
}

// MustApplication is like Application but panics on a definition error.
// The shipped definition compiles; this exists for package-level variable
// initialization in callers.
func MustApplication() *core.Model {
	model, err := Application()
	if err != nil {
		panic(err)
	}
	return model
}

// ApplicationMarker is one use of the Application marker: the attribute
// values an entry point declares. Nil slices and zero references mean "not
// set", so defaults and alias propagation apply; an empty non-nil slice is
// an explicit empty value.
type ApplicationMarker struct {
	Exclude                []core.TypeRef
	ExcludeName            []string
	ScanBasePackages       []string
	ScanBasePackageClasses []core.TypeRef
	NameGenerator          core.TypeRef
	ProxyBeanMethods       *bool
}

// Bool returns a pointer to v, for literal ProxyBeanMethods values.
func Bool(v bool) *bool {
	return &v
}

// Assignments converts the marker's explicitly set fields into instance
// assignments on the Application surface.
func (m ApplicationMarker) Assignments() []core.Assignment {
	var out []core.Assignment
	if m.Exclude != nil {
		out = append(out, core.Assignment{Ref: appRef(AttrExclude), Value: m.Exclude})
	}
	if m.ExcludeName != nil {
		out = append(out, core.Assignment{Ref: appRef(AttrExcludeName), Value: m.ExcludeName})
	}
	if m.ScanBasePackages != nil {
		out = append(out, core.Assignment{Ref: appRef(AttrScanBasePackages), Value: m.ScanBasePackages})
	}
	if m.ScanBasePackageClasses != nil {
		out = append(out, core.Assignment{Ref: appRef(AttrScanBasePackageClasses), Value: m.ScanBasePackageClasses})
	}
	if !m.NameGenerator.IsZero() {
		out = append(out, core.Assignment{Ref: appRef(AttrNameGenerator), Value: m.NameGenerator})
	}
	if m.ProxyBeanMethods != nil {
		out = append(out, core.Assignment{Ref: appRef(AttrProxyBeanMethods), Value: *m.ProxyBeanMethods})
	}
	return out
}

// FromSource converts application marker values parsed out of source
// comments into an ApplicationMarker. String type references are split on
// the last dot into package and name.
func FromSource(values markers.ApplicationValues) ApplicationMarker {
	marker := ApplicationMarker{
		ExcludeName:      values.ExcludeName,
		ScanBasePackages: values.ScanBasePackages,
		ProxyBeanMethods: values.ProxyBeanMethods,
	}
	if values.Exclude != nil {
		marker.Exclude = make([]core.TypeRef, 0, len(values.Exclude))
		for _, s := range values.Exclude {
			marker.Exclude = append(marker.Exclude, core.ParseTypeRef(s))
		}
	}
	if values.ScanBasePackageClasses != nil {
		marker.ScanBasePackageClasses = make([]core.TypeRef, 0, len(values.ScanBasePackageClasses))
		for _, s := range values.ScanBasePackageClasses {
			marker.ScanBasePackageClasses = append(marker.ScanBasePackageClasses, core.ParseTypeRef(s))
		}
	}
	if values.NameGenerator != "" {
		marker.NameGenerator = core.ParseTypeRef(values.NameGenerator)
	}
	return marker
}
