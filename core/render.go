package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bndr/gotabulate"
)

// ######################################################
//              RENDERABLE
// ######################################################

// Renderable is implemented by report types that can present themselves
// either as a human-readable table or as JSON.
type Renderable interface {
	PrettyTable() string
	PrettyJson(indent ...string) string
}

func renderGrid(title string, headers []string, rows [][]any) string {
	if len(rows) == 0 {
		return fmt.Sprintf("%s\n<empty>", title)
	}
	tabulate := gotabulate.Create(rows)
	tabulate.SetHeaders(headers)
	tabulate.SetAlign("left")
	tabulate.SetWrapStrings(true)
	tabulate.SetMaxCellSize(85)
	return fmt.Sprintf("%s\n%s", title, tabulate.Render("grid"))
}

func renderJson(v any, indent ...string) string {
	ind := "  "
	if len(indent) > 0 {
		ind = indent[0]
	}
	out, err := json.MarshalIndent(v, "", ind)
	if err != nil {
		return fmt.Sprintf("<unserializable: %v>", err)
	}
	return string(out)
}

// ######################################################
//              RESOLUTION REPORT
// ######################################################

// ResolvedAttr is one row of a resolution report: the effective value of a
// single attribute and where it came from.
type ResolvedAttr struct {
	Ref    string `json:"ref"`
	Value  string `json:"value"`
	Origin string `json:"origin"`
	Via    string `json:"via,omitempty"`
}

// ResolutionReport lists the effective value of every attribute of a
// composite instance in declaration order.
type ResolutionReport struct {
	Composite string         `json:"composite"`
	Attrs     []ResolvedAttr `json:"attrs"`
}

func (r *ResolutionReport) PrettyTable() string {
	rows := make([][]any, 0, len(r.Attrs))
	for _, a := range r.Attrs {
		rows = append(rows, []any{a.Ref, a.Value, a.Origin, a.Via})
	}
	title := fmt.Sprintf("Resolution of '%s':", r.Composite)
	return renderGrid(title, []string{"attribute", "value", "origin", "via"}, rows)
}

func (r *ResolutionReport) PrettyJson(indent ...string) string {
	return renderJson(r, indent...)
}

// ######################################################
//              SCAN SPEC
// ######################################################

func (s *ScanSpec) PrettyTable() string {
	nameGen := "<inherit>"
	if s.NameGenerator != nil {
		nameGen = s.NameGenerator.Qualified()
	}
	rows := [][]any{
		{"basePackages", strings.Join(s.BasePackages, ", ")},
		{"nameGenerator", nameGen},
	}
	if s.Excludes != nil {
		rows = append(rows, []any{"excludeFilters", strings.Join(s.Excludes.Describe(), ", ")})
	}
	return renderGrid("Scan specification:", []string{"setting", "value"}, rows)
}

func (s *ScanSpec) PrettyJson(indent ...string) string {
	doc := map[string]any{
		"basePackages": s.BasePackages,
	}
	if s.NameGenerator != nil {
		doc["nameGenerator"] = s.NameGenerator.Qualified()
	}
	if s.Excludes != nil {
		doc["excludeFilters"] = s.Excludes.Describe()
	}
	return renderJson(doc, indent...)
}

// ######################################################
//              BOOTSTRAP REPORT
// ######################################################

// BootstrapReport summarizes one bootstrap run: what was resolved, what was
// scanned, what was registered and what was excluded along the way.
type BootstrapReport struct {
	Composite  string            `json:"composite"`
	Strategy   string            `json:"strategy"`
	Resolution *ResolutionReport `json:"resolution,omitempty"`
	Spec       *ScanSpec         `json:"scanSpec,omitempty"`
	Scanned    []Candidate       `json:"scanned,omitempty"`
	Deferred   []Candidate       `json:"deferred,omitempty"`
	Registered []Registration    `json:"registered,omitempty"`
	Excluded   []ExclusionRecord `json:"excluded,omitempty"`
}

func (r *BootstrapReport) PrettyTable() string {
	summary := func(n int, names []string) string {
		if n == 0 {
			return ""
		}
		const max = 5
		if len(names) > max {
			names = append(names[:max:max], "...")
		}
		return strings.Join(names, ", ")
	}
	scanned := make([]string, 0, len(r.Scanned))
	for _, c := range r.Scanned {
		scanned = append(scanned, c.Identity())
	}
	deferred := make([]string, 0, len(r.Deferred))
	for _, c := range r.Deferred {
		deferred = append(deferred, c.Identity())
	}
	registered := make([]string, 0, len(r.Registered))
	for _, reg := range r.Registered {
		registered = append(registered, reg.Name)
	}
	excluded := make([]string, 0, len(r.Excluded))
	for _, e := range r.Excluded {
		excluded = append(excluded, fmt.Sprintf("%s (%s)", e.Candidate.Identity(), e.Reason))
	}
	rows := [][]any{
		{"strategy", 1, r.Strategy},
		{"scanned", len(r.Scanned), summary(len(r.Scanned), scanned)},
		{"deferred", len(r.Deferred), summary(len(r.Deferred), deferred)},
		{"registered", len(r.Registered), summary(len(r.Registered), registered)},
		{"excluded", len(r.Excluded), summary(len(r.Excluded), excluded)},
	}
	title := fmt.Sprintf("Bootstrap of '%s':", r.Composite)
	return renderGrid(title, []string{"stage", "count", "detail"}, rows)
}

func (r *BootstrapReport) PrettyJson(indent ...string) string {
	return renderJson(r, indent...)
}
