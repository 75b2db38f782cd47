package markers

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"
	"sync"
)

// Collector collects and parses marker comments from Go source code.
type Collector struct {
	Registry *Registry

	// Cache parsed results by file path
	cache map[string][]MarkerValue
	mu    sync.RWMutex
}

// NewCollector creates a new marker collector with the given registry.
func NewCollector(registry *Registry) *Collector {
	return &Collector{
		Registry: registry,
		cache:    make(map[string][]MarkerValue),
	}
}

// ParseFile parses all markers in a Go source file.
func (c *Collector) ParseFile(filename string) ([]MarkerValue, error) {
	c.mu.RLock()
	if cached, exists := c.cache[filename]; exists {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filename, err)
	}

	found := c.parseFileAST(file)

	c.mu.Lock()
	c.cache[filename] = found
	c.mu.Unlock()

	return found, nil
}

// ParseSource parses markers from Go source code provided as a string.
func (c *Collector) ParseSource(filename string, src string) ([]MarkerValue, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}

	return c.parseFileAST(file), nil
}

// EachType calls the callback for each type declared in the file, with the
// markers and fields collected for it.
func (c *Collector) EachType(filename string, callback TypeCallback) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("failed to parse file %s: %w", filename, err)
	}

	nodeMarkers := c.collectNodeMarkers(file)

	ast.Inspect(file, func(n ast.Node) bool {
		if node, ok := n.(*ast.GenDecl); ok && node.Tok == token.TYPE {
			for _, spec := range node.Specs {
				if typeSpec, ok := spec.(*ast.TypeSpec); ok {
					callback(c.buildTypeInfo(typeSpec, node, nodeMarkers))
				}
			}
		}
		return true
	})

	return nil
}

// parseFileAST collects every known marker in the file, in source order.
func (c *Collector) parseFileAST(file *ast.File) []MarkerValue {
	var found []MarkerValue

	nodeMarkers := c.collectNodeMarkers(file)

	for node, comments := range nodeMarkers {
		target := c.getTargetType(node)

		for _, comment := range comments {
			markerText := extractMarkerText(comment.Text)
			if !strings.HasPrefix(markerText, "+") {
				continue
			}

			def := c.Registry.Lookup(markerText, target)
			if def == nil {
				continue // Unknown marker, skip
			}

			value, err := def.Parse(markerText)
			if err != nil {
				continue // Parse error, skip
			}

			found = append(found, MarkerValue{
				Name:     def.Name,
				Value:    value,
				Target:   target,
				Position: comment.Pos(),
			})
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Position < found[j].Position })
	return found
}

// collectNodeMarkers associates marker comments with AST nodes.
func (c *Collector) collectNodeMarkers(file *ast.File) map[ast.Node][]*ast.Comment {
	nodeMarkers := make(map[ast.Node][]*ast.Comment)

	markersFromDoc := func(doc *ast.CommentGroup) []*ast.Comment {
		if doc == nil {
			return nil
		}
		var comments []*ast.Comment
		for _, comment := range doc.List {
			if isMarkerComment(comment.Text) {
				comments = append(comments, comment)
			}
		}
		return comments
	}

	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil {
			return false
		}

		var associatedComments []*ast.Comment
		switch node := n.(type) {
		case *ast.GenDecl:
			associatedComments = markersFromDoc(node.Doc)
		case *ast.TypeSpec:
			associatedComments = markersFromDoc(node.Doc)
		case *ast.Field:
			associatedComments = markersFromDoc(node.Doc)
		}

		if len(associatedComments) > 0 {
			nodeMarkers[n] = associatedComments
		}

		return true
	})

	if fileComments := markersFromDoc(file.Doc); len(fileComments) > 0 {
		nodeMarkers[file] = fileComments
	}

	return nodeMarkers
}

// getTargetType determines the target type for an AST node.
func (c *Collector) getTargetType(node ast.Node) TargetType {
	switch node.(type) {
	case *ast.File:
		return DescribesPackage
	case *ast.Field:
		return DescribesField
	default:
		return DescribesType
	}
}

// buildTypeInfo creates a TypeInfo from an AST type spec.
func (c *Collector) buildTypeInfo(typeSpec *ast.TypeSpec, genDecl *ast.GenDecl, nodeMarkers map[ast.Node][]*ast.Comment) *TypeInfo {
	typeMarkers := c.buildMarkerValues(typeSpec, nodeMarkers)
	doc := c.extractDoc(typeSpec.Doc)

	// Comments on a single-type declaration attach to the GenDecl, not the spec
	if len(genDecl.Specs) == 1 {
		declMarkers := c.buildMarkerValues(genDecl, nodeMarkers)
		for name, values := range declMarkers {
			typeMarkers[name] = append(typeMarkers[name], values...)
		}
		if doc == "" {
			doc = c.extractDoc(genDecl.Doc)
		}
	}

	var fields []FieldInfo
	if structType, ok := typeSpec.Type.(*ast.StructType); ok {
		for _, field := range structType.Fields.List {
			fieldMarkers := c.buildMarkerValues(field, nodeMarkers)

			if len(field.Names) > 0 {
				for _, name := range field.Names {
					fields = append(fields, FieldInfo{
						Name:     name.Name,
						Markers:  fieldMarkers,
						Doc:      c.extractDoc(field.Doc),
						RawField: field,
					})
				}
			} else {
				// Embedded field
				fields = append(fields, FieldInfo{
					Name:     "",
					Markers:  fieldMarkers,
					Doc:      c.extractDoc(field.Doc),
					RawField: field,
				})
			}
		}
	}

	return &TypeInfo{
		Name:    typeSpec.Name.Name,
		Markers: typeMarkers,
		Fields:  fields,
		Doc:     doc,
		RawSpec: typeSpec,
	}
}

// buildMarkerValues builds MarkerValues from AST node comments.
func (c *Collector) buildMarkerValues(node ast.Node, nodeMarkers map[ast.Node][]*ast.Comment) MarkerValues {
	values := make(MarkerValues)

	comments, exists := nodeMarkers[node]
	if !exists {
		return values
	}

	target := c.getTargetType(node)

	for _, comment := range comments {
		markerText := extractMarkerText(comment.Text)
		if !strings.HasPrefix(markerText, "+") {
			continue
		}

		def := c.Registry.Lookup(markerText, target)
		if def == nil {
			continue
		}

		value, err := def.Parse(markerText)
		if err != nil {
			continue
		}

		values[def.Name] = append(values[def.Name], value)
	}

	return values
}

// extractDoc extracts documentation text from a comment group. Marker
// comments are not documentation and are left out.
func (c *Collector) extractDoc(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}

	var lines []string
	for _, comment := range doc.List {
		if isMarkerComment(comment.Text) {
			continue
		}
		line := comment.Text
		if strings.HasPrefix(line, "//") {
			line = strings.TrimSpace(line[2:])
		} else if strings.HasPrefix(line, "/*") && strings.HasSuffix(line, "*/") {
			line = strings.TrimSpace(line[2 : len(line)-2])
		}
		if line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}
