package markers

import (
	"fmt"
	"go/ast"
	"go/token"
	"reflect"
	"strings"
	"unicode"
)

// TargetType describes which kind of Go construct a marker can be applied to.
type TargetType int

const (
	// DescribesPackage indicates that a marker is associated with a package.
	DescribesPackage TargetType = iota
	// DescribesType indicates that a marker is associated with a type declaration.
	DescribesType
	// DescribesField indicates that a marker is associated with a struct field.
	DescribesField
)

func (t TargetType) String() string {
	switch t {
	case DescribesPackage:
		return "package"
	case DescribesType:
		return "type"
	case DescribesField:
		return "field"
	default:
		return "unknown"
	}
}

// ArgumentType represents the type of marker arguments.
type ArgumentType int

const (
	// InvalidType represents a type that can't be parsed.
	InvalidType ArgumentType = iota
	// StringType is a string argument.
	StringType
	// IntType is an integer argument.
	IntType
	// BoolType is a boolean argument.
	BoolType
	// SliceType is a slice argument.
	SliceType
)

// Argument describes the type and properties of a marker argument.
type Argument struct {
	// Type is the type of this argument.
	Type ArgumentType
	// Optional indicates if this argument is optional.
	Optional bool
	// ItemType is the type of slice items.
	ItemType *Argument
}

// Definition defines how to parse a specific marker.
type Definition struct {
	// Name is the marker's name (e.g., "bootmark:component").
	Name string
	// Target indicates which Go constructs this marker can be applied to.
	Target TargetType
	// OutputType is the Go type that this marker parses into.
	OutputType reflect.Type
	// Fields maps argument names to their types (for struct outputs).
	Fields map[string]Argument
	// FieldNames maps argument names to struct field names.
	FieldNames map[string]string
	// Description provides help text for this marker.
	Description string
}

// MarkerValue represents a parsed marker found in source.
type MarkerValue struct {
	// Name is the marker name.
	Name string `json:"name"`
	// Value is the parsed marker value.
	Value interface{} `json:"value"`
	// Target indicates what type of construct this marker describes.
	Target TargetType `json:"target"`
	// Position is the source position of the marker comment.
	Position token.Pos `json:"position"`
}

// MarkerValues maps marker names to their parsed values.
type MarkerValues map[string][]interface{}

// Get returns the first value for the given marker name, or nil if not found.
func (v MarkerValues) Get(name string) interface{} {
	vals := v[name]
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

// GetAll returns all values for the given marker name.
func (v MarkerValues) GetAll(name string) []interface{} {
	return v[name]
}

// Has returns true if the marker name exists (even with empty values).
func (v MarkerValues) Has(name string) bool {
	_, exists := v[name]
	return exists
}

// TypeInfo contains information about a parsed Go type and its markers.
type TypeInfo struct {
	// Name is the type name.
	Name string
	// Markers are the markers associated with this type.
	Markers MarkerValues
	// Fields are the struct fields (if this is a struct type).
	Fields []FieldInfo
	// Doc is the documentation comment.
	Doc string
	// RawSpec is the raw AST type spec.
	RawSpec *ast.TypeSpec
}

// FieldInfo contains information about a struct field and its markers.
type FieldInfo struct {
	// Name is the field name. Empty for embedded fields.
	Name string
	// Markers are the markers associated with this field.
	Markers MarkerValues
	// Doc is the documentation comment.
	Doc string
	// RawField is the raw AST field.
	RawField *ast.Field
}

// TypeCallback is called for each type found during parsing.
type TypeCallback func(*TypeInfo)

// Registry holds all registered marker definitions and provides lookup functionality.
type Registry struct {
	definitions map[string]*Definition
}

// NewRegistry creates a new marker registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*Definition),
	}
}

// Register adds a marker definition to the registry.
// name: the marker name (e.g., "bootmark:component")
// target: what the marker can be applied to (package, type, field)
// outputType: the Go type that the marker parses into
// description: help text for the marker
func (r *Registry) Register(name string, target TargetType, outputType interface{}, description string) error {
	def := &Definition{
		Name:        name,
		Target:      target,
		OutputType:  reflect.TypeOf(outputType),
		Fields:      make(map[string]Argument),
		FieldNames:  make(map[string]string),
		Description: description,
	}

	if err := r.analyzeOutputType(def); err != nil {
		return fmt.Errorf("failed to analyze output type for marker %s: %w", name, err)
	}

	r.definitions[name] = def
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, target TargetType, outputType interface{}, description string) {
	if err := r.Register(name, target, outputType, description); err != nil {
		panic(err)
	}
}

// Lookup finds a marker definition by name and target type.
func (r *Registry) Lookup(markerText string, target TargetType) *Definition {
	name := r.extractMarkerName(markerText)
	def, exists := r.definitions[name]
	if !exists || def.Target != target {
		return nil
	}
	return def
}

// GetDefinition returns a marker definition by name, regardless of target type.
func (r *Registry) GetDefinition(name string) *Definition {
	return r.definitions[name]
}

// extractMarkerName extracts the marker name from marker text.
// For example, "+bootmark:component=name=cache" -> "bootmark:component"
func (r *Registry) extractMarkerName(markerText string) string {
	if strings.HasPrefix(markerText, "+") {
		markerText = markerText[1:]
	}
	parts := strings.SplitN(markerText, "=", 2)
	return strings.TrimSpace(parts[0])
}

// analyzeOutputType analyzes the output type to determine field information.
func (r *Registry) analyzeOutputType(def *Definition) error {
	if def.OutputType.Kind() != reflect.Struct {
		// For non-struct types, create a single anonymous field
		argType, err := r.argumentFromType(def.OutputType)
		if err != nil {
			return err
		}
		def.Fields[""] = argType
		def.FieldNames[""] = ""
		return nil
	}

	for i := 0; i < def.OutputType.NumField(); i++ {
		field := def.OutputType.Field(i)
		if field.PkgPath != "" {
			continue
		}

		argName := r.fieldToArgName(field.Name)
		if markerTag := field.Tag.Get("marker"); markerTag != "" {
			parts := strings.Split(markerTag, ",")
			if parts[0] != "" {
				argName = parts[0]
			}
		}

		argType, err := r.argumentFromType(field.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}

		if field.Type.Kind() == reflect.Ptr {
			argType.Optional = true
		}
		if markerTag := field.Tag.Get("marker"); markerTag != "" && strings.Contains(markerTag, "optional") {
			argType.Optional = true
		}

		def.Fields[argName] = argType
		def.FieldNames[argName] = field.Name
	}

	return nil
}

// argumentFromType creates an Argument from a reflect.Type.
func (r *Registry) argumentFromType(typ reflect.Type) (Argument, error) {
	arg := Argument{}

	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		arg.Optional = true
	}

	switch typ.Kind() {
	case reflect.String:
		arg.Type = StringType
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		arg.Type = IntType
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		arg.Type = IntType
	case reflect.Bool:
		arg.Type = BoolType
	case reflect.Slice:
		arg.Type = SliceType
		itemType, err := r.argumentFromType(typ.Elem())
		if err != nil {
			return Argument{}, fmt.Errorf("slice element type: %w", err)
		}
		arg.ItemType = &itemType
	default:
		return Argument{}, fmt.Errorf("unsupported type: %s", typ.Kind())
	}

	return arg, nil
}

// fieldToArgName converts a struct field name to an argument name.
// Converts PascalCase to camelCase (e.g., "ExcludeName" -> "excludeName").
func (r *Registry) fieldToArgName(fieldName string) string {
	if fieldName == "" {
		return ""
	}
	runes := []rune(fieldName)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// DefaultName derives a registration name from a type name, lowering the
// first rune (e.g., "CacheService" -> "cacheService").
func DefaultName(typeName string) string {
	if typeName == "" {
		return ""
	}
	runes := []rune(typeName)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
