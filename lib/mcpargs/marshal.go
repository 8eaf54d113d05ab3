package mcpargs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrMarshalArguments is returned when an argument struct cannot be converted
// into a tool schema.
var ErrMarshalArguments = errors.New("failed to marshal arguments")

// MCPType identifies the JSON schema type an argument field is advertised as.
type MCPType int

const (
	TypeString MCPType = iota
	TypeNumber
	TypeBoolean
	TypeArray
)

// Marshaler is implemented by composite types that map to a single MCP schema
// type. Typically used in combination with the Unmarshaler interface.
type Marshaler interface {
	Marshal() MCPType
}

// NewTool is a wrapper around mcp.NewTool that derives the tool's input
// schema from the fields of v. Tool definitions are static, so a failure to
// marshal is a programming error and NewTool panics.
func NewTool(name string, v any, opts ...mcp.ToolOption) mcp.Tool {
	structOpts, err := Marshal(v)
	if err != nil {
		panic(err)
	}

	return mcp.NewTool(name, append(opts, structOpts...)...)
}

// Marshal converts the exported fields of a struct into MCP tool options.
// Supported field types are string, bool, integers, and floats, plus any
// type implementing the Marshaler interface.
func Marshal(v any) ([]mcp.ToolOption, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: expected struct, got %s", ErrMarshalArguments, rv.Kind())
	}

	rt := rv.Type()

	var (
		toolOpts []mcp.ToolOption
		errs     error
	)

	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		propOpts, err := propertyOptions(field)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}

		typ, err := schemaType(field, rv.Field(i))
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}

		optName := toSnakeCase(field.Name)

		switch typ {
		case TypeString:
			toolOpts = append(toolOpts, mcp.WithString(optName, propOpts...))
		case TypeNumber:
			toolOpts = append(toolOpts, mcp.WithNumber(optName, propOpts...))
		case TypeBoolean:
			toolOpts = append(toolOpts, mcp.WithBoolean(optName, propOpts...))
		case TypeArray:
			toolOpts = append(toolOpts, mcp.WithArray(optName, propOpts...))
		default:
			errs = errors.Join(errs, fmt.Errorf("%w: unsupported MCP type %v for field %q", ErrMarshalArguments, typ, field.Name))
		}
	}

	if errs != nil {
		return nil, errs
	}

	return toolOpts, nil
}

// propertyOptions derives the per-property schema options from the field's tags.
func propertyOptions(field reflect.StructField) ([]mcp.PropertyOption, error) {
	description := field.Tag.Get("mcp_desc")
	if description == "" {
		return nil, fmt.Errorf(`%w: missing "mcp_desc" tag on field %q`, ErrMarshalArguments, field.Name)
	}

	propOpts := []mcp.PropertyOption{mcp.Description(description)}

	switch field.Tag.Get("mcp_required") {
	case "true":
		propOpts = append(propOpts, mcp.Required())
	case "false", "":
		// not required
	default:
		return nil, fmt.Errorf(`%w: invalid "mcp_required" tag on field %q: must be "true" or "false"`, ErrMarshalArguments, field.Name)
	}

	if enumTag := field.Tag.Get("mcp_enum"); enumTag != "" {
		if field.Type.Kind() != reflect.String {
			return nil, fmt.Errorf(`%w: "mcp_enum" tag on non-string field %q`, ErrMarshalArguments, field.Name)
		}

		propOpts = append(propOpts, mcp.Enum(strings.Split(enumTag, ",")...))
	}

	return propOpts, nil
}

// schemaType determines the MCP type for a field, consulting the Marshaler
// interface before falling back on the field's reflect kind.
func schemaType(field reflect.StructField, value reflect.Value) (MCPType, error) {
	if m, ok := value.Interface().(Marshaler); ok {
		return m.Marshal(), nil
	}

	//nolint:exhaustive // Unhandled kinds return an error.
	switch field.Type.Kind() {
	case reflect.String:
		return TypeString, nil
	case reflect.Bool:
		return TypeBoolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TypeNumber, nil
	default:
		return 0, fmt.Errorf("%w: unsupported field type %q for field %q", ErrMarshalArguments, field.Type.Kind(), field.Name)
	}
}

// toSnakeCase converts a CamelCase field name to snake_case.
func toSnakeCase(name string) string {
	// "AssigneeIDs" should become "assignee_ids", not "assignee_i_ds".
	if strings.HasSuffix(name, "IDs") {
		name = name[:len(name)-3] + "Ids"
	}

	runes := []rune(name)

	var result strings.Builder

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			// A new word starts when the previous rune is lowercase, or when
			// this rune ends an acronym (the next rune is lowercase).
			if unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				result.WriteRune('_')
			}
		}

		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}
