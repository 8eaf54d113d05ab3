package mcpargs

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnmarshalArguments is returned when the caller-supplied argument map
// cannot be decoded into the argument struct.
var ErrUnmarshalArguments = errors.New("failed to unmarshal arguments")

// Unmarshaler is the interface implemented by types that decode an MCP
// argument value themselves. Typically used in combination with the
// Marshaler interface.
type Unmarshaler interface {
	Unmarshal(v any) error
}

// Unmarshal populates the struct pointed to by v with values from the
// arguments map. Struct field names are converted to snake_case to match the
// map keys. All fields are checked before returning, so the error lists
// every offending field, not just the first one.
func Unmarshal(arguments map[string]any, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: destination must be a non-nil pointer to a struct", ErrUnmarshalArguments)
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("%w: destination must be a pointer to a struct, got pointer to %s", ErrUnmarshalArguments, rv.Kind())
	}

	rt := rv.Type()

	var errs error

	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() {
			errs = errors.Join(errs, fmt.Errorf("%w: struct contains unexported field %q", ErrUnmarshalArguments, field.Name))
			continue
		}

		name := toSnakeCase(field.Name)

		value, ok := arguments[name]
		if !ok {
			if field.Tag.Get("mcp_required") == "true" {
				errs = errors.Join(errs, fmt.Errorf("%w: missing required field %q", ErrUnmarshalArguments, name))
			}

			continue
		}

		fieldValue := rv.Field(i)

		// Composite types decode themselves. Unmarshal is implemented on
		// pointer receivers, so check the address of the field.
		if u, ok := fieldValue.Addr().Interface().(Unmarshaler); ok {
			if err := u.Unmarshal(value); err != nil {
				errs = errors.Join(errs, fmt.Errorf("%w: field %q: %w", ErrUnmarshalArguments, name, err))
			}

			continue
		}

		if err := assign(fieldValue, value); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%w: field %q: %w", ErrUnmarshalArguments, name, err))
		}
	}

	return errs
}

// assign sets value on target, converting between numeric types where
// needed. JSON numbers arrive as float64, so integer fields accept floats.
//
//nolint:err113 // Errors are wrapped with ErrUnmarshalArguments in Unmarshal().
func assign(target reflect.Value, value any) error {
	if value == nil {
		return errors.New("cannot set nil value")
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target.Type()) {
		target.Set(rv)
		return nil
	}

	if !isNumericKind(target.Kind()) || !isNumericKind(rv.Kind()) {
		return fmt.Errorf("cannot convert %T to %s", value, target.Type())
	}

	if isUnsignedKind(target.Kind()) && isNegative(rv) {
		return errors.New("cannot convert negative value to unsigned int")
	}

	target.Set(rv.Convert(target.Type()))

	return nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func isUnsignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func isNegative(rv reflect.Value) bool {
	switch {
	case rv.CanInt():
		return rv.Int() < 0
	case rv.CanFloat():
		return rv.Float() < 0
	default:
		return false
	}
}
