package mcpargs

import (
	"fmt"
	"strconv"
)

// ID references a GitLab resource either by numeric ID or by path, e.g. a
// project as 42 or as "group/project". It is advertised as a string and
// decodes numeric input into the integer form.
type ID struct { //nolint:recvcheck // Unmarshal requires pointer receiver.
	String  string
	Integer int
}

// Interface tests.
var _ Marshaler = ID{}
var _ Unmarshaler = &ID{}

// Marshal implements the Marshaler interface.
func (ID) Marshal() MCPType {
	return TypeString
}

// Unmarshal implements the Unmarshaler interface.
func (id *ID) Unmarshal(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: cannot unmarshal ID from %T", ErrUnmarshalArguments, v)
	}

	if i, err := strconv.Atoi(s); err == nil {
		id.Integer = i
		id.String = ""

		return nil
	}

	id.String = s
	id.Integer = 0

	return nil
}

// Value returns the integer value if set, the string value otherwise. The
// result is suitable for the "pid" argument of the GitLab client.
func (id ID) Value() any {
	if id.Integer != 0 {
		return id.Integer
	}

	return id.String
}

// IsZero reports whether the ID holds neither form.
func (id ID) IsZero() bool {
	return id.Integer == 0 && id.String == ""
}
