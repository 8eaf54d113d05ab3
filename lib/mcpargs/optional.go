package mcpargs

// OptionalBool is a tri-state boolean argument: true, false, or not set.
// The zero value is "not set", which keeps the corresponding API option
// untouched instead of forcing a default.
type OptionalBool struct { //nolint:recvcheck // Unmarshal requires pointer receiver.
	value bool
	isSet bool
}

// Interface tests.
var _ Marshaler = OptionalBool{}
var _ Unmarshaler = &OptionalBool{}

// Marshal implements the Marshaler interface.
func (OptionalBool) Marshal() MCPType {
	return TypeBoolean
}

// Unmarshal implements the Unmarshaler interface. Any non-boolean input
// leaves the value unset.
func (o *OptionalBool) Unmarshal(v any) error {
	if b, ok := v.(bool); ok {
		o.value = b
		o.isSet = true

		return nil
	}

	o.value = false
	o.isSet = false

	return nil
}

// Ptr returns a pointer to the value, or nil when the value is not set.
func (o OptionalBool) Ptr() *bool {
	if !o.isSet {
		return nil
	}

	// Copy so callers cannot mutate the stored value.
	v := o.value

	return &v
}
