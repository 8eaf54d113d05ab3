// Package mcpargs converts between Go structs and MCP tool schemas.
//
// Marshal (or the NewTool convenience wrapper) turns the exported fields of
// an argument struct into the tool's advertised JSON input schema. Field
// names are converted from CamelCase to snake_case, and three struct tags
// control the schema:
//
//   - mcp_desc: required, the property description.
//   - mcp_required: "true" marks the property as required.
//   - mcp_enum: comma-separated list of allowed values for a string field.
//
// Unmarshal performs the reverse direction at call time, populating an
// argument struct from the caller-supplied argument map and reporting
// missing required fields and type mismatches per field.
//
// Composite types participate by implementing the Marshaler interface (to
// pick the schema type they are advertised as) and the Unmarshaler interface
// (to decode themselves from the raw argument value). ID and OptionalBool in
// this package are the canonical examples.
package mcpargs
