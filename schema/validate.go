// Package schema validates argument mappings against mcp.InputSchema
// descriptors. Validation is a pure function over its inputs: fail-fast,
// no coercion, no mutation.
package schema

import (
	"fmt"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mcpkit/mcp-core-go/mcp"
)

// Constraint identifies which schema rule a value violated.
type Constraint string

const (
	// ConstraintRequired means a required property was absent.
	ConstraintRequired Constraint = "required"
	// ConstraintType means a value's runtime type did not match the
	// declared primitive type.
	ConstraintType Constraint = "type"
	// ConstraintEnum means a value was not a member of the declared enum.
	ConstraintEnum Constraint = "enum"
)

// ValidationError reports the first violation encountered. It carries the
// failing property path and constraint so implementers can debug concrete
// failures; dispatch layers surface only a generic message to the peer.
type ValidationError struct {
	// Property is the path of the offending property, e.g. "config.retries".
	Property string
	// Constraint is the violated rule.
	Constraint Constraint
	// Expected describes the declared expectation (a type tag for
	// ConstraintType, empty otherwise).
	Expected string
	// Value is the offending value; nil for ConstraintRequired.
	Value any
}

func (e *ValidationError) Error() string {
	switch e.Constraint {
	case ConstraintRequired:
		return fmt.Sprintf("missing required property %q", e.Property)
	case ConstraintEnum:
		return fmt.Sprintf("property %q: value %v is not an allowed enum member", e.Property, e.Value)
	default:
		return fmt.Sprintf("property %q: expected %s, got %T", e.Property, e.Expected, e.Value)
	}
}

// Validate checks arguments against the schema and returns a
// *ValidationError describing the first violation, or nil.
//
// The required pass runs first, in the schema's declared required order; a
// required name that is not declared under properties is treated as
// "required but untyped" and checked for presence only. The type pass then
// walks properties in declaration order, recursing into nested object and
// array element schemas, and finally checks enum membership. A numeric
// string never satisfies "number": values are matched against their runtime
// types with no coercion.
//
// A nil schema accepts any arguments.
func Validate(args map[string]any, s *mcp.InputSchema) error {
	if s == nil {
		return nil
	}
	return validateObject("", args, s.Properties, s.Required)
}

func validateObject(path string, args map[string]any, props *orderedmap.OrderedMap[string, mcp.Property], required []string) error {
	for _, name := range required {
		if _, present := args[name]; !present {
			return &ValidationError{Property: joinPath(path, name), Constraint: ConstraintRequired}
		}
	}
	if props == nil {
		return nil
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		value, present := args[pair.Key]
		if !present {
			continue
		}
		if err := validateValue(joinPath(path, pair.Key), value, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, value any, p mcp.Property) error {
	switch p.Type {
	case "":
		// Untyped property: enum check only.
	case mcp.TypeString:
		if _, ok := value.(string); !ok {
			return typeError(path, p.Type, value)
		}
	case mcp.TypeNumber:
		if !isNumber(value) {
			return typeError(path, p.Type, value)
		}
	case mcp.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return typeError(path, p.Type, value)
		}
	case mcp.TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return typeError(path, p.Type, value)
		}
		if err := validateObject(path, obj, p.Properties, p.Required); err != nil {
			return err
		}
	case mcp.TypeArray:
		arr, ok := value.([]any)
		if !ok {
			return typeError(path, p.Type, value)
		}
		if p.Items != nil {
			for i, el := range arr {
				if err := validateValue(fmt.Sprintf("%s[%d]", path, i), el, *p.Items); err != nil {
					return err
				}
			}
		}
	default:
		// Unknown type tags are tolerated rather than rejected: the schema
		// author's intent is unknowable here and failing the peer's call for
		// it would be worse.
	}

	if len(p.Enum) > 0 && !enumContains(p.Enum, value) {
		return &ValidationError{Property: path, Constraint: ConstraintEnum, Value: value}
	}
	return nil
}

func typeError(path, expected string, value any) error {
	return &ValidationError{Property: path, Constraint: ConstraintType, Expected: expected, Value: value}
}

// isNumber accepts the numeric kinds an argument map can plausibly carry:
// float64 from encoding/json plus native Go numeric kinds from programmatic
// callers. Strings are never numbers.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// enumContains uses deep equality so that enum members of any JSON shape
// (including arrays or objects) compare safely.
func enumContains(enum []any, value any) bool {
	for _, member := range enum {
		if reflect.DeepEqual(member, value) {
			return true
		}
	}
	return false
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
