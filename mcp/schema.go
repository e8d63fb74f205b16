package mcp

import (
	"encoding/json"
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Primitive type tags accepted in schema declarations.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// InputSchema is a JSON-schema-like description of an argument mapping.
// Properties preserve declaration order: validation reports the first
// violation in declared order, so the ordering is part of the contract.
type InputSchema struct {
	Type        string                                   `json:"type"`
	Description string                                   `json:"description,omitzero"`
	Properties  *orderedmap.OrderedMap[string, Property] `json:"properties,omitempty"`
	Required    []string                                 `json:"required,omitempty"`
}

// Property is a single schema node: a primitive type tag plus optional enum,
// array element schema and nested object shape.
type Property struct {
	Type        string                                   `json:"type,omitempty"`
	Description string                                   `json:"description,omitzero"`
	Enum        []any                                    `json:"enum,omitempty"`
	Items       *Property                                `json:"items,omitempty"`
	Properties  *orderedmap.OrderedMap[string, Property] `json:"properties,omitempty"`
	Required    []string                                 `json:"required,omitempty"`
}

// NewInputSchema returns an empty object schema ready for Add calls.
func NewInputSchema() *InputSchema {
	return &InputSchema{
		Type:       TypeObject,
		Properties: orderedmap.New[string, Property](),
	}
}

// Add declares a property in order. It returns the schema to allow chained
// declarations and panics on a duplicate name: schemas are built by hand at
// startup and a duplicate is a programming error, not runtime input.
func (s *InputSchema) Add(name string, p Property) *InputSchema {
	if s.Properties == nil {
		s.Properties = orderedmap.New[string, Property]()
	}
	if _, exists := s.Properties.Get(name); exists {
		panic(fmt.Sprintf("mcp: duplicate schema property %q", name))
	}
	s.Properties.Set(name, p)
	return s
}

// Require marks property names as required. Names need not be declared via
// Add; an undeclared required name is checked for presence only.
func (s *InputSchema) Require(names ...string) *InputSchema {
	s.Required = append(s.Required, names...)
	return s
}

// PropertyNames returns the declared property names in declaration order.
func (s *InputSchema) PropertyNames() []string {
	if s == nil || s.Properties == nil {
		return nil
	}
	out := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// SchemaFromJSON normalizes a raw wire-level schema descriptor into an
// InputSchema. Property order in the JSON document is preserved.
func SchemaFromJSON(data []byte) (*InputSchema, error) {
	var s InputSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid schema descriptor: %w", err)
	}
	if s.Type == "" {
		s.Type = TypeObject
	}
	return &s, nil
}

// SchemaFromMap normalizes a decoded descriptor (e.g. the "inputSchema" value
// of a tool registration carried as map[string]any) into an InputSchema.
//
// Go maps do not preserve declaration order, so properties are ordered by
// name for determinism. Callers that care about declared order should use
// SchemaFromJSON or build the schema with NewInputSchema().Add.
func SchemaFromMap(raw map[string]any) (*InputSchema, error) {
	s := &InputSchema{Type: TypeObject}
	if t, ok := raw["type"].(string); ok && t != "" {
		s.Type = t
	}
	if d, ok := raw["description"].(string); ok {
		s.Description = d
	}
	if req, ok := raw["required"].([]any); ok {
		for _, r := range req {
			name, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("invalid schema descriptor: required entry %v is not a string", r)
			}
			s.Required = append(s.Required, name)
		}
	}
	props, ok := raw["properties"].(map[string]any)
	if !ok {
		return s, nil
	}
	s.Properties = orderedmap.New[string, Property]()
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pm, ok := props[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid schema descriptor: property %q is not an object", name)
		}
		p, err := propertyFromMap(name, pm)
		if err != nil {
			return nil, err
		}
		s.Properties.Set(name, p)
	}
	return s, nil
}

func propertyFromMap(name string, raw map[string]any) (Property, error) {
	var p Property
	if t, ok := raw["type"].(string); ok {
		p.Type = t
	}
	if d, ok := raw["description"].(string); ok {
		p.Description = d
	}
	if e, ok := raw["enum"].([]any); ok {
		p.Enum = e
	}
	if items, ok := raw["items"].(map[string]any); ok {
		ip, err := propertyFromMap(name+".items", items)
		if err != nil {
			return Property{}, err
		}
		p.Items = &ip
	}
	if req, ok := raw["required"].([]any); ok {
		for _, r := range req {
			rn, ok := r.(string)
			if !ok {
				return Property{}, fmt.Errorf("invalid schema descriptor: required entry %v of %q is not a string", r, name)
			}
			p.Required = append(p.Required, rn)
		}
	}
	if props, ok := raw["properties"].(map[string]any); ok {
		p.Properties = orderedmap.New[string, Property]()
		names := make([]string, 0, len(props))
		for n := range props {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			pm, ok := props[n].(map[string]any)
			if !ok {
				return Property{}, fmt.Errorf("invalid schema descriptor: property %q.%q is not an object", name, n)
			}
			np, err := propertyFromMap(name+"."+n, pm)
			if err != nil {
				return Property{}, err
			}
			p.Properties.Set(n, np)
		}
	}
	return p, nil
}
