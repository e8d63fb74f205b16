package mcp

import (
	"encoding/json"
	"sort"
)

// Names of the well-known capability slots.
const (
	CapabilityExperimental = "experimental"
	CapabilityLogging      = "logging"
	CapabilityCompletions  = "completions"
	CapabilityPrompts      = "prompts"
	CapabilityResources    = "resources"
	CapabilityTools        = "tools"
)

var wellKnownCapabilities = []string{
	CapabilityExperimental,
	CapabilityLogging,
	CapabilityCompletions,
	CapabilityPrompts,
	CapabilityResources,
	CapabilityTools,
}

// CapabilitySet holds a peer's advertised capabilities: the six well-known
// slots plus an open-ended map for vendor-defined extensions. A well-known
// slot is either absent (nil) or present as a map of sub-options; it is never
// a scalar. Extension values may be of any shape.
//
// The zero value is an empty set ready for use.
type CapabilitySet struct {
	Experimental map[string]any
	Logging      map[string]any
	Completions  map[string]any
	Prompts      map[string]any
	Resources    map[string]any
	Tools        map[string]any

	// Extensions holds vendor-defined capabilities keyed by name.
	Extensions map[string]any
}

// Has reports whether the named capability is present. Unknown names are
// looked up in the extension map.
func (c *CapabilitySet) Has(name string) bool {
	if slot, known := c.slot(name); known {
		return *slot != nil
	}
	_, ok := c.Extensions[name]
	return ok
}

// Get returns the value of the named capability, or nil when absent.
// Well-known slots always yield a map[string]any.
func (c *CapabilitySet) Get(name string) any {
	if slot, known := c.slot(name); known {
		if *slot == nil {
			return nil
		}
		return *slot
	}
	return c.Extensions[name]
}

// Set stores the named capability. Unknown names write the extension map.
// A well-known slot only accepts a map of sub-options; Set reports whether
// the value was stored.
func (c *CapabilitySet) Set(name string, value any) bool {
	if slot, known := c.slot(name); known {
		m, ok := value.(map[string]any)
		if !ok {
			return false
		}
		*slot = m
		return true
	}
	if c.Extensions == nil {
		c.Extensions = make(map[string]any)
	}
	c.Extensions[name] = value
	return true
}

// ToMap renders the set as a single mapping: present well-known slots under
// their protocol field names, extension entries appended. Well-known slots
// win on key collision.
func (c *CapabilitySet) ToMap() map[string]any {
	out := make(map[string]any, len(wellKnownCapabilities)+len(c.Extensions))
	for name, value := range c.Extensions {
		out[name] = value
	}
	for _, name := range wellKnownCapabilities {
		if slot, _ := c.slot(name); *slot != nil {
			out[name] = *slot
		}
	}
	return out
}

// Names returns the present capability names, well-known slots first in
// protocol order, extensions following in sorted order.
func (c *CapabilitySet) Names() []string {
	var out []string
	for _, name := range wellKnownCapabilities {
		if slot, _ := c.slot(name); *slot != nil {
			out = append(out, name)
		}
	}
	ext := make([]string, 0, len(c.Extensions))
	for name := range c.Extensions {
		if _, known := c.slot(name); !known {
			ext = append(ext, name)
		}
	}
	sort.Strings(ext)
	return append(out, ext...)
}

// Merge combines the receiver with other and returns a new set; neither
// operand is modified or aliased.
//
// For each well-known slot present on other, the result holds the key-wise
// union of both sides with other winning conflicting sub-keys; a slot absent
// on the receiver is taken from other verbatim. For extension entries, two
// map-typed values at the same key union key-wise (other wins conflicts);
// any other shape is replaced by other's value. Merge is not commutative:
// the right operand's scalars and sub-keys win ties.
func (c CapabilitySet) Merge(other CapabilitySet) CapabilitySet {
	out := CapabilitySet{
		Experimental: mergeSubOptions(c.Experimental, other.Experimental),
		Logging:      mergeSubOptions(c.Logging, other.Logging),
		Completions:  mergeSubOptions(c.Completions, other.Completions),
		Prompts:      mergeSubOptions(c.Prompts, other.Prompts),
		Resources:    mergeSubOptions(c.Resources, other.Resources),
		Tools:        mergeSubOptions(c.Tools, other.Tools),
	}
	if len(c.Extensions) == 0 && len(other.Extensions) == 0 {
		return out
	}
	out.Extensions = make(map[string]any, len(c.Extensions)+len(other.Extensions))
	for name, value := range c.Extensions {
		out.Extensions[name] = value
	}
	for name, value := range other.Extensions {
		lm, lok := out.Extensions[name].(map[string]any)
		rm, rok := value.(map[string]any)
		if lok && rok {
			out.Extensions[name] = mergeSubOptions(lm, rm)
			continue
		}
		out.Extensions[name] = value
	}
	return out
}

// mergeSubOptions unions two sub-option maps with right winning conflicts.
// The result never aliases either input. A nil right keeps a copy of left;
// a nil left takes a copy of right.
func mergeSubOptions(left, right map[string]any) map[string]any {
	if left == nil && right == nil {
		return nil
	}
	out := make(map[string]any, len(left)+len(right))
	for k, v := range left {
		out[k] = v
	}
	for k, v := range right {
		out[k] = v
	}
	return out
}

// MarshalJSON renders the set in its wire shape (see ToMap).
func (c CapabilitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

// UnmarshalJSON decodes the wire shape, routing unknown keys to Extensions.
func (c *CapabilitySet) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = CapabilitySetFromMap(raw)
	return nil
}

// CapabilitySetFromMap builds a CapabilitySet from a decoded capabilities
// mapping (e.g. the "capabilities" member of an initialize request). A
// well-known key holding a non-map value is ignored rather than rejected:
// the slot invariant is that it is a mapping or absent.
func CapabilitySetFromMap(raw map[string]any) CapabilitySet {
	var c CapabilitySet
	for name, value := range raw {
		if slot, known := c.slot(name); known {
			if m, ok := value.(map[string]any); ok {
				*slot = m
			}
			continue
		}
		if c.Extensions == nil {
			c.Extensions = make(map[string]any)
		}
		c.Extensions[name] = value
	}
	return c
}

// slot maps a well-known capability name to its field, reporting whether the
// name is well-known.
func (c *CapabilitySet) slot(name string) (*map[string]any, bool) {
	switch name {
	case CapabilityExperimental:
		return &c.Experimental, true
	case CapabilityLogging:
		return &c.Logging, true
	case CapabilityCompletions:
		return &c.Completions, true
	case CapabilityPrompts:
		return &c.Prompts, true
	case CapabilityResources:
		return &c.Resources, true
	case CapabilityTools:
		return &c.Tools, true
	}
	return nil, false
}
