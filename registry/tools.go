package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/mcpkit/mcp-core-go/mcp"
	"github.com/mcpkit/mcp-core-go/schema"
)

// ToolHandler is the function signature used to handle a tool invocation.
// Arguments have already passed schema validation when the handler runs.
type ToolHandler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

type toolEntry struct {
	tool    mcp.Tool
	handler ToolHandler
}

// ToolRegistry owns the callable tools a server exposes and dispatches
// tools/call invocations through validate-then-execute.
type ToolRegistry struct {
	reg *Registry[toolEntry]
}

// NewToolRegistry constructs an empty tool registry.
func NewToolRegistry(opts ...Option) *ToolRegistry {
	return &ToolRegistry{
		reg: New[toolEntry]("tool", mcp.ToolsListChangedNotificationMethod, opts...),
	}
}

// Register stores the tool under tool.Name. The schema may be nil, in which
// case invocations skip validation.
func (r *ToolRegistry) Register(tool mcp.Tool, h ToolHandler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if h == nil {
		return fmt.Errorf("tool %q: nil handler", tool.Name)
	}
	return r.reg.Register(tool.Name, toolEntry{tool: tool, handler: h})
}

// RegisterMap normalizes a raw wire-shaped descriptor (the decoded
// "inputSchema" value of a registration payload) into a schema and
// registers the tool.
func (r *ToolRegistry) RegisterMap(name, description string, rawSchema map[string]any, h ToolHandler) error {
	s, err := mcp.SchemaFromMap(rawSchema)
	if err != nil {
		return fmt.Errorf("tool %q: %w", name, err)
	}
	return r.Register(mcp.Tool{Name: name, Description: description, InputSchema: s}, h)
}

// Get returns the descriptor registered under name.
func (r *ToolRegistry) Get(name string) (mcp.Tool, bool) {
	e, ok := r.reg.Get(name)
	return e.tool, ok
}

// Exists reports whether name is registered.
func (r *ToolRegistry) Exists(name string) bool {
	return r.reg.Exists(name)
}

// List returns the tool descriptors in first-registration order.
// Re-registering a name does not move it.
func (r *ToolRegistry) List() []mcp.Tool {
	entries := r.reg.List()
	out := make([]mcp.Tool, len(entries))
	for i, e := range entries {
		out[i] = e.tool
	}
	return out
}

// Remove drops the named tool, reporting whether it was present.
func (r *ToolRegistry) Remove(name string) bool {
	return r.reg.Remove(name)
}

// Clear drops every tool.
func (r *ToolRegistry) Clear() {
	r.reg.Clear()
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int {
	return r.reg.Len()
}

// Execute invokes the named tool. It fails with a *NotFoundError for an
// unregistered name and a *schema.ValidationError for arguments that do
// not satisfy the tool's schema; the handler is not called in either case.
// A handler error or panic is wrapped in a *InternalError.
func (r *ToolRegistry) Execute(ctx context.Context, name string, args map[string]any) (res *mcp.CallToolResult, err error) {
	entry, ok := r.reg.Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: "tool", Name: name}
	}
	if err := schema.Validate(args, entry.tool.InputSchema); err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, &InternalError{Kind: "tool", Name: name, Err: fmt.Errorf("handler panicked: %v", rec)}
		}
	}()
	out, herr := entry.handler(ctx, args)
	if herr != nil {
		return nil, &InternalError{Kind: "tool", Name: name, Err: herr}
	}
	return out, nil
}

// RegisterTyped registers a tool whose argument shape is the struct A. The
// input schema is reflected from A's fields and json tags; at call time the
// validated argument map is decoded into A, rejecting unknown fields. A
// decode failure surfaces as a tool-level error result rather than a
// protocol error, mirroring how malformed-but-typed input is reported to
// the model rather than the transport.
func RegisterTyped[A any](r *ToolRegistry, name, description string, fn func(ctx context.Context, args A) (*mcp.CallToolResult, error)) error {
	tool := mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: reflectInputSchema[A](),
	}
	return r.Register(tool, func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		var a A
		if len(args) > 0 {
			raw, err := json.Marshal(args)
			if err != nil {
				return nil, err
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&a); err != nil {
				return Errorf("invalid arguments: %v", err), nil
			}
		}
		return fn(ctx, a)
	})
}

// reflectInputSchema reflects the Go type A into an mcp.InputSchema via
// invopop/jsonschema. Only object shapes map onto an argument schema; any
// other reflected shape yields an empty object schema.
func reflectInputSchema[A any]() *mcp.InputSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	js := r.Reflect(new(A))
	if js == nil || js.Type != "object" {
		return mcp.NewInputSchema()
	}
	out := mcp.NewInputSchema()
	if js.Properties != nil {
		for el := js.Properties.Oldest(); el != nil; el = el.Next() {
			out.Add(el.Key, toProperty(el.Value))
		}
	}
	if len(js.Required) > 0 {
		out.Require(js.Required...)
	}
	out.Description = js.Description
	return out
}

// toProperty recursively maps a reflected jsonschema node onto the
// simplified Property shape.
func toProperty(s *jsonschema.Schema) mcp.Property {
	if s == nil {
		return mcp.Property{}
	}
	p := mcp.Property{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == mcp.TypeArray && s.Items != nil {
		item := toProperty(s.Items)
		p.Items = &item
	}
	if s.Type == mcp.TypeObject && s.Properties != nil {
		nested := mcp.NewInputSchema()
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			nested.Add(el.Key, toProperty(el.Value))
		}
		p.Properties = nested.Properties
		p.Required = append(p.Required, s.Required...)
	}
	return p
}

// TextResult builds a single-text-block tool result.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.TextContent(s)}}
}

// Errorf builds a tool-level error result with a single text block.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.ContentBlock{mcp.TextContent(fmt.Sprintf(format, a...))},
		IsError: true,
	}
}
