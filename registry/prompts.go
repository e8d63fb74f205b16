package registry

import (
	"context"
	"fmt"

	"github.com/mcpkit/mcp-core-go/mcp"
	"github.com/mcpkit/mcp-core-go/schema"
)

// PromptHandler renders a prompt for the given arguments. Required
// arguments are present when the handler runs.
type PromptHandler func(ctx context.Context, args map[string]any) (*mcp.GetPromptResult, error)

type promptEntry struct {
	prompt     mcp.Prompt
	argsSchema *mcp.InputSchema
	handler    PromptHandler
}

// PromptRegistry owns the named prompts a server exposes.
type PromptRegistry struct {
	reg *Registry[promptEntry]
}

// NewPromptRegistry constructs an empty prompt registry.
func NewPromptRegistry(opts ...Option) *PromptRegistry {
	return &PromptRegistry{
		reg: New[promptEntry]("prompt", mcp.PromptsListChangedNotificationMethod, opts...),
	}
}

// Register stores the prompt under prompt.Name.
func (r *PromptRegistry) Register(prompt mcp.Prompt, h PromptHandler) error {
	if prompt.Name == "" {
		return fmt.Errorf("prompt name must not be empty")
	}
	if h == nil {
		return fmt.Errorf("prompt %q: nil handler", prompt.Name)
	}
	return r.reg.Register(prompt.Name, promptEntry{
		prompt:     prompt,
		argsSchema: promptArgsSchema(prompt.Arguments),
		handler:    h,
	})
}

// Get returns the descriptor registered under name.
func (r *PromptRegistry) Get(name string) (mcp.Prompt, bool) {
	e, ok := r.reg.Get(name)
	return e.prompt, ok
}

// Exists reports whether name is registered.
func (r *PromptRegistry) Exists(name string) bool {
	return r.reg.Exists(name)
}

// List returns the prompt descriptors in first-registration order.
func (r *PromptRegistry) List() []mcp.Prompt {
	entries := r.reg.List()
	out := make([]mcp.Prompt, len(entries))
	for i, e := range entries {
		out[i] = e.prompt
	}
	return out
}

// Remove drops the named prompt, reporting whether it was present.
func (r *PromptRegistry) Remove(name string) bool {
	return r.reg.Remove(name)
}

// Clear drops every prompt.
func (r *PromptRegistry) Clear() {
	r.reg.Clear()
}

// Len returns the number of registered prompts.
func (r *PromptRegistry) Len() int {
	return r.reg.Len()
}

// Execute renders the named prompt. It fails with a *NotFoundError for an
// unregistered name and a *schema.ValidationError when a required argument
// is missing or mistyped; the handler is not called in either case.
func (r *PromptRegistry) Execute(ctx context.Context, name string, args map[string]any) (res *mcp.GetPromptResult, err error) {
	entry, ok := r.reg.Get(name)
	if !ok {
		return nil, &NotFoundError{Kind: "prompt", Name: name}
	}
	if err := schema.Validate(args, entry.argsSchema); err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, &InternalError{Kind: "prompt", Name: name, Err: fmt.Errorf("handler panicked: %v", rec)}
		}
	}()
	out, herr := entry.handler(ctx, args)
	if herr != nil {
		return nil, &InternalError{Kind: "prompt", Name: name, Err: herr}
	}
	return out, nil
}

// promptArgsSchema derives the validation schema for a prompt's argument
// list: every argument is a string-typed property, required when flagged.
func promptArgsSchema(args []mcp.PromptArgument) *mcp.InputSchema {
	s := mcp.NewInputSchema()
	for _, a := range args {
		s.Add(a.Name, mcp.Property{Type: mcp.TypeString, Description: a.Description})
		if a.Required {
			s.Require(a.Name)
		}
	}
	return s
}
