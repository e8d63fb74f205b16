package registry

import (
	"context"
	"fmt"

	"github.com/yosida95/uritemplate/v3"

	"github.com/mcpkit/mcp-core-go/mcp"
)

// ResourceHandler produces the contents of a literal resource.
type ResourceHandler func(ctx context.Context, uri string) ([]mcp.ResourceContents, error)

// TemplateHandler produces the contents of a templated resource. It
// receives the original URI and the placeholder bindings extracted from it,
// e.g. reading "user://123" against "user://{id}" binds id to "123".
type TemplateHandler func(ctx context.Context, uri string, params map[string]string) ([]mcp.ResourceContents, error)

type resourceEntry struct {
	res     mcp.Resource
	handler ResourceHandler
}

type templateEntry struct {
	desc    mcp.ResourceTemplate
	tmpl    *uritemplate.Template
	handler TemplateHandler
}

// ResourceRegistry owns the literal resources and URI templates a server
// exposes. Literal resources are keyed by URI, templates by name. Reads
// resolve literals first; templates are tried in registration order only
// when no literal matches.
type ResourceRegistry struct {
	resources *Registry[resourceEntry]
	templates *Registry[templateEntry]
}

// NewResourceRegistry constructs an empty resource registry. Both the
// literal and template stores feed the same notification queue under the
// resources list-changed method.
func NewResourceRegistry(opts ...Option) *ResourceRegistry {
	return &ResourceRegistry{
		resources: New[resourceEntry]("resource", mcp.ResourcesListChangedNotificationMethod, opts...),
		templates: New[templateEntry]("resource template", mcp.ResourcesListChangedNotificationMethod, opts...),
	}
}

// Register stores a literal resource under res.URI.
func (r *ResourceRegistry) Register(res mcp.Resource, h ResourceHandler) error {
	if res.URI == "" {
		return fmt.Errorf("resource URI must not be empty")
	}
	if h == nil {
		return fmt.Errorf("resource %q: nil handler", res.URI)
	}
	return r.resources.Register(res.URI, resourceEntry{res: res, handler: h})
}

// RegisterText registers a literal resource whose contents are a fixed
// text value.
func (r *ResourceRegistry) RegisterText(uri, name, text string) error {
	return r.Register(mcp.Resource{URI: uri, Name: name, MimeType: "text/plain"},
		func(ctx context.Context, u string) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{{URI: u, MimeType: "text/plain", Text: text}}, nil
		})
}

// RegisterTemplate stores a URI template under t.Name. The pattern uses
// RFC 6570 placeholder syntax and must contain at least one placeholder.
func (r *ResourceRegistry) RegisterTemplate(t mcp.ResourceTemplate, h TemplateHandler) error {
	if t.Name == "" {
		return fmt.Errorf("resource template name must not be empty")
	}
	if h == nil {
		return fmt.Errorf("resource template %q: nil handler", t.Name)
	}
	tmpl, err := uritemplate.New(t.URITemplate)
	if err != nil {
		return fmt.Errorf("resource template %q: invalid pattern %q: %w", t.Name, t.URITemplate, err)
	}
	if len(tmpl.Varnames()) == 0 {
		return fmt.Errorf("resource template %q: pattern %q has no placeholders", t.Name, t.URITemplate)
	}
	return r.templates.Register(t.Name, templateEntry{desc: t, tmpl: tmpl, handler: h})
}

// Read resolves uri and returns its contents. A literal registration takes
// precedence; otherwise templates are tried in registration order and the
// first match wins, its handler invoked with the extracted bindings. An
// unresolvable URI fails with a *NotFoundError; handler faults are wrapped
// in a *InternalError.
func (r *ResourceRegistry) Read(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	if e, ok := r.resources.Get(uri); ok {
		return runResourceHandler(ctx, "resource", uri, func(ctx context.Context) ([]mcp.ResourceContents, error) {
			return e.handler(ctx, uri)
		})
	}
	for _, te := range r.templates.List() {
		values := te.tmpl.Match(uri)
		if values == nil {
			continue
		}
		params := make(map[string]string, len(values))
		for name, v := range values {
			params[name] = v.String()
		}
		return runResourceHandler(ctx, "resource template", te.desc.Name, func(ctx context.Context) ([]mcp.ResourceContents, error) {
			return te.handler(ctx, uri, params)
		})
	}
	return nil, &NotFoundError{Kind: "resource", Name: uri}
}

// runResourceHandler gives each handler invocation its own fault boundary.
func runResourceHandler(ctx context.Context, kind, name string, fn func(ctx context.Context) ([]mcp.ResourceContents, error)) (out []mcp.ResourceContents, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, &InternalError{Kind: kind, Name: name, Err: fmt.Errorf("handler panicked: %v", rec)}
		}
	}()
	out, err = fn(ctx)
	if err != nil {
		return nil, &InternalError{Kind: kind, Name: name, Err: err}
	}
	return out, nil
}

// List returns the literal resource descriptors in first-registration order.
func (r *ResourceRegistry) List() []mcp.Resource {
	entries := r.resources.List()
	out := make([]mcp.Resource, len(entries))
	for i, e := range entries {
		out[i] = e.res
	}
	return out
}

// ListTemplates returns the template descriptors in first-registration order.
func (r *ResourceRegistry) ListTemplates() []mcp.ResourceTemplate {
	entries := r.templates.List()
	out := make([]mcp.ResourceTemplate, len(entries))
	for i, e := range entries {
		out[i] = e.desc
	}
	return out
}

// Exists reports whether a literal resource is registered at uri.
func (r *ResourceRegistry) Exists(uri string) bool {
	return r.resources.Exists(uri)
}

// TemplateExists reports whether a template is registered under name.
func (r *ResourceRegistry) TemplateExists(name string) bool {
	return r.templates.Exists(name)
}

// Remove drops the literal resource at uri, reporting whether it was present.
func (r *ResourceRegistry) Remove(uri string) bool {
	return r.resources.Remove(uri)
}

// RemoveTemplate drops the named template, reporting whether it was present.
func (r *ResourceRegistry) RemoveTemplate(name string) bool {
	return r.templates.Remove(name)
}

// Clear drops every literal resource and template, announcing a single
// list-changed notification for the whole sweep.
func (r *ResourceRegistry) Clear() {
	r.templates.clear(false)
	r.resources.clear(true)
}

// Len returns the number of literal resources.
func (r *ResourceRegistry) Len() int {
	return r.resources.Len()
}

// TemplateLen returns the number of registered templates.
func (r *ResourceRegistry) TemplateLen() int {
	return r.templates.Len()
}
