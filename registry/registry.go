// Package registry owns the named entities a server exposes: tools,
// resources and prompts. A single generic core provides insertion-ordered
// storage, an explicit duplicate policy and change-notification enqueueing;
// the Tool/Resource/Prompt registries layer argument validation and
// execution on top of it.
package registry

import (
	"log/slog"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mcpkit/mcp-core-go/mcp"
	"github.com/mcpkit/mcp-core-go/notify"
)

// ConflictPolicy names the behavior when a registration reuses an existing
// name. The policy is explicit so the behavior is discoverable rather than
// implicit.
type ConflictPolicy int

const (
	// ReplaceExisting swaps the entity's definition and handler in place.
	// The entity keeps its original position in listing order. This is the
	// default: re-registration is a supported update path, not a conflict.
	ReplaceExisting ConflictPolicy = iota
	// RejectDuplicates fails registration under an existing name with a
	// *DuplicateError.
	RejectDuplicates
)

// Option configures a registry at construction.
type Option func(*settings)

type settings struct {
	queue  *notify.Queue
	policy ConflictPolicy
	log    *slog.Logger
}

// WithQueue attaches the notification queue that receives a list-changed
// record per mutating operation. Without a queue mutations are silent.
func WithQueue(q *notify.Queue) Option {
	return func(s *settings) { s.queue = q }
}

// WithConflictPolicy selects the duplicate-name behavior.
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(s *settings) { s.policy = p }
}

// WithLogger sets the logger used for mutation debug records.
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) { s.log = log }
}

// Registry is the generic insertion-ordered store shared by the typed
// registries. The name is the sole identity of an entry; listing yields
// first-registration order and replacing an entry never moves it.
//
// All methods are safe for concurrent use. One server instance serializes
// its own mutations; hosts that fan requests across workers share the
// registry through this internal lock.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries *orderedmap.OrderedMap[string, T]

	kind        string
	listChanged mcp.Method
	queue       *notify.Queue
	policy      ConflictPolicy
	log         *slog.Logger
}

// New constructs a registry for the given entity kind. kind is the
// human-readable noun used in errors and logs ("tool", "resource", ...);
// listChanged is the notification method enqueued on mutation.
func New[T any](kind string, listChanged mcp.Method, opts ...Option) *Registry[T] {
	s := settings{log: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Registry[T]{
		entries:     orderedmap.New[string, T](),
		kind:        kind,
		listChanged: listChanged,
		queue:       s.queue,
		policy:      s.policy,
		log:         s.log.With(slog.String("registry", kind)),
	}
}

// Register stores the entry under name. Under ReplaceExisting an existing
// name is overwritten in place; under RejectDuplicates it fails with a
// *DuplicateError. A list-changed notification is enqueued either way the
// registration succeeds.
func (r *Registry[T]) Register(name string, entry T) error {
	r.mu.Lock()
	_, exists := r.entries.Get(name)
	if exists && r.policy == RejectDuplicates {
		r.mu.Unlock()
		return &DuplicateError{Kind: r.kind, Name: name}
	}
	r.entries.Set(name, entry)
	r.mu.Unlock()

	r.log.Debug("registered", slog.String("name", name), slog.Bool("replaced", exists))
	r.notifyChanged()
	return nil
}

// Get returns the entry registered under name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Get(name)
}

// Exists reports whether name is registered.
func (r *Registry[T]) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries.Get(name)
	return ok
}

// List returns all entries in first-registration order.
func (r *Registry[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Names returns the registered names in first-registration order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Remove drops the entry under name, reporting whether it was present.
// A list-changed notification is enqueued only on success.
func (r *Registry[T]) Remove(name string) bool {
	r.mu.Lock()
	_, removed := r.entries.Delete(name)
	r.mu.Unlock()
	if removed {
		r.log.Debug("removed", slog.String("name", name))
		r.notifyChanged()
	}
	return removed
}

// Clear drops every entry and enqueues a single list-changed notification.
func (r *Registry[T]) Clear() {
	r.clear(true)
}

// clear resets the store; the silent form lets composite registries that
// span several stores still announce exactly one change.
func (r *Registry[T]) clear(announce bool) {
	r.mu.Lock()
	r.entries = orderedmap.New[string, T]()
	r.mu.Unlock()
	r.log.Debug("cleared")
	if announce {
		r.notifyChanged()
	}
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Len()
}

func (r *Registry[T]) notifyChanged() {
	if r.queue == nil {
		return
	}
	r.queue.Enqueue(r.listChanged, nil)
}
