// Package mcpserver composes the registries, notification queue, session
// manager and capability set into a dispatchable server core. Transports
// feed decoded method calls into Server.Handle and frame the returned
// result or *mcp.RPCError; byte-level framing never enters this package.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcpkit/mcp-core-go/canceltoken"
	"github.com/mcpkit/mcp-core-go/mcp"
	"github.com/mcpkit/mcp-core-go/notify"
	"github.com/mcpkit/mcp-core-go/registry"
	"github.com/mcpkit/mcp-core-go/schema"
	"github.com/mcpkit/mcp-core-go/sessions"
)

// Session data keys populated during initialize.
const (
	SessionKeyClientInfo         = "clientInfo"
	SessionKeyClientCapabilities = "clientCapabilities"
	SessionKeyProtocolVersion    = "protocolVersion"
)

// ProtocolError reports an initialize request whose declared protocol
// version is not in the supported set.
type ProtocolError struct {
	Requested string
	Supported []string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unsupported protocol version %q", e.Requested)
}

// Server is the composition root. It exclusively owns one instance of each
// registry, the notification queue, the session manager and the declared
// capability set.
//
// Dispatch is synchronous: Handle runs the matched operation inline and
// returns before the next call is accepted by a well-behaved host. Hosts
// that fan requests across workers may still share one Server; every
// registry and the queue guard their own mutations.
type Server struct {
	log          *slog.Logger
	info         mcp.ImplementationInfo
	instructions string
	caps         mcp.CapabilitySet
	supported    []string
	latest       string

	conflictPolicy registry.ConflictPolicy

	queue     *notify.Queue
	tools     *registry.ToolRegistry
	resources *registry.ResourceRegistry
	prompts   *registry.PromptRegistry
	sessions  *sessions.Manager
}

// ServerOption configures a Server at construction.
type ServerOption func(*Server)

// WithLogger sets the structured logger; slog.Default is used otherwise.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// WithServerInfo sets the implementation metadata returned by initialize.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *Server) { s.info = info }
}

// WithInstructions sets optional human-readable instructions surfaced to
// the client during initialize.
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) { s.instructions = instructions }
}

// WithCapabilities sets the server-declared base capability set. Registry
// advertisements (listChanged on tools/resources/prompts) merge underneath
// it; explicit declarations win ties.
func WithCapabilities(caps mcp.CapabilitySet) ServerOption {
	return func(s *Server) { s.caps = caps }
}

// WithSupportedVersions overrides the supported protocol version set. The
// last entry is offered as the negotiated version.
func WithSupportedVersions(versions ...string) ServerOption {
	return func(s *Server) {
		if len(versions) == 0 {
			return
		}
		s.supported = versions
		s.latest = versions[len(versions)-1]
	}
}

// WithConflictPolicy selects the duplicate-registration behavior for all
// three registries.
func WithConflictPolicy(p registry.ConflictPolicy) ServerOption {
	return func(s *Server) { s.conflictPolicy = p }
}

// NewServer constructs a server with empty registries wired to a shared
// notification queue.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		log:       slog.Default(),
		supported: mcp.SupportedProtocolVersions,
		latest:    mcp.LatestProtocolVersion,
		queue:     notify.NewQueue(),
	}
	for _, opt := range opts {
		opt(s)
	}
	regOpts := []registry.Option{
		registry.WithQueue(s.queue),
		registry.WithConflictPolicy(s.conflictPolicy),
		registry.WithLogger(s.log),
	}
	s.tools = registry.NewToolRegistry(regOpts...)
	s.resources = registry.NewResourceRegistry(regOpts...)
	s.prompts = registry.NewPromptRegistry(regOpts...)
	s.sessions = sessions.NewManager()
	return s
}

// Tools returns the tool registry.
func (s *Server) Tools() *registry.ToolRegistry { return s.tools }

// Resources returns the resource registry.
func (s *Server) Resources() *registry.ResourceRegistry { return s.resources }

// Prompts returns the prompt registry.
func (s *Server) Prompts() *registry.PromptRegistry { return s.prompts }

// Sessions returns the session manager.
func (s *Server) Sessions() *sessions.Manager { return s.sessions }

// DrainNotifications returns and clears the pending change notifications in
// FIFO order. The transport calls this after each operation (or on its own
// cadence) to deliver list-changed announcements.
func (s *Server) DrainNotifications() []notify.Notification {
	return s.queue.Drain()
}

// PendingNotifications returns the number of queued notifications.
func (s *Server) PendingNotifications() int {
	return s.queue.Size()
}

// Handle routes a decoded method call to the owning component and shapes
// the outcome into either a result value or a *mcp.RPCError. It is the
// single place typed errors become protocol errors; internal error text is
// logged here and never travels to the peer.
func (s *Server) Handle(ctx context.Context, method string, params map[string]any) (any, error) {
	log := s.log.With(slog.String("method", method))
	res, err := s.dispatch(ctx, method, params)
	if err != nil {
		return nil, s.toRPCError(log, err)
	}
	return res, nil
}

func (s *Server) dispatch(ctx context.Context, method string, params map[string]any) (any, error) {
	switch mcp.Method(method) {
	case mcp.InitializeMethod:
		return s.initialize(params)
	case mcp.PingMethod:
		return map[string]any{}, nil
	case mcp.ToolsListMethod:
		return &mcp.ListToolsResult{Tools: s.tools.List()}, nil
	case mcp.ToolsCallMethod:
		name, ok := stringParam(params, "name")
		if !ok {
			return nil, &mcp.RPCError{Code: mcp.ErrorCodeInvalidParams, Message: "missing tool name"}
		}
		return s.tools.Execute(ctx, name, mapParam(params, "arguments"))
	case mcp.ResourcesListMethod:
		return &mcp.ListResourcesResult{Resources: s.resources.List()}, nil
	case mcp.ResourcesTemplatesListMethod:
		return &mcp.ListResourceTemplatesResult{ResourceTemplates: s.resources.ListTemplates()}, nil
	case mcp.ResourcesReadMethod:
		uri, ok := stringParam(params, "uri")
		if !ok {
			return nil, &mcp.RPCError{Code: mcp.ErrorCodeInvalidParams, Message: "missing resource uri"}
		}
		contents, err := s.resources.Read(ctx, uri)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{Contents: contents}, nil
	case mcp.PromptsListMethod:
		return &mcp.ListPromptsResult{Prompts: s.prompts.List()}, nil
	case mcp.PromptsGetMethod:
		name, ok := stringParam(params, "name")
		if !ok {
			return nil, &mcp.RPCError{Code: mcp.ErrorCodeInvalidParams, Message: "missing prompt name"}
		}
		return s.prompts.Execute(ctx, name, mapParam(params, "arguments"))
	}
	return nil, &mcp.RPCError{Code: mcp.ErrorCodeMethodNotFound, Message: "method not found"}
}

// initialize negotiates the protocol version and returns the server's
// merged capability set. The response always carries the latest supported
// version, regardless of which supported version the peer requested.
func (s *Server) initialize(params map[string]any) (*mcp.InitializeResult, error) {
	requested, _ := stringParam(params, "protocolVersion")
	if !s.supportsVersion(requested) {
		return nil, &ProtocolError{Requested: requested, Supported: s.supported}
	}

	id := s.sessions.GenerateSessionID()
	s.sessions.Set(SessionKeyProtocolVersion, s.latest)
	if info := mapParam(params, "clientInfo"); info != nil {
		s.sessions.Set(SessionKeyClientInfo, info)
	}
	if caps := mapParam(params, "capabilities"); caps != nil {
		s.sessions.Set(SessionKeyClientCapabilities, mcp.CapabilitySetFromMap(caps))
	}
	s.log.Info("session initialized",
		slog.String("session_id", id),
		slog.String("requested_version", requested),
		slog.String("negotiated_version", s.latest))

	return &mcp.InitializeResult{
		ProtocolVersion: s.latest,
		Capabilities:    s.advertisedCapabilities(),
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}, nil
}

// advertisedCapabilities merges the automatic registry advertisements with
// the host-declared set; explicit declarations win conflicting sub-keys.
func (s *Server) advertisedCapabilities() mcp.CapabilitySet {
	auto := mcp.CapabilitySet{
		Tools:     map[string]any{"listChanged": true},
		Resources: map[string]any{"listChanged": true},
		Prompts:   map[string]any{"listChanged": true},
	}
	return auto.Merge(s.caps)
}

func (s *Server) supportsVersion(v string) bool {
	for _, sv := range s.supported {
		if sv == v {
			return true
		}
	}
	return false
}

// toRPCError converts a typed error into the protocol envelope. Every kind
// maps to a stable, generic message; structured detail (the failing
// property, the wrapped handler fault) is only logged.
func (s *Server) toRPCError(log *slog.Logger, err error) *mcp.RPCError {
	var (
		rpcErr      *mcp.RPCError
		notFound    *registry.NotFoundError
		invalid     *schema.ValidationError
		internal    *registry.InternalError
		cancelled   *canceltoken.CancelledError
		unsupported *ProtocolError
	)
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.As(err, &notFound):
		log.Debug("unknown entity", slog.String("kind", notFound.Kind), slog.String("name", notFound.Name))
		return &mcp.RPCError{Code: mcp.ErrorCodeInvalidParams, Message: "unknown " + notFound.Kind}
	case errors.As(err, &invalid):
		log.Debug("argument validation failed",
			slog.String("property", invalid.Property),
			slog.String("constraint", string(invalid.Constraint)),
			slog.String("expected", invalid.Expected))
		return &mcp.RPCError{Code: mcp.ErrorCodeInvalidParams, Message: "schema validation failed"}
	case errors.As(err, &unsupported):
		log.Debug("protocol version rejected", slog.String("requested", unsupported.Requested))
		return &mcp.RPCError{
			Code:    mcp.ErrorCodeInvalidParams,
			Message: "unsupported protocol version",
			Data:    map[string]any{"supported": unsupported.Supported, "requested": unsupported.Requested},
		}
	case errors.As(err, &cancelled):
		log.Debug("request cancelled", slog.String("reason", cancelled.Reason))
		return &mcp.RPCError{Code: mcp.ErrorCodeRequestTimeout, Message: "request cancelled"}
	case errors.As(err, &internal):
		log.Error("handler fault",
			slog.String("kind", internal.Kind),
			slog.String("name", internal.Name),
			slog.String("err", internal.Err.Error()))
		return &mcp.RPCError{Code: mcp.ErrorCodeInternalError, Message: "internal error"}
	}
	log.Error("unexpected dispatch error", slog.String("err", err.Error()))
	return &mcp.RPCError{Code: mcp.ErrorCodeInternalError, Message: "internal error"}
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func mapParam(params map[string]any, key string) map[string]any {
	m, _ := params[key].(map[string]any)
	return m
}
