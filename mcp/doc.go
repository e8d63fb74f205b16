// Package mcp contains protocol data types and constants shared across the
// registry, validation and dispatch layers. It mirrors the wire representation
// of the Model Context Protocol while keeping the surface Go-friendly
// (exported structs with json tags, string constants for method names, typed
// error codes).
//
// The package is intentionally free of transport logic: stdio, HTTP or any
// future transport imports these types but implements its own framing and
// session binding. Higher-level packages (registry, mcpserver) construct
// responses using these concrete types and hand them to the transport for
// JSON-RPC serialization.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod). Using the constants avoids typographical mistakes
// and ensures a single point of truth as the protocol evolves.
//
// # Capabilities
//
// CapabilitySet captures a peer's advertised feature set: the six well-known
// capability slots plus vendor-defined extensions. Merge produces the
// negotiated set during the initialize exchange; see its documentation for
// the precedence rules.
//
// # Schemas
//
// InputSchema is the lightweight JSON-Schema-like descriptor used to declare
// tool and prompt argument shapes. Property declaration order is significant
// (validation reports the first violation in declared order), which is why
// Properties is an ordered map rather than a native Go map.
//
// # Compatibility
//
// The LatestProtocolVersion constant reflects the most recent protocol date
// this library targets. Version negotiation always offers the latest
// supported version as long as the peer requested any member of
// SupportedProtocolVersions.
package mcp
