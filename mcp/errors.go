package mcp

import "fmt"

// ErrorCode is a JSON-RPC 2.0 error code. The values are fixed by the
// protocol and must be preserved verbatim for interoperability.
type ErrorCode int

const (
	// ErrorCodeConnectionClosed indicates the transport connection closed
	// before the request completed.
	ErrorCodeConnectionClosed ErrorCode = -32000
	// ErrorCodeRequestTimeout indicates the request was cancelled after
	// exceeding its deadline.
	ErrorCodeRequestTimeout ErrorCode = -32001
	// ErrorCodeParseError indicates invalid JSON was received.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the payload is not a valid request.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal server error.
	ErrorCodeInternalError ErrorCode = -32603
)

// RPCError is the protocol error envelope handed to the transport. Message
// is a stable, generic description per error kind; internal error text never
// travels on it.
type RPCError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
