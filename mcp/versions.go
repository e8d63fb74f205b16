package mcp

// LatestProtocolVersion is the most recent protocol version this library
// targets. Version negotiation always offers it when the peer's requested
// version is supported at all.
const LatestProtocolVersion = "2025-06-18"

// SupportedProtocolVersions enumerates the protocol versions this library
// can serve, oldest first.
var SupportedProtocolVersions = []string{
	"2024-11-05",
	"2025-03-26",
	LatestProtocolVersion,
}

// IsSupportedProtocolVersion reports whether v is a member of
// SupportedProtocolVersions.
func IsSupportedProtocolVersion(v string) bool {
	for _, s := range SupportedProtocolVersions {
		if s == v {
			return true
		}
	}
	return false
}
