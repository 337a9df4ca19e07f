package toolgate

import (
	"fmt"
	"strings"
)

// ConfigError reports invalid or missing server configuration. It is the
// only error class that should abort startup.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "toolgate: " + e.Reason }

// UnknownServerError reports that a caller referenced a server name the
// Registry does not know. It enumerates the configured names so a retrying
// caller can correct itself.
type UnknownServerError struct {
	Name  string
	Known []string
}

func (e *UnknownServerError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("toolgate: server name required; configured servers: [%s]", strings.Join(e.Known, ", "))
	}
	return fmt.Sprintf("toolgate: unknown server %q; configured servers: [%s]", e.Name, strings.Join(e.Known, ", "))
}

// SessionError reports a transport or handshake failure for a server. The
// caller decides whether to retry the whole operation; the Provider does not
// retry silently.
type SessionError struct {
	Server string
	Err    error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("toolgate: session for %q: %v", e.Server, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// ToolNotFoundError is the soft outcome of a schema fetch for a tool name
// the server does not expose. It never populates the schema cache.
type ToolNotFoundError struct {
	Server string
	Tool   string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("toolgate: tool %q not found on server %q", e.Tool, e.Server)
}

// GateBlockedError is the soft outcome of calling a tool whose schema has
// not been fetched. It is a normal, expected result meant to steer a
// retrying caller toward the correct sequence, not a fault.
type GateBlockedError struct {
	Server string
	Tool   string
}

func (e *GateBlockedError) Error() string {
	return fmt.Sprintf("toolgate: schema for tool %q on server %q has not been fetched", e.Tool, e.Server)
}

// DispatchError reports that a remote call failed after the gate check and
// argument repair both succeeded. No automatic retry is attempted.
type DispatchError struct {
	Server string
	Tool   string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("toolgate: call to tool %q on server %q failed: %v", e.Tool, e.Server, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
