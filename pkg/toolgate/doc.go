// Package toolgate mediates between an untrusted caller (a language model)
// and the tools exposed by one or more Model Context Protocol (MCP) servers.
// It enforces a staged discovery protocol per tool (list, then schema, then
// call) so a caller can never invoke a tool whose parameter schema it has
// not inspected in the current process lifetime, and it repairs malformed
// JSON argument text before any network traffic is spent on it.
//
// # Core entry points
//
//   - Registry maps logical server names to endpoint URLs. Build one with
//     ParseServerSpec ("name1: url1; name2: url2"), SingleServer, or
//     LoadRegistryFile (YAML or JSONC).
//   - Provider owns one live MCP session per server name, with single-flight
//     creation, reuse across operations, and recreate-on-next-use after a
//     session dies.
//   - Toolkit layers the tool catalog, schema cache, invocation gate, and
//     dispatcher on top of a Provider. ListTools, GetToolSchema, and CallTool
//     return typed records; the *JSON variants render every outcome,
//     including failures, as text a calling agent can read, so no fault
//     escapes the tool surface.
//
// The invocation gate has three tool-scoped states: unknown, schema-known,
// and callable (the latter two coincide). The only forward transition is a
// successful GetToolSchema for that (server, tool) pair; a failed lookup
// never opens the gate.
package toolgate
