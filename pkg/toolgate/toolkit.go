package toolgate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/toolgate/toolgate/pkg/jsonfix"
)

// ToolDescriptor is the lightweight discovery record produced by the list
// phase: name and description only, parameters deliberately omitted.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolSchema carries the full parameter schema for one tool. Caching it is
// what unlocks the call gate for that (server, tool) pair.
type ToolSchema struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// ResultContent is one normalized content block of a tool result.
type ResultContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallResult is the normalized envelope wrapping a remote tool's structured
// return value. It is produced once per call and not retained.
type CallResult struct {
	Content           []ResultContent `json:"content"`
	StructuredContent any             `json:"structuredContent,omitempty"`
	IsError           bool            `json:"isError,omitempty"`
}

// Schemas are keyed by (server, tool) so identically named tools on
// different servers never collide.
type schemaKey struct {
	Server string
	Tool   string
}

// Toolkit mediates tool invocation for an untrusted caller. A tool may be
// called if and only if its schema is present in the cache, and presence can
// only have been established by a successful GetToolSchema in the current
// process lifetime.
type Toolkit struct {
	provider *Provider

	mu      sync.RWMutex
	catalog map[string][]ToolDescriptor
	schemas map[schemaKey]*ToolSchema
}

// NewToolkit constructs a Toolkit over a Provider.
func NewToolkit(provider *Provider) *Toolkit {
	return &Toolkit{
		provider: provider,
		catalog:  make(map[string][]ToolDescriptor),
		schemas:  make(map[schemaKey]*ToolSchema),
	}
}

// ListTools performs the cheap discovery phase: it lists the server's tools
// and projects each down to name and description. The per-server catalog
// snapshot is replaced wholesale; stale entries from a previous listing are
// discarded.
func (t *Toolkit) ListTools(ctx context.Context, server string) ([]ToolDescriptor, error) {
	server, err := t.provider.Registry().Normalize(server)
	if err != nil {
		return nil, err
	}
	res, err := t.listRemote(ctx, server)
	if err != nil {
		return nil, err
	}
	descriptors := make([]ToolDescriptor, 0, len(res.Tools))
	for _, tool := range res.Tools {
		if tool == nil {
			continue
		}
		descriptors = append(descriptors, ToolDescriptor{Name: tool.Name, Description: tool.Description})
	}
	t.mu.Lock()
	t.catalog[server] = descriptors
	t.mu.Unlock()
	return descriptors, nil
}

// KnownTools returns the catalog snapshot captured by the last successful
// ListTools call for the server.
func (t *Toolkit) KnownTools(server string) []ToolDescriptor {
	if normalized, err := t.provider.Registry().Normalize(server); err == nil {
		server = normalized
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]ToolDescriptor(nil), t.catalog[server]...)
}

// GetToolSchema re-issues discovery and extracts the full parameter schema
// for one tool; schemas are not assumed stable from the list phase. A
// successful fetch stores the schema under (server, tool), the only
// transition that unlocks CallTool for that pair. A missing tool returns a
// *ToolNotFoundError and never populates the cache.
func (t *Toolkit) GetToolSchema(ctx context.Context, server, tool string) (*ToolSchema, error) {
	server, err := t.provider.Registry().Normalize(server)
	if err != nil {
		return nil, err
	}
	res, err := t.listRemote(ctx, server)
	if err != nil {
		return nil, err
	}
	for _, remote := range res.Tools {
		if remote == nil || remote.Name != tool {
			continue
		}
		schema := &ToolSchema{
			Name:        remote.Name,
			Description: remote.Description,
			Parameters:  schemaFromAny(remote.InputSchema),
		}
		t.mu.Lock()
		t.schemas[schemaKey{Server: server, Tool: tool}] = schema
		t.mu.Unlock()
		return schema, nil
	}
	return nil, &ToolNotFoundError{Server: server, Tool: tool}
}

// SchemaKnown reports whether the call gate is open for the pair.
func (t *Toolkit) SchemaKnown(server, tool string) bool {
	if normalized, err := t.provider.Registry().Normalize(server); err == nil {
		server = normalized
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.schemas[schemaKey{Server: server, Tool: tool}]
	return ok
}

// CallTool invokes a remote tool with possibly-malformed JSON argument text.
// The gate is checked before anything else, and the argument text is
// repaired before any network traffic is spent on it. A transport failure
// during dispatch invalidates the session so the next operation reconnects.
func (t *Toolkit) CallTool(ctx context.Context, server, tool, argumentsText string) (*CallResult, error) {
	server, err := t.provider.Registry().Normalize(server)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	_, unlocked := t.schemas[schemaKey{Server: server, Tool: tool}]
	t.mu.RUnlock()
	if !unlocked {
		return nil, &GateBlockedError{Server: server, Tool: tool}
	}

	args, err := jsonfix.Repair(argumentsText)
	if err != nil {
		return nil, err
	}

	session, state, err := t.provider.acquire(ctx, server)
	if err != nil {
		return nil, err
	}
	state.callMu.Lock()
	defer state.callMu.Unlock()
	callCtx, cancel := t.provider.withCallTimeout(ctx)
	defer cancel()
	res, err := session.CallTool(callCtx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		t.provider.invalidate(server, session)
		return nil, &DispatchError{Server: server, Tool: tool, Err: err}
	}
	return normalizeResult(res), nil
}

// schemaFromAny narrows the SDK's untyped InputSchema field. Tools listed
// over the wire carry their schema as a generic JSON value; those are rebuilt
// through a marshal round trip. Values that cannot be read as a schema yield
// nil rather than an error, since the tool itself is still callable.
func schemaFromAny(v any) *jsonschema.Schema {
	switch s := v.(type) {
	case nil:
		return nil
	case *jsonschema.Schema:
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil
	}
	return &schema
}

func (t *Toolkit) listRemote(ctx context.Context, server string) (*mcp.ListToolsResult, error) {
	session, state, err := t.provider.acquire(ctx, server)
	if err != nil {
		return nil, err
	}
	state.callMu.Lock()
	defer state.callMu.Unlock()
	callCtx, cancel := t.provider.withCallTimeout(ctx)
	defer cancel()
	res, err := session.ListTools(callCtx, nil)
	if err != nil {
		t.provider.invalidate(server, session)
		return nil, &SessionError{Server: server, Err: err}
	}
	return res, nil
}

// normalizeResult narrows the SDK result into the typed envelope returned to
// callers. Non-text content blocks are rendered as their JSON encoding.
func normalizeResult(res *mcp.CallToolResult) *CallResult {
	out := &CallResult{}
	if res == nil {
		return out
	}
	out.IsError = res.IsError
	out.StructuredContent = res.StructuredContent
	for _, content := range res.Content {
		switch c := content.(type) {
		case *mcp.TextContent:
			out.Content = append(out.Content, ResultContent{Type: "text", Text: c.Text})
		default:
			encoded, err := json.Marshal(content)
			if err != nil {
				encoded = []byte(fmt.Sprintf("%v", content))
			}
			out.Content = append(out.Content, ResultContent{Type: "text", Text: string(encoded)})
		}
	}
	return out
}
