package toolgate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/toolgate/toolgate/pkg/jsonfix"
)

// The *JSON methods are the tool-facing surface. The caller is an automated
// agent that needs a parsable textual response to continue reasoning, so
// every outcome, including failure, is rendered as text and no error
// escapes to the host.

// ListToolsJSON renders the list phase as an indented JSON array of
// {name, description} records.
func (t *Toolkit) ListToolsJSON(ctx context.Context, server string) string {
	descriptors, err := t.ListTools(ctx, server)
	if err != nil {
		return fmt.Sprintf("Error while listing MCP tools: %v", err)
	}
	return renderJSON(descriptors)
}

// ToolSchemaJSON renders the schema phase. A missing tool is a structured,
// recoverable result the caller can branch on, not a fault.
func (t *Toolkit) ToolSchemaJSON(ctx context.Context, server, tool string) string {
	schema, err := t.GetToolSchema(ctx, server, tool)
	var notFound *ToolNotFoundError
	switch {
	case errors.As(err, &notFound):
		return renderJSON(map[string]string{"error": fmt.Sprintf("Tool '%s' not found", tool)})
	case err != nil:
		return fmt.Sprintf("Error while getting MCP tool schema: %v", err)
	}
	return renderJSON(schema)
}

// CallToolJSON renders the call phase. A blocked gate produces guidance text
// steering the caller toward get_tool_schema; unrepairable argument text is
// reported without any remote call having been attempted.
func (t *Toolkit) CallToolJSON(ctx context.Context, server, tool, argumentsText string) string {
	result, err := t.CallTool(ctx, server, tool, argumentsText)
	var blocked *GateBlockedError
	var unrepairable *jsonfix.UnrepairableError
	switch {
	case errors.As(err, &blocked):
		return fmt.Sprintf("Schema not loaded for `%s`. Call get_tool_schema(%q) first.", tool, tool)
	case errors.As(err, &unrepairable):
		return fmt.Sprintf("JSON error: %v", err)
	case err != nil:
		return fmt.Sprintf("Error while calling MCP tool '%s': %v", tool, err)
	}
	return renderJSON(result)
}

// renderJSON encodes v as indented JSON without HTML escaping so responses
// stay readable for humans and language models alike.
func renderJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("Error while encoding response: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}
