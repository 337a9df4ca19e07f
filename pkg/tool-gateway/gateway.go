package toolgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"

	"github.com/toolgate/toolgate/pkg/toolgate"
)

// Gateway fronts a toolgate.Toolkit with a Streamable MCP server under a
// single HTTP endpoint.
type Gateway struct {
	toolkit *toolgate.Toolkit
	opts    Options

	server        *mcp.Server
	streamHandler *mcp.StreamableHTTPHandler
	httpHandler   http.Handler

	httpServerMu sync.Mutex
	httpServer   *http.Server
}

// NewGateway builds a Gateway and registers the three meta-tools on its MCP
// server.
func NewGateway(toolkit *toolgate.Toolkit, opts *Options) (*Gateway, error) {
	if toolkit == nil {
		return nil, fmt.Errorf("toolgateway: toolkit is required")
	}
	options := opts.withDefaults()
	g := &Gateway{toolkit: toolkit, opts: options}

	g.server = mcp.NewServer(options.Implementation, &mcp.ServerOptions{HasTools: true})
	g.registerTools()
	g.streamHandler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return g.server
	}, &options.Streamable)
	g.httpHandler = g.mountHandler()
	return g, nil
}

// Options returns the effective options after defaulting.
func (g *Gateway) Options() Options { return g.opts }

// Handler exposes the HTTP handler that serves the Streamable endpoint.
func (g *Gateway) Handler() http.Handler {
	return g.httpHandler
}

// ListenAndServe runs an HTTP server until the provided context is cancelled
// or the server stops.
func (g *Gateway) ListenAndServe(ctx context.Context) error {
	g.httpServerMu.Lock()
	if g.httpServer != nil {
		serv := g.httpServer
		g.httpServerMu.Unlock()
		return fmt.Errorf("toolgateway: server already running on %s", serv.Addr)
	}
	srv := &http.Server{Addr: g.opts.Addr, Handler: g.Handler()}
	g.httpServer = srv
	g.httpServerMu.Unlock()
	defer func() {
		g.httpServerMu.Lock()
		if g.httpServer == srv {
			g.httpServer = nil
		}
		g.httpServerMu.Unlock()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.opts.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops the embedded HTTP server if it is running.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.httpServerMu.Lock()
	srv := g.httpServer
	g.httpServer = nil
	g.httpServerMu.Unlock()
	if srv == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return srv.Shutdown(ctx)
}

type listToolsInput struct {
	Server string `json:"server,omitempty"`
}

type toolSchemaInput struct {
	Server string `json:"server,omitempty"`
	Tool   string `json:"tool"`
}

type callToolInput struct {
	Server    string `json:"server,omitempty"`
	Tool      string `json:"tool"`
	Arguments string `json:"arguments,omitempty"`
}

func (g *Gateway) registerTools() {
	serverProp := &jsonschema.Schema{
		Type:        "string",
		Description: "Logical MCP server name. Optional when a single server is configured.",
	}
	mcp.AddTool(g.server, &mcp.Tool{
		Name:        "list_tools",
		Description: "List the tools available on an MCP server (name and description only). Call this before anything else.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"server": serverProp},
		},
	}, g.handleListTools)
	mcp.AddTool(g.server, &mcp.Tool{
		Name:        "get_tool_schema",
		Description: "Fetch the full parameter schema (types, required fields) for one tool. Must be called before call_tool.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"server": serverProp,
				"tool":   {Type: "string", Description: "Exact tool name."},
			},
			Required: []string{"tool"},
		},
	}, g.handleToolSchema)
	mcp.AddTool(g.server, &mcp.Tool{
		Name:        "call_tool",
		Description: "Invoke a tool with JSON argument text. Malformed JSON is repaired automatically. Recommended order: list_tools, get_tool_schema, call_tool.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"server":    serverProp,
				"tool":      {Type: "string", Description: "Exact tool name."},
				"arguments": {Type: "string", Description: "JSON text of the arguments. May be malformed; defaults to {}."},
			},
			Required: []string{"tool"},
		},
	}, g.handleCallTool)
}

func (g *Gateway) handleListTools(ctx context.Context, req *mcp.CallToolRequest, in listToolsInput) (*mcp.CallToolResult, any, error) {
	return textResult(g.toolkit.ListToolsJSON(ctx, in.Server)), nil, nil
}

func (g *Gateway) handleToolSchema(ctx context.Context, req *mcp.CallToolRequest, in toolSchemaInput) (*mcp.CallToolResult, any, error) {
	return textResult(g.toolkit.ToolSchemaJSON(ctx, in.Server, in.Tool)), nil, nil
}

func (g *Gateway) handleCallTool(ctx context.Context, req *mcp.CallToolRequest, in callToolInput) (*mcp.CallToolResult, any, error) {
	arguments := in.Arguments
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	return textResult(g.toolkit.CallToolJSON(ctx, in.Server, in.Tool, arguments)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func (g *Gateway) mountHandler() http.Handler {
	path := g.opts.Path
	var handler http.Handler = g.streamHandler
	if path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		mux := http.NewServeMux()
		mux.Handle(path, g.streamHandler)
		if !strings.HasSuffix(path, "/") {
			mux.Handle(path+"/", g.streamHandler)
		}
		handler = mux
	}
	c := cors.New(cors.Options{
		AllowedOrigins: g.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	})
	return c.Handler(handler)
}
