package toolgate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// fakeUpstream hosts a real MCP server over Streamable HTTP for tests. It
// counts handshakes and tool calls so tests can assert how much network
// traffic an operation spent.
type fakeUpstream struct {
	URL string

	inits     atomic.Int64
	toolCalls atomic.Int64

	// close shuts the HTTP server down early so tests can simulate an
	// upstream dying mid-session.
	close func()
}

type scrapeArgs struct {
	URL string `json:"url"`
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}

	server := mcp.NewServer(&mcp.Implementation{Name: "fake-upstream", Version: "0.1.0"}, nil)
	server.AddReceivingMiddleware(func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method == "initialize" {
				f.inits.Add(1)
			}
			return next(ctx, method, req)
		}
	})
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scrape",
		Description: "Scrape a URL and return its contents.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"url": {Type: "string"}},
			Required:   []string{"url"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scrapeArgs) (*mcp.CallToolResult, any, error) {
		f.toolCalls.Add(1)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "scraped " + args.URL}},
		}, nil, nil
	})
	mcp.AddTool(server, &mcp.Tool{
		Name:        "navigate",
		Description: "Navigate the browser to a URL.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"url": {Type: "string"}},
			Required:   []string{"url"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scrapeArgs) (*mcp.CallToolResult, any, error) {
		f.toolCalls.Add(1)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "navigated to " + args.URL}},
		}, nil, nil
	})

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	f.URL = ts.URL
	f.close = ts.Close
	return f
}

func newTestToolkit(t *testing.T, endpoints map[string]string) *Toolkit {
	t.Helper()
	provider := NewProvider(NewRegistry(endpoints), nil)
	t.Cleanup(func() { _ = provider.Close(context.Background()) })
	return NewToolkit(provider)
}
