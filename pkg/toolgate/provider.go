package toolgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProviderOptions configure session establishment.
type ProviderOptions struct {
	// ClientName identifies this client during the MCP handshake.
	// Defaults to "toolgate".
	ClientName string
	// ClientVersion is the semantic version reported to servers.
	ClientVersion string
	// ConnectTimeout bounds transport connection plus handshake.
	// Defaults to 30 seconds.
	ConnectTimeout time.Duration
	// CallTimeout bounds each discovery or call round trip.
	// Defaults to 30 seconds.
	CallTimeout time.Duration
	// HTTPClient overrides the client used by the HTTP transports.
	HTTPClient *http.Client
	// Logger receives structured diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o *ProviderOptions) normalized() ProviderOptions {
	var opts ProviderOptions
	if o != nil {
		opts = *o
	}
	if opts.ClientName == "" {
		opts.ClientName = "toolgate"
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = "1.0.0"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// Provider resolves logical server names to live, initialized MCP sessions.
// It owns session lifecycle: lazy creation, reuse across operations, and
// teardown on failure. At most one session exists per server name, and at
// most one connection attempt is in flight per name at a time.
type Provider struct {
	mu       sync.Mutex
	registry *Registry
	opts     ProviderOptions
	states   map[string]*serverState
}

type serverState struct {
	endpoint string
	session  *mcp.ClientSession

	connecting bool
	connectCh  chan struct{}

	// callMu serializes round trips on the session; a session is not assumed
	// safe for more than one in-flight request at a time.
	callMu sync.Mutex
}

// NewProvider constructs a Provider over an immutable Registry.
func NewProvider(registry *Registry, opts *ProviderOptions) *Provider {
	return &Provider{
		registry: registry,
		opts:     opts.normalized(),
		states:   make(map[string]*serverState),
	}
}

// Registry exposes the registry backing this provider.
func (p *Provider) Registry() *Registry { return p.registry }

// acquire returns a live session for the named server, dialing and
// initializing one if needed. Concurrent callers for the same name share a
// single connection attempt; callers for different names never block each
// other.
func (p *Provider) acquire(ctx context.Context, server string) (*mcp.ClientSession, *serverState, error) {
	endpoint, err := p.registry.Resolve(server)
	if err != nil {
		return nil, nil, err
	}
	for {
		p.mu.Lock()
		state, ok := p.states[server]
		if !ok {
			state = &serverState{endpoint: endpoint}
			p.states[server] = state
		}
		if state.session != nil {
			session := state.session
			p.mu.Unlock()
			return session, state, nil
		}
		if state.connecting {
			ch := state.connectCh
			p.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-ch:
				continue
			}
		}
		state.connecting = true
		state.connectCh = make(chan struct{})
		p.mu.Unlock()

		session, err := p.establishSession(ctx, server, state)
		p.mu.Lock()
		state.connecting = false
		close(state.connectCh)
		if err != nil {
			p.mu.Unlock()
			return nil, nil, &SessionError{Server: server, Err: err}
		}
		state.session = session
		p.mu.Unlock()
		return session, state, nil
	}
}

func (p *Provider) establishSession(ctx context.Context, server string, state *serverState) (*mcp.ClientSession, error) {
	impl := &mcp.Implementation{Name: p.opts.ClientName, Version: p.opts.ClientVersion}

	connectCtx, cancel := context.WithTimeout(ctx, p.opts.ConnectTimeout)
	defer cancel()

	attempt := func(transport mcp.Transport) (*mcp.ClientSession, error) {
		client := mcp.NewClient(impl, nil)
		return client.Connect(connectCtx, transport, nil)
	}

	streamable := &mcp.StreamableClientTransport{
		Endpoint:   state.endpoint,
		HTTPClient: p.opts.HTTPClient,
	}
	sse := &mcp.SSEClientTransport{Endpoint: state.endpoint, HTTPClient: p.opts.HTTPClient}

	var streamErr error
	if !strings.HasSuffix(strings.TrimSpace(state.endpoint), "/sse") {
		session, err := attempt(streamable)
		if err == nil {
			go p.monitorSession(server, session)
			return session, nil
		}
		streamErr = err
	}
	session, err := attempt(sse)
	if err != nil {
		if streamErr != nil {
			return nil, fmt.Errorf("streamable error: %v; sse error: %w", streamErr, err)
		}
		return nil, err
	}
	go p.monitorSession(server, session)
	return session, nil
}

// monitorSession clears the cached session once it ends so the next
// operation dials a fresh one.
func (p *Provider) monitorSession(server string, session *mcp.ClientSession) {
	if err := session.Wait(); err != nil {
		p.opts.Logger.Warn("mcp session ended", "server", server, "error", err)
	}
	p.mu.Lock()
	if state, ok := p.states[server]; ok && state.session == session {
		state.session = nil
	}
	p.mu.Unlock()
}

// invalidate closes and forgets a session after a transport-level failure so
// the next operation reconnects.
func (p *Provider) invalidate(server string, session *mcp.ClientSession) {
	p.mu.Lock()
	if state, ok := p.states[server]; ok && state.session == session {
		state.session = nil
	}
	p.mu.Unlock()
	if session != nil {
		_ = session.Close()
	}
}

func (p *Provider) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.opts.CallTimeout)
}

// Close disconnects every cached session, respecting ctx for the teardown.
func (p *Provider) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	sessions := make([]*mcp.ClientSession, 0, len(p.states))
	for _, state := range p.states {
		if state.session != nil {
			sessions = append(sessions, state.session)
			state.session = nil
		}
	}
	p.mu.Unlock()

	var errs []error
	for _, session := range sessions {
		done := make(chan error, 1)
		go func(s *mcp.ClientSession) { done <- s.Close() }(session)
		select {
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		case err := <-done:
			if err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
