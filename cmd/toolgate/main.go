// Command toolgate serves the staged-discovery MCP tool surface over
// Streamable HTTP. It connects to the MCP servers named in its registry and
// exposes list_tools, get_tool_schema, and call_tool to a language model
// host.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	toolgateway "github.com/toolgate/toolgate/pkg/tool-gateway"
	"github.com/toolgate/toolgate/pkg/toolgate"
)

func main() {
	var (
		servers    = pflag.String("servers", os.Getenv("TOOLGATE_SERVERS"), `delimited server list: "name1: url1; name2: url2"`)
		serverURL  = pflag.String("server-url", os.Getenv("TOOLGATE_SERVER_URL"), "single MCP server URL (default-server mode)")
		configPath = pflag.String("config", os.Getenv("TOOLGATE_CONFIG"), "path to a YAML or JSONC registry file")
		addr       = pflag.String("addr", ":8791", "listen address")
		path       = pflag.String("path", "/mcp", "HTTP path for the Streamable MCP endpoint")
		timeout    = pflag.Duration("timeout", 30*time.Second, "per round-trip timeout for upstream servers")
		logLevel   = pflag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	pflag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	registry, err := buildRegistry(*configPath, *servers, *serverURL)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	provider := toolgate.NewProvider(registry, &toolgate.ProviderOptions{
		ConnectTimeout: *timeout,
		CallTimeout:    *timeout,
		Logger:         logger,
	})
	toolkit := toolgate.NewToolkit(provider)

	gateway, err := toolgateway.NewGateway(toolkit, &toolgateway.Options{
		Addr:   *addr,
		Path:   *path,
		Logger: logger,
	})
	if err != nil {
		logger.Error("gateway setup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("toolgate serving Streamable MCP", "addr", *addr, "path", *path, "servers", registry.Names())
	serveErr := gateway.ListenAndServe(ctx)

	teardownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := provider.Close(teardownCtx); err != nil {
		logger.Warn("session teardown", "error", err)
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logger.Error("server stopped", "error", serveErr)
		os.Exit(1)
	}
}

func buildRegistry(configPath, servers, serverURL string) (*toolgate.Registry, error) {
	switch {
	case configPath != "":
		return toolgate.LoadRegistryFile(configPath)
	case servers != "":
		return toolgate.ParseServerSpec(servers)
	case serverURL != "":
		return toolgate.SingleServer(serverURL)
	}
	return nil, &toolgate.ConfigError{Reason: "no MCP servers configured: set --servers, --server-url, or --config"}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
