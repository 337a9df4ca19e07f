package toolgate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultServerName is the logical name assigned in single-server mode.
const DefaultServerName = "default"

// ParseServerSpec parses a delimited multi-server specification of the form
// "name1: url1; name2: url2" into a Registry. Every entry must split into
// exactly a name and a URL.
func ParseServerSpec(spec string) (*Registry, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return nil, &ConfigError{Reason: "no MCP servers configured"}
	}
	endpoints := make(map[string]string)
	for _, entry := range strings.Split(trimmed, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, url, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		url = strings.TrimSpace(url)
		// A bare URL such as "https://h1" splits at its scheme colon; the
		// leading "//" on the remainder gives it away.
		if !ok || name == "" || url == "" || strings.Contains(name, "/") || strings.HasPrefix(url, "//") {
			return nil, &ConfigError{Reason: fmt.Sprintf("malformed server entry %q, want \"name: url\"", entry)}
		}
		if _, dup := endpoints[name]; dup {
			return nil, &ConfigError{Reason: fmt.Sprintf("duplicate server name %q", name)}
		}
		endpoints[name] = url
	}
	if len(endpoints) == 0 {
		return nil, &ConfigError{Reason: "no MCP servers configured"}
	}
	return NewRegistry(endpoints), nil
}

// SingleServer builds a Registry for default-server mode from one endpoint
// URL, registered under DefaultServerName.
func SingleServer(url string) (*Registry, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, &ConfigError{Reason: "server URL is empty"}
	}
	return NewRegistry(map[string]string{DefaultServerName: url}), nil
}

// LoadRegistryFile reads a server registry from a file holding a flat mapping
// of logical server names to endpoint URLs. Files ending in .yaml or .yml are
// parsed as YAML; anything else is parsed as JSONC (JSON with comments and
// trailing commas).
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("read registry file: %v", err)}
	}
	endpoints := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &endpoints); err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("parse %s: %v", path, err)}
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &endpoints); err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("parse %s: %v", path, err)}
		}
	}
	if len(endpoints) == 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("registry file %s names no servers", path)}
	}
	for name, url := range endpoints {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(url) == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("registry file %s contains an empty name or URL", path)}
		}
	}
	return NewRegistry(endpoints), nil
}
