package toolgate

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseServerSpec(t *testing.T) {
	t.Parallel()

	registry, err := ParseServerSpec("firecrawl: http://h1/mcp; browser: http://h2/mcp")
	if err != nil {
		t.Fatalf("ParseServerSpec: %v", err)
	}
	if got, want := registry.Names(), []string{"browser", "firecrawl"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	url, err := registry.Resolve("firecrawl")
	if err != nil {
		t.Fatalf("Resolve(firecrawl): %v", err)
	}
	if url != "http://h1/mcp" {
		t.Fatalf("Resolve(firecrawl) = %q", url)
	}
}

func TestParseServerSpecToleratesWhitespaceAndEmptyEntries(t *testing.T) {
	t.Parallel()

	registry, err := ParseServerSpec("  a: http://a/mcp ;; b:http://b/mcp ; ")
	if err != nil {
		t.Fatalf("ParseServerSpec: %v", err)
	}
	if got, want := registry.Names(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestParseServerSpecErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		spec string
	}{
		{name: "empty", spec: ""},
		{name: "whitespace", spec: "   "},
		{name: "missing url", spec: "firecrawl:"},
		{name: "missing name", spec: ": http://h1/mcp"},
		{name: "no separator", spec: "firecrawl http//h1"},
		{name: "bare url", spec: "https://h1"},
		{name: "bare url with path", spec: "http://h1/mcp"},
		{name: "name with slash", spec: "a/b: http://h1/mcp"},
		{name: "duplicate name", spec: "a: http://h1/mcp; a: http://h2/mcp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseServerSpec(tc.spec)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("ParseServerSpec(%q) error = %v, want *ConfigError", tc.spec, err)
			}
		})
	}
}

func TestSingleServerMode(t *testing.T) {
	t.Parallel()

	registry, err := SingleServer("http://host.docker.internal:40001/firecrawl-mcp/mcp")
	if err != nil {
		t.Fatalf("SingleServer: %v", err)
	}
	// An empty server name resolves to the sole configured server.
	name, err := registry.Normalize("")
	if err != nil {
		t.Fatalf("Normalize(\"\"): %v", err)
	}
	if name != DefaultServerName {
		t.Fatalf("Normalize(\"\") = %q, want %q", name, DefaultServerName)
	}

	if _, err := SingleServer("   "); err == nil {
		t.Fatalf("expected error for blank URL")
	}
}

func TestResolveUnknownServerEnumeratesKnownNames(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(map[string]string{
		"firecrawl": "http://h1/mcp",
		"browser":   "http://h2/mcp",
	})
	_, err := registry.Resolve("ghost")
	var unknown *UnknownServerError
	if !errors.As(err, &unknown) {
		t.Fatalf("Resolve(ghost) error = %v, want *UnknownServerError", err)
	}
	if unknown.Name != "ghost" {
		t.Fatalf("error names %q, want ghost", unknown.Name)
	}
	if got, want := unknown.Known, []string{"browser", "firecrawl"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Known = %v, want %v", got, want)
	}
}

func TestNormalizeRequiresNameWithMultipleServers(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(map[string]string{
		"firecrawl": "http://h1/mcp",
		"browser":   "http://h2/mcp",
	})
	_, err := registry.Normalize("")
	var unknown *UnknownServerError
	if !errors.As(err, &unknown) {
		t.Fatalf("Normalize(\"\") error = %v, want *UnknownServerError", err)
	}
}

func TestLoadRegistryFileJSONC(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "servers.jsonc")
	content := `{
  // scraping backend
  "firecrawl": "http://h1/mcp",
  "browser": "http://h2/mcp",
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	registry, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile: %v", err)
	}
	if got, want := registry.Names(), []string{"browser", "firecrawl"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestLoadRegistryFileYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "servers.yaml")
	content := "firecrawl: http://h1/mcp\nbrowser: http://h2/mcp\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	registry, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile: %v", err)
	}
	url, err := registry.Resolve("browser")
	if err != nil {
		t.Fatalf("Resolve(browser): %v", err)
	}
	if url != "http://h2/mcp" {
		t.Fatalf("Resolve(browser) = %q", url)
	}
}

func TestLoadRegistryFileErrors(t *testing.T) {
	t.Parallel()

	var cfgErr *ConfigError
	if _, err := LoadRegistryFile(filepath.Join(t.TempDir(), "missing.jsonc")); !errors.As(err, &cfgErr) {
		t.Fatalf("missing file error = %v, want *ConfigError", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.jsonc")
	if err := os.WriteFile(empty, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadRegistryFile(empty); !errors.As(err, &cfgErr) {
		t.Fatalf("empty registry error = %v, want *ConfigError", err)
	}
}
