package toolgate

import "sort"

// Registry maps logical server names to endpoint URLs. It is immutable after
// construction and safe for concurrent readers.
type Registry struct {
	endpoints map[string]string
}

// NewRegistry copies the provided name-to-URL mapping into a Registry.
func NewRegistry(endpoints map[string]string) *Registry {
	copied := make(map[string]string, len(endpoints))
	for name, url := range endpoints {
		copied[name] = url
	}
	return &Registry{endpoints: copied}
}

// Names returns the configured server names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the endpoint URL for a logical server name, or an
// *UnknownServerError naming the request and enumerating the known names.
func (r *Registry) Resolve(name string) (string, error) {
	if url, ok := r.endpoints[name]; ok {
		return url, nil
	}
	return "", &UnknownServerError{Name: name, Known: r.Names()}
}

// Normalize maps an empty server name to the sole configured server. Any
// non-empty name must be registered; an empty name with several servers
// configured is an *UnknownServerError.
func (r *Registry) Normalize(name string) (string, error) {
	if name != "" {
		if _, ok := r.endpoints[name]; !ok {
			return "", &UnknownServerError{Name: name, Known: r.Names()}
		}
		return name, nil
	}
	if len(r.endpoints) == 1 {
		return r.Names()[0], nil
	}
	return "", &UnknownServerError{Name: name, Known: r.Names()}
}
