package api

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry maps resource names to API paths. The builtin table can be
// extended or overridden by a resources.yaml file in the config directory,
// so new endpoints are usable without a new release.
type Registry struct {
	once      sync.Once
	configDir string
	resources map[string]string
}

// NewRegistry creates a registry that loads overrides from configDir.
func NewRegistry(configDir string) *Registry {
	return &Registry{configDir: configDir}
}

func (r *Registry) load() {
	r.once.Do(func() {
		r.resources = builtinResources()

		path := filepath.Join(r.configDir, "resources.yaml")
		data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config location
		if err != nil {
			return
		}

		overrides := make(map[string]string)
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping malformed resource overrides at %s: %v\n", path, err)
			return
		}
		for name, resourcePath := range overrides {
			r.resources[name] = resourcePath
		}
	})
}

// Lookup returns the path for a resource name.
func (r *Registry) Lookup(name string) (string, bool) {
	r.load()
	path, ok := r.resources[name]
	return path, ok
}

// Names returns all known resource names, sorted.
func (r *Registry) Names() []string {
	r.load()
	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
