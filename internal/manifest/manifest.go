// Package manifest extracts dependency declarations from package.json.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Filename is the manifest file this package understands.
const Filename = "package.json"

// Dependency is one declared dependency: the package name and the raw
// version specifier from the manifest.
type Dependency struct {
	Name string
	Spec string
}

// manifestFile is the subset of package.json we read.
type manifestFile struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// Parse reads dependency declarations from package.json content. The
// four dependency sections are unioned; when a name appears in more
// than one, the earlier section wins: dependencies, then
// devDependencies, peerDependencies, optionalDependencies. Results are
// sorted by name for stable output.
func Parse(data []byte) ([]Dependency, error) {
	var mf manifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	sections := []map[string]string{
		mf.Dependencies,
		mf.DevDependencies,
		mf.PeerDependencies,
		mf.OptionalDependencies,
	}

	seen := make(map[string]struct{})
	var deps []Dependency
	for _, section := range sections {
		for name, spec := range section {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			deps = append(deps, Dependency{Name: name, Spec: spec})
		}
	}

	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps, nil
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) ([]Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Names returns just the package names of deps, in order.
func Names(deps []Dependency) []string {
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name
	}
	return names
}
