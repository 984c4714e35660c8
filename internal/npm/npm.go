// Package npm looks up the latest published version of a package on an
// npm-compatible registry.
package npm

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/depfresh/depfresh/client"
)

// DefaultURL is the public npm registry.
const DefaultURL = "https://registry.npmjs.org"

// Getter is the transport surface the registry needs. Satisfied by
// client.Client and client.BreakerClient.
type Getter interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// Registry resolves package names against one npm registry endpoint.
type Registry struct {
	baseURL string
	client  Getter
}

// New creates a registry client. An empty baseURL selects the public
// npm registry.
func New(baseURL string, c Getter) *Registry {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Registry{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  c,
	}
}

// packument is the subset of the registry package document we read.
type packument struct {
	DistTags map[string]string `json:"dist-tags"`
}

// LatestVersion returns the version the registry's "latest" dist-tag
// points at.
func (r *Registry) LatestVersion(ctx context.Context, name string) (string, error) {
	u := fmt.Sprintf("%s/%s", r.baseURL, url.PathEscape(name))

	var doc packument
	if err := r.client.GetJSON(ctx, u, &doc); err != nil {
		return "", err
	}

	latest := doc.DistTags["latest"]
	if latest == "" {
		return "", fmt.Errorf("%s: %w", name, client.ErrNoLatestVersion)
	}
	return latest, nil
}

// PackageURL returns the human-facing npmjs.com page for a package.
func PackageURL(name string) string {
	return fmt.Sprintf("https://www.npmjs.com/package/%s", name)
}

// PURL returns the package-url identifier for a package. Scoped names
// put the @scope in the namespace segment.
func PURL(name, version string) string {
	namespace := ""
	pkgName := name
	if strings.HasPrefix(name, "@") && strings.Contains(name, "/") {
		parts := strings.SplitN(name, "/", 2)
		namespace = parts[0]
		pkgName = parts[1]
	}

	purl := "pkg:npm/" + pkgName
	if namespace != "" {
		purl = "pkg:npm/" + namespace + "/" + pkgName
	}
	if version != "" {
		purl += "@" + version
	}
	return purl
}
