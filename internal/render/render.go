// Package render turns per-package pipeline status into one-line
// annotations for display next to each dependency declaration.
package render

import (
	"fmt"
	"strings"

	"github.com/depfresh/depfresh/internal/manifest"
	"github.com/depfresh/depfresh/internal/npm"
	"github.com/depfresh/depfresh/internal/prefetch"
)

// Statuser reports the pipeline state of one package.
type Statuser interface {
	Status(name string) prefetch.Status
}

// Annotation is the rendered result for one dependency line.
type Annotation struct {
	Package string
	Spec    string
	Latest  string
	State   prefetch.State
	Text    string
	PURL    string
}

// Renderer produces annotations from the pipeline's per-package status.
type Renderer struct {
	status Statuser
}

// New creates a renderer reading from status.
func New(status Statuser) *Renderer {
	return &Renderer{status: status}
}

// Annotate produces one annotation per dependency, in input order.
// Renderers read the pipeline without any atomicity guarantee: the
// state may move on between this read and the display.
func (r *Renderer) Annotate(deps []manifest.Dependency) []Annotation {
	out := make([]Annotation, 0, len(deps))
	for _, d := range deps {
		st := r.status.Status(d.Name)
		out = append(out, Annotation{
			Package: d.Name,
			Spec:    d.Spec,
			Latest:  st.Version,
			State:   st.State,
			Text:    text(d, st),
			PURL:    npm.PURL(d.Name, st.Version),
		})
	}
	return out
}

func text(d manifest.Dependency, st prefetch.Status) string {
	switch st.State {
	case prefetch.StateSuccess:
		if Outdated(d.Spec, st.Version) {
			return fmt.Sprintf("update available: %s", st.Version)
		}
		return "up to date"
	case prefetch.StateLoading:
		return "checking..."
	case prefetch.StateNotFound:
		return "package not found"
	case prefetch.StateRateLimited:
		return fmt.Sprintf("rate limited (attempt %d)", st.Attempts)
	case prefetch.StateTimeout:
		return fmt.Sprintf("slow network (attempt %d)", st.Attempts)
	case prefetch.StateMaxRetries:
		return "max retries reached"
	case prefetch.StateError:
		return fmt.Sprintf("lookup failed (attempt %d)", st.Attempts)
	default:
		return "not checked"
	}
}

// Outdated reports whether the declared specifier no longer names the
// latest published version. The comparison is the plain string check
// against the specifier with its range operator stripped: "^1.2.0" is
// outdated once latest is "1.3.0".
func Outdated(spec, latest string) bool {
	if latest == "" {
		return false
	}
	return stripRange(spec) != latest
}

func stripRange(spec string) string {
	spec = strings.TrimSpace(spec)
	spec = strings.TrimLeft(spec, "^~<>=")
	return strings.TrimPrefix(spec, "v")
}
