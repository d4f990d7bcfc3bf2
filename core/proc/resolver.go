package proc

import (
	"path"
	"strings"
)

// DefaultBinDir is where bare program names are looked for.
const DefaultBinDir = "/bin"

// Resolver maps a stage name to the path that gets executed. It never
// touches the filesystem; a bad path only shows up when the stage starts.
type Resolver struct {
	// DefaultDir is joined with names that aren't paths or known tools.
	DefaultDir string
	// KnownTools maps a name to its absolute install path.
	KnownTools map[string]string
}

// NewResolver creates a resolver, an empty dir means DefaultBinDir.
func NewResolver(defaultDir string, knownTools map[string]string) *Resolver {
	if defaultDir == "" {
		defaultDir = DefaultBinDir
	}
	tools := make(map[string]string, len(knownTools))
	for k, v := range knownTools {
		tools[k] = v
	}
	return &Resolver{DefaultDir: defaultDir, KnownTools: tools}
}

// Resolve returns the executable path for name:
//
//   - names starting with '/' or '.' are used as they are,
//   - known tools resolve to their install path,
//   - everything else is looked up in DefaultDir.
func (r *Resolver) Resolve(name string) string {
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, ".") {
		return name
	}
	if p, ok := r.KnownTools[name]; ok {
		return p
	}
	dir := r.DefaultDir
	if dir == "" {
		dir = DefaultBinDir
	}
	return path.Join(dir, name)
}
