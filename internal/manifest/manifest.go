// Package manifest implements the dependency manifest summarizer, a
// boundary collaborator per §9's design note: it reads a project's
// package.json/requirements.txt/Cargo.toml/pyproject.toml and renders
// a deterministic, sorted dependency list for the assembler's prompt
// context. Parsing is shallow by design — the core's job is only to
// name what's declared, not resolve a dependency graph.
//
// Grounded on the teacher's internal/config use of BurntSushi/toml for
// TOML decoding; npm/pip manifests have no native Go equivalent in the
// teacher, so their formats (JSON, line-oriented requirements.txt) are
// read with the same encoding/json plus a small line parser.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Dependency is one declared dependency name + version constraint (as
// written; not resolved).
type Dependency struct {
	Name    string
	Version string
}

// Manifest is one discovered manifest file's summary.
type Manifest struct {
	Kind string // "npm" | "pip" | "cargo" | "poetry"
	Path string
	Deps []Dependency
}

// Discover looks for recognized manifest files directly under root
// and parses each one found. Unreadable or unparsable manifests are
// skipped silently — this collaborator never fails the hook.
func Discover(root string) []Manifest {
	var out []Manifest
	if m := tryNPM(root); m != nil {
		out = append(out, *m)
	}
	if m := tryPip(root); m != nil {
		out = append(out, *m)
	}
	if m := tryCargo(root); m != nil {
		out = append(out, *m)
	}
	if m := tryPoetry(root); m != nil {
		out = append(out, *m)
	}
	return out
}

func tryNPM(root string) *Manifest {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}
	var doc struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	deps := mergeDeps(doc.Dependencies, doc.DevDependencies)
	return &Manifest{Kind: "npm", Path: "package.json", Deps: deps}
}

var requirementLineRe = regexp.MustCompile(`^([A-Za-z0-9_.\-]+)\s*([<>=!~]=?[^;#]*)?`)

func tryPip(root string) *Manifest {
	data, err := os.ReadFile(filepath.Join(root, "requirements.txt"))
	if err != nil {
		return nil
	}
	var deps []Dependency
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		m := requirementLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		deps = append(deps, Dependency{Name: m[1], Version: strings.TrimSpace(m[2])})
	}
	sortDeps(deps)
	return &Manifest{Kind: "pip", Path: "requirements.txt", Deps: deps}
}

func tryCargo(root string) *Manifest {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var doc struct {
		Dependencies map[string]toml.Primitive `toml:"dependencies"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil
	}
	var deps []Dependency
	for name := range doc.Dependencies {
		deps = append(deps, Dependency{Name: name, Version: cargoVersion(doc.Dependencies[name])})
	}
	sortDeps(deps)
	return &Manifest{Kind: "cargo", Path: "Cargo.toml", Deps: deps}
}

func cargoVersion(prim toml.Primitive) string {
	var s string
	if err := toml.PrimitiveDecode(prim, &s); err == nil {
		return s
	}
	var withVersion struct {
		Version string `toml:"version"`
	}
	if err := toml.PrimitiveDecode(prim, &withVersion); err == nil {
		return withVersion.Version
	}
	return ""
}

func tryPoetry(root string) *Manifest {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return nil
	}
	var doc struct {
		Tool struct {
			Poetry struct {
				Dependencies map[string]toml.Primitive `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil
	}
	if len(doc.Tool.Poetry.Dependencies) == 0 {
		return nil
	}
	var deps []Dependency
	for name := range doc.Tool.Poetry.Dependencies {
		deps = append(deps, Dependency{Name: name, Version: cargoVersion(doc.Tool.Poetry.Dependencies[name])})
	}
	sortDeps(deps)
	return &Manifest{Kind: "poetry", Path: "pyproject.toml", Deps: deps}
}

func mergeDeps(maps ...map[string]string) []Dependency {
	var deps []Dependency
	for _, m := range maps {
		for name, version := range m {
			deps = append(deps, Dependency{Name: name, Version: version})
		}
	}
	sortDeps(deps)
	return deps
}

func sortDeps(deps []Dependency) {
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
}

// Render composes a deterministic text block for one Manifest.
func Render(m Manifest) string {
	var b strings.Builder
	b.WriteString(m.Kind + " (" + m.Path + "):\n")
	for _, d := range m.Deps {
		b.WriteString(d.Name)
		if d.Version != "" {
			b.WriteString(" " + d.Version)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
