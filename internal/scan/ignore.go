package scan

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/hookguard/hookguard/internal/logging"
)

// ignoreMatcher implements should_ignore(path, root) with the
// contract's fixed precedence: built-ins, then .gitignore, then
// config ignore_globs. All three layers are consulted independently
// (first match wins, but any layer can veto a path).
type ignoreMatcher struct {
	builtins []string
	gi       *gitignore.GitIgnore // nil if no .gitignore present
	globs    []string
}

func newIgnoreMatcher(root string, builtins, configGlobs []string) *ignoreMatcher {
	m := &ignoreMatcher{builtins: builtins, globs: configGlobs}
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		gi, err := gitignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			logging.Warnf(logging.CategoryScan, "failed to parse .gitignore: %v", err)
		} else {
			m.gi = gi
		}
	}
	return m
}

// ShouldIgnorePredicate builds C8's reusable should_ignore(path, root)
// predicate, combining built-ins, the project .gitignore, and the
// configured ignore_globs. The returned func takes a path already
// relative to root (slash-normalized) plus its base name.
func ShouldIgnorePredicate(root string, ignoreGlobs []string) func(rel, name string) bool {
	m := newIgnoreMatcher(root, builtinIgnorePatterns, ignoreGlobs)
	return func(rel, name string) bool { return m.shouldIgnore(rel, name) }
}

// shouldIgnoreDir reports whether a directory should be pruned
// (filepath.WalkDir's SkipDir). Directory-shaped built-in patterns
// ("target/", "node_modules/") match a directory by name here; for a
// plain file they match when any parent directory bears that name.
func (m *ignoreMatcher) shouldIgnoreDir(rel, name string) bool {
	return m.matches(rel, name, true)
}

// shouldIgnore reports whether a plain file should be skipped.
func (m *ignoreMatcher) shouldIgnore(rel, name string) bool {
	return m.matches(rel, name, false)
}

func (m *ignoreMatcher) matches(rel, name string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	for _, raw := range m.builtins {
		if matchesBuiltin(raw, rel, name, isDir) {
			return true
		}
	}
	if m.gi != nil && m.gi.MatchesPath(rel) {
		return true
	}
	for _, raw := range m.globs {
		pattern := filepath.ToSlash(strings.TrimSpace(raw))
		if pattern == "" {
			continue
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func matchesBuiltin(pattern, rel, name string, isDir bool) bool {
	if strings.HasSuffix(pattern, "/") {
		dirName := strings.TrimSuffix(pattern, "/")
		if !isDir {
			// A directory-shaped built-in can still match a path whose
			// parent directory bears that name (the directory itself was
			// not pruned earlier, e.g. a symlinked mount).
			return strings.Contains("/"+rel+"/", "/"+dirName+"/")
		}
		return name == dirName
	}
	if strings.ContainsAny(pattern, "*?[]") {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
		ok, _ := path.Match(pattern, rel)
		return ok
	}
	return name == pattern
}
