package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAnalyzeFileComputesHealthAndIssues(t *testing.T) {
	dir := t.TempDir()
	source := "def f(a, b, c, d, e, f, g):\n    return 1\n"
	writeFile(t, dir, "pkg/f.py", source)

	pc := NewContext(dir)
	fa := pc.AnalyzeFile(context.Background(), "pkg/f.py", []byte(source), false)
	assert.Equal(t, "pkg/f.py", fa.Health.RelativePath)
	assert.Greater(t, fa.Health.Lines, 0)
}

func TestBuildProjectSnapshotAggregatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "def a():\n    return 1\n")
	writeFile(t, dir, "b.py", "def b():\n    return 2\n")

	pc := NewContext(dir)
	snapshot, err := pc.BuildProjectSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.View.Files, 2)
	assert.NotNil(t, snapshot.Duplicates)
}

func TestAnalyzeChangeDetectsContractReduction(t *testing.T) {
	dir := t.TempDir()
	pc := NewContext(dir)
	oldText := "def charge(amount, currency, idempotency_key):\n    pass\n"
	newText := "def charge(amount, currency):\n    pass\n"

	result := pc.AnalyzeChange(context.Background(), "billing.py", oldText, newText, false)
	require.Len(t, result.Contract, 1)
	assert.Equal(t, "idempotency_key", result.Contract[0].RemovedParam)
}

// TestAnalyzeChangePropagatesSkipNote covers scenario 6: a file past
// the soft byte budget must surface the facade's uniform [ANALYSIS]
// note all the way through ChangeAnalysis.File, not just gate rules
// internally.
func TestAnalyzeChangePropagatesSkipNote(t *testing.T) {
	dir := t.TempDir()
	pc := NewContext(dir)

	oversized := strings.Repeat("x", 600_000)
	newText := "package p\n// " + oversized + "\nfunc f() {}\n"

	result := pc.AnalyzeChange(context.Background(), "big.go", "", newText, false)
	require.True(t, result.File.Skipped)
	assert.Contains(t, result.File.SkipNote, "[ANALYSIS] Skipped AST analysis due to soft budget")
	assert.Contains(t, result.File.SkipNote, "size")
}

func TestLanguageLineSortsByName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")
	writeFile(t, dir, "b.go", "package b\n")

	pc := NewContext(dir)
	snapshot, err := pc.BuildProjectSnapshot(context.Background())
	require.NoError(t, err)
	line := LanguageLine(snapshot.View)
	assert.Contains(t, line, "go")
	assert.Contains(t, line, "python")
	assert.Equal(t, "go: 1, python: 1", line)
}
