package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/internal/langs"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestScanDeterministicOrderAndLanguageCounts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/b.py", "def f():\n    pass\n")
	writeFile(t, root, "src/a.go", "package a\n")
	writeFile(t, root, "node_modules/dep/index.js", "console.log(1)\n")
	writeFile(t, root, "src/a_test.go", "package a\n")

	pv, err := Scan(context.Background(), root, DefaultConfig(), LoadCache(root))
	require.NoError(t, err)
	require.Len(t, pv.Files, 3)

	var rels []string
	for _, f := range pv.Files {
		rels = append(rels, f.RelativePath)
	}
	assert.Equal(t, []string{"src/a.go", "src/a_test.go", "src/b.py"}, rels)

	assert.Equal(t, 1, pv.LanguageCounts[langs.Python])
	assert.Equal(t, 2, pv.LanguageCounts[langs.Go])
	assert.Equal(t, 1, pv.TestFileCount)
}

func TestScanSuppressesHiddenFilesByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".hidden/secret.go", "package hidden\n")
	writeFile(t, root, "visible.go", "package main\n")

	pv, err := Scan(context.Background(), root, DefaultConfig(), LoadCache(root))
	require.NoError(t, err)
	require.Len(t, pv.Files, 1)
	assert.Equal(t, "visible.go", pv.Files[0].RelativePath)
}

func TestScanHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\nbuild_out/\n")
	writeFile(t, root, "app.go", "package main\n")
	writeFile(t, root, "debug.log", "noise\n")
	writeFile(t, root, "build_out/artifact.txt", "x\n")

	pv, err := Scan(context.Background(), root, DefaultConfig(), LoadCache(root))
	require.NoError(t, err)
	require.Len(t, pv.Files, 1)
	assert.Equal(t, "app.go", pv.Files[0].RelativePath)
}

func TestScanHonorsConfigIgnoreGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.go", "package main\n")
	writeFile(t, root, "generated/schema.go", "package generated\n")

	cfg := DefaultConfig()
	cfg.IgnoreGlobs = []string{"generated/**"}
	pv, err := Scan(context.Background(), root, cfg, LoadCache(root))
	require.NoError(t, err)
	require.Len(t, pv.Files, 1)
	assert.Equal(t, "app.go", pv.Files[0].RelativePath)
}

func TestCacheReusesUnchangedHash(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.go", "package main\n")

	cache := LoadCache(root)
	pv1, err := Scan(context.Background(), root, DefaultConfig(), cache)
	require.NoError(t, err)
	require.Len(t, pv1.Files, 1)
	hash1 := pv1.Files[0].ContentHash
	require.NoError(t, cache.Save())

	cache2 := LoadCache(root)
	pv2, err := Scan(context.Background(), root, DefaultConfig(), cache2)
	require.NoError(t, err)
	require.Len(t, pv2.Files, 1)
	assert.Equal(t, hash1, pv2.Files[0].ContentHash)
}

func TestCacheNeedsFullRescanAboveThreshold(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 12; i++ {
		writeFile(t, root, filepath.Join("src", "f"+string(rune('a'+i))+".go"), "package src\n")
	}
	cache := LoadCache(root)
	_, err := Scan(context.Background(), root, DefaultConfig(), cache)
	require.NoError(t, err)
	assert.True(t, cache.NeedsFullRescan())
}
