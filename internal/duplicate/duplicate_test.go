package duplicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/internal/scan"
)

func TestFindGroupsFilesWithSameHash(t *testing.T) {
	files := []scan.SourceFile{
		{RelativePath: "a/one.go", ContentHash: "h1"},
		{RelativePath: "b/two.go", ContentHash: "h1"},
		{RelativePath: "c/three.go", ContentHash: "h2"},
	}
	report := Find(files, 20, 10, 3)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, []string{"a/one.go", "b/two.go"}, report.Groups[0].Files)
}

func TestFindCapsGroupsAndFilesPerGroup(t *testing.T) {
	files := []scan.SourceFile{
		{RelativePath: "a.go", ContentHash: "h1"},
		{RelativePath: "b.go", ContentHash: "h1"},
		{RelativePath: "c.go", ContentHash: "h1"},
		{RelativePath: "d.go", ContentHash: "h2"},
		{RelativePath: "e.go", ContentHash: "h2"},
	}
	report := Find(files, 1, 2, 3)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, 2, report.TotalGroups)
	assert.Len(t, report.Groups[0].Files, 2)
}

func TestRenderNoDuplicates(t *testing.T) {
	assert.Equal(t, "No duplicate files detected.", Render(Report{}))
}

func TestRenderListsGroupsAndTopDirs(t *testing.T) {
	report := Report{
		TotalGroups: 1,
		Groups:      []Group{{Hash: "h1", Files: []string{"a/one.go", "a/two.go"}}},
		TopDirs:     []string{"a"},
	}
	out := Render(report)
	assert.Contains(t, out, "a/one.go, a/two.go")
	assert.Contains(t, out, "Top directories: a")
}
