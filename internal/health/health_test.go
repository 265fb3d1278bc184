package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hookguard/hookguard/internal/langs"
	"github.com/hookguard/hookguard/internal/parse"
)

func TestComputeFileHealthDocsShare(t *testing.T) {
	src := []byte("// comment one\n// comment two\ncode()\n")
	fh := ComputeFileHealth("f.go", src, langs.Go, false, nil)
	assert.InDelta(t, 66.66, fh.DocsPercent, 0.1)
}

func TestComputeFileHealthHashCommentsForPython(t *testing.T) {
	src := []byte("# a comment\nx = 1\n")
	fh := ComputeFileHealth("f.py", src, langs.Python, false, nil)
	assert.InDelta(t, 50.0, fh.DocsPercent, 0.1)
}

func TestComputeFileHealthComplexityFromEntities(t *testing.T) {
	src := []byte("func f() {}\n")
	entities := []parse.Entity{
		{CyclomaticEstimate: 3, MaxNesting: 1},
		{CyclomaticEstimate: 15, MaxNesting: 4},
	}
	fh := ComputeFileHealth("f.go", src, langs.Go, false, entities)
	assert.Equal(t, 15, fh.MaxCyclomatic)
	assert.InDelta(t, 9.0, fh.AvgCyclomatic, 0.01)
	assert.True(t, fh.HighComplexity)
}

func TestAggregateComputesProjectAverages(t *testing.T) {
	files := []FileHealth{
		{RelativePath: "a.go", IsTest: false, DocsPercent: 10, AvgCyclomatic: 2, MaxCyclomatic: 2, AvgNesting: 1},
		{RelativePath: "a_test.go", IsTest: true, DocsPercent: 20, AvgCyclomatic: 0, MaxCyclomatic: 0},
		{RelativePath: "b.go", IsTest: false, DocsPercent: 30, AvgCyclomatic: 20, MaxCyclomatic: 20, AvgNesting: 5, HighComplexity: true},
	}
	pj := Aggregate(files)
	assert.InDelta(t, 33.33, pj.TestSharePercent, 0.1)
	assert.InDelta(t, 20.0, pj.DocsSharePercent, 0.1)
	assert.Equal(t, 1, pj.HighComplexityFileCount)
	assert.InDelta(t, 11.0, pj.AvgCyclomatic, 0.01)
}

func TestAggregateEmptyFilesIsZeroValue(t *testing.T) {
	pj := Aggregate(nil)
	assert.Equal(t, 0.0, pj.TestSharePercent)
}
