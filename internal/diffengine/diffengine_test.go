package diffengine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/internal/parse"
	"github.com/hookguard/hookguard/internal/rules"
)

func TestComputeChangeDetectsAddedLine(t *testing.T) {
	old := "line1\nline2\nline3"
	new := "line1\nline2\nline2.5\nline3"
	c := ComputeChange("f.txt", old, new)
	assert.True(t, c.ChangedLines[3])
	assert.False(t, c.ChangedLines[1])
}

func TestComputeChangeIdenticalTextHasNoChangedLines(t *testing.T) {
	c := ComputeChange("f.txt", "same\ntext", "same\ntext")
	assert.Empty(t, c.ChangedLines)
}

func TestUnifiedDiffEmptyForIdenticalText(t *testing.T) {
	assert.Equal(t, "", UnifiedDiff("same", "same"))
}

func TestUnifiedDiffContainsAddedAndRemovedMarkers(t *testing.T) {
	out := UnifiedDiff("a\nb\nc", "a\nx\nc")
	assert.Contains(t, out, "-b")
	assert.Contains(t, out, "+x")
	assert.Contains(t, out, "@@")
}

func TestUnifiedDiffRoundTrips(t *testing.T) {
	old := "func f() {\n\treturn 1\n}\n"
	new := "func f() {\n\treturn 2\n}\n"
	out := UnifiedDiff(old, new)
	require.NotEmpty(t, out)
	assert.Contains(t, out, "-\treturn 1")
	assert.Contains(t, out, "+\treturn 2")
}

func TestBuildSnippetsEntityScoped(t *testing.T) {
	newText := "func a() {\n\treturn 1\n}\n\nfunc calculateTotal() {\n\treturn 2\n}\n"
	change := &Change{File: "f.go", NewText: newText, ChangedLines: map[int]bool{6: true}}
	entities := []parse.Entity{
		{Name: "a", LineStart: 1, LineEnd: 3, Body: "func a() {\n\treturn 1\n}"},
		{Name: "calculateTotal", LineStart: 5, LineEnd: 7, Body: "func calculateTotal() {\n\treturn 2\n}"},
	}
	snippets := BuildSnippets(change, entities, nil)
	require.Len(t, snippets, 1)
	assert.Equal(t, "calculateTotal", snippets[0].EntityName)
	assert.Equal(t, 5, snippets[0].LineStart)
	assert.Equal(t, 7, snippets[0].LineEnd)
}

func TestBuildSnippetsFallsBackToFlatWindowWithoutEntities(t *testing.T) {
	newText := strings.Repeat("x\n", 20)
	change := &Change{File: "f.txt", NewText: newText, ChangedLines: map[int]bool{10: true}}
	snippets := BuildSnippets(change, nil, nil)
	require.Len(t, snippets, 1)
	assert.Equal(t, "", snippets[0].EntityName)
	assert.Equal(t, 7, snippets[0].LineStart)
	assert.Equal(t, 13, snippets[0].LineEnd)
}

func TestBuildSnippetsMarksIssueLines(t *testing.T) {
	newText := "func a() {\n\treturn 1\n}\n"
	change := &Change{File: "f.go", NewText: newText, ChangedLines: map[int]bool{2: true}}
	entities := []parse.Entity{{Name: "a", LineStart: 1, LineEnd: 3, Body: "func a() {\n\treturn 1\n}"}}
	issues := []rules.Issue{{Line: 2, RuleID: rules.LogicUnreachable}}
	snippets := BuildSnippets(change, entities, issues)
	require.Len(t, snippets, 1)
	assert.Contains(t, snippets[0].Text, ">2:")
	assert.Contains(t, snippets[0].Text, " 1:")
}

func TestBuildSnippetsCapsAtMaxSnippetsPerFile(t *testing.T) {
	var b strings.Builder
	entities := make([]parse.Entity, 0, 5)
	changed := map[int]bool{}
	line := 1
	for i := 0; i < 5; i++ {
		start := line
		b.WriteString("func f" + string(rune('a'+i)) + "() {\n\treturn 0\n}\n\n")
		end := start + 2
		entities = append(entities, parse.Entity{Name: string(rune('a' + i)), LineStart: start, LineEnd: end, Body: "func f() {\n\treturn 0\n}"})
		changed[start+1] = true
		line = end + 2
	}
	change := &Change{File: "f.go", NewText: b.String(), ChangedLines: changed}
	snippets := BuildSnippets(change, entities, nil)
	assert.LessOrEqual(t, len(snippets), defaultMaxSnippets)
}

func TestBuildSnippetsNoChangesReturnsNil(t *testing.T) {
	change := &Change{File: "f.go", NewText: "func a(){}\n", ChangedLines: map[int]bool{}}
	assert.Nil(t, BuildSnippets(change, nil, nil))
}
