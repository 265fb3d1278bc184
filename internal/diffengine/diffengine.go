// Package diffengine implements the diff engine (C5): given old/new
// file text it produces a unified diff, the changed-line set, the
// changed AST entities, and capped entity (or flat-window) snippets
// for the context assembler.
//
// Grounded on the teacher's diff.Engine (internal/diff/diff.go): the
// sergi/go-diff DiffLinesToChars/DiffMain/DiffCharsToLines pipeline
// and hunk-building shape are kept; hunks are additionally reduced to
// a changed-line set and entity-scoped snippets, which the teacher's
// package does not need for its terminal-UI purpose.
package diffengine

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/hookguard/hookguard/internal/parse"
	"github.com/hookguard/hookguard/internal/rules"
)

// Change is the Data Model's Δ for one tool event.
type Change struct {
	File         string
	OldText      string
	NewText      string
	ChangedLines map[int]bool // 1-based, against NewText
}

// ComputeChange builds a Change from old/new text, deriving
// ChangedLines by aligning the two line-by-line.
func ComputeChange(file, oldText, newText string) *Change {
	c := &Change{File: file, OldText: oldText, NewText: newText, ChangedLines: map[int]bool{}}
	for _, op := range diffOperations(oldText, newText) {
		if op.typ != opContext && op.newLine > 0 {
			c.ChangedLines[op.newLine] = true
		}
	}
	return c
}

// UnifiedDiff renders a 3-line-context unified diff of old vs new. An
// identical pair yields the empty string (the assembler substitutes
// "[no textual change]").
func UnifiedDiff(oldText, newText string) string {
	if oldText == newText {
		return ""
	}
	ops := diffOperations(oldText, newText)
	hunks := groupIntoHunks(ops, 3)
	var b strings.Builder
	for _, h := range hunks {
		b.WriteString(h.Header())
		b.WriteByte('\n')
		for _, l := range h.Lines {
			switch l.Type {
			case opAdded:
				b.WriteByte('+')
			case opRemoved:
				b.WriteByte('-')
			default:
				b.WriteByte(' ')
			}
			b.WriteString(l.Content)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// opType is a diff line classification, grounded on the teacher's
// LineType.
type opType int

const (
	opContext opType = iota
	opAdded
	opRemoved
)

type lineOp struct {
	typ     opType
	oldLine int // 1-based; 0 when not applicable
	newLine int
	content string
}

var dmp = diffmatchpatch.New()

func diffOperations(oldText, newText string) []lineOp {
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ops []lineOp
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		lines := strings.Split(d.Text, "\n")
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldLine++
				newLine++
				ops = append(ops, lineOp{typ: opContext, oldLine: oldLine, newLine: newLine, content: line})
			case diffmatchpatch.DiffDelete:
				oldLine++
				ops = append(ops, lineOp{typ: opRemoved, oldLine: oldLine, content: line})
			case diffmatchpatch.DiffInsert:
				newLine++
				ops = append(ops, lineOp{typ: opAdded, newLine: newLine, content: line})
			}
		}
	}
	return ops
}

// hunk is one contiguous group of changes plus surrounding context.
type hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []lineOp
}

func (h hunk) Header() string {
	return "@@ -" + itoa(h.OldStart) + "," + itoa(h.OldCount) + " +" + itoa(h.NewStart) + "," + itoa(h.NewCount) + " @@"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func groupIntoHunks(ops []lineOp, contextLines int) []hunk {
	if len(ops) == 0 {
		return nil
	}
	var hunks []hunk
	var current *hunk
	lastChange := -1

	for i, op := range ops {
		isChange := op.typ != opContext
		if isChange {
			if current == nil {
				start := i - contextLines
				if start < 0 {
					start = 0
				}
				current = &hunk{}
				for j := start; j < i; j++ {
					if ops[j].typ == opContext {
						current.Lines = append(current.Lines, ops[j])
					}
				}
				current.OldStart = ops[start].oldLine
				current.NewStart = ops[start].newLine
			}
			lastChange = i
		}
		if current != nil {
			current.Lines = append(current.Lines, op)
			if op.typ == opContext && i-lastChange > contextLines {
				trimTo := len(current.Lines) - (i - lastChange - contextLines)
				if trimTo > 0 && trimTo < len(current.Lines) {
					current.Lines = current.Lines[:trimTo]
				}
				computeCounts(current)
				hunks = append(hunks, *current)
				current = nil
			}
		}
	}
	if current != nil && len(current.Lines) > 0 {
		computeCounts(current)
		hunks = append(hunks, *current)
	}
	return hunks
}

func computeCounts(h *hunk) {
	for _, l := range h.Lines {
		if l.typ == opRemoved || l.typ == opContext {
			h.OldCount++
		}
		if l.typ == opAdded || l.typ == opContext {
			h.NewCount++
		}
	}
}

// Snippet is one entity- or window-scoped excerpt for the CHANGE
// CONTEXT section.
type Snippet struct {
	EntityName string // "" for a flat-window fallback
	LineStart  int
	LineEnd    int
	Text       string // rendered with line numbers and '>' issue markers
}

const (
	defaultSnippetCharCap  = 1500
	defaultMaxSnippets     = 3
	defaultSnippetsCharCap = 1500
	defaultDiffContextLines = 3
)

// BuildSnippets maps a Change's changed lines onto entities, emitting
// an entity-scoped snippet per affected entity (capped, ordered by
// line_start), falling back to flat windows for changed lines outside
// any entity or when entities is empty (no parse).
func BuildSnippets(change *Change, entities []parse.Entity, issues []rules.Issue) []Snippet {
	if len(change.ChangedLines) == 0 {
		return nil
	}
	issueLines := map[int]bool{}
	for _, iss := range issues {
		issueLines[iss.Line] = true
	}

	var changed []int
	for l := range change.ChangedLines {
		changed = append(changed, l)
	}
	sort.Ints(changed)

	covered := map[int]bool{}
	var snippets []Snippet
	for _, e := range entities {
		hasChange := false
		for _, l := range changed {
			if l >= e.LineStart && l <= e.LineEnd {
				hasChange = true
				covered[l] = true
			}
		}
		if !hasChange {
			continue
		}
		snippets = append(snippets, Snippet{
			EntityName: e.Name,
			LineStart:  e.LineStart,
			LineEnd:    e.LineEnd,
			Text:       renderSnippet(e.Body, e.LineStart, issueLines),
		})
	}

	var uncovered []int
	for _, l := range changed {
		if !covered[l] {
			uncovered = append(uncovered, l)
		}
	}
	newLines := strings.Split(change.NewText, "\n")
	for _, group := range groupConsecutive(uncovered, defaultDiffContextLines) {
		start := group[0] - defaultDiffContextLines
		if start < 1 {
			start = 1
		}
		end := group[len(group)-1] + defaultDiffContextLines
		if end > len(newLines) {
			end = len(newLines)
		}
		if start > end {
			continue
		}
		body := strings.Join(newLines[start-1:end], "\n")
		snippets = append(snippets, Snippet{
			LineStart: start,
			LineEnd:   end,
			Text:      renderSnippet(body, start, issueLines),
		})
	}

	sort.SliceStable(snippets, func(i, j int) bool { return snippets[i].LineStart < snippets[j].LineStart })
	if len(snippets) > defaultMaxSnippets {
		snippets = snippets[:defaultMaxSnippets]
	}

	total := 0
	for i := range snippets {
		remaining := defaultSnippetsCharCap - total
		if remaining <= 0 {
			snippets = snippets[:i]
			break
		}
		if len(snippets[i].Text) > remaining {
			snippets[i].Text = clipAtRune(snippets[i].Text, remaining)
		}
		total += len(snippets[i].Text)
	}
	return snippets
}

// groupConsecutive splits a sorted line list into runs where adjacent
// members are within 2*contextLines of each other, so nearby changed
// lines share one flat-window snippet rather than overlapping ones.
func groupConsecutive(lines []int, contextLines int) [][]int {
	if len(lines) == 0 {
		return nil
	}
	var groups [][]int
	cur := []int{lines[0]}
	for _, l := range lines[1:] {
		if l-cur[len(cur)-1] <= 2*contextLines {
			cur = append(cur, l)
		} else {
			groups = append(groups, cur)
			cur = []int{l}
		}
	}
	return append(groups, cur)
}

// renderSnippet numbers body's lines starting at lineStart (1-based
// within the full file), marking any line present in issueLines with
// a leading '>', and truncates the whole snippet at
// defaultSnippetCharCap with an ellipsis on overflow.
func renderSnippet(body string, lineStart int, issueLines map[int]bool) string {
	lines := strings.Split(body, "\n")
	var b strings.Builder
	for i, l := range lines {
		lineNum := lineStart + i
		marker := " "
		if issueLines[lineNum] {
			marker = ">"
		}
		b.WriteString(marker)
		b.WriteString(itoa(lineNum))
		b.WriteString(": ")
		b.WriteString(l)
		if i != len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return clipAtRune(b.String(), defaultSnippetCharCap)
}

func clipAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	truncated := false
	for len(string(r)) > max {
		r = r[:len(r)-1]
		truncated = true
	}
	out := string(r)
	if truncated {
		out += "…"
	}
	return out
}
