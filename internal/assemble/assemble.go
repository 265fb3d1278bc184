// Package assemble implements the context assembler (C6): it
// composes PostToolUse's additionalContext as a fixed, totally
// ordered sequence of "=== NAME ===" sections under byte caps, and
// the smaller UserPromptSubmit project snapshot.
//
// Grounded on the teacher's chat/tips.go and chat/welcome.go (which
// compose fixed multi-section text blocks for the assistant's
// context window) for the "build ordered sections, join, truncate"
// shape; the section catalogue and caps themselves are this
// contract's own.
package assemble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hookguard/hookguard/internal/contract"
	"github.com/hookguard/hookguard/internal/diffengine"
	"github.com/hookguard/hookguard/internal/health"
	"github.com/hookguard/hookguard/internal/rules"
	"github.com/hookguard/hookguard/internal/timings"
)

// Caps bounds the assembled output, mirroring the contract's
// configuration surface.
type Caps struct {
	ContextByteCap int // additional_context_limit_chars, default 100000
	MaxMajor       int
	MaxMinor       int
	QuickTipsMax   int // default 6
	MaxSnippets    int // default 3, already applied by diffengine.BuildSnippets
	ASTTimings     bool
}

// DefaultCaps returns the contract's stated defaults.
func DefaultCaps() Caps {
	return Caps{
		ContextByteCap: 100000,
		MaxMajor:       50,
		MaxMinor:       50,
		QuickTipsMax:   6,
		MaxSnippets:    3,
	}
}

// PostToolUseInput bundles every section's raw material. File is the
// single changed file's relative path; Issues/ContractChanges are
// scoped to that file's new content.
type PostToolUseInput struct {
	File            string
	UnifiedDiff     string
	Issues          []rules.Issue
	Snippets        []diffengine.Snippet
	SkipNote        string // when non-empty, replaces Snippets as CHANGE CONTEXT's body
	FileHealth      health.FileHealth
	ProjectHealth   health.ProjectHealth
	ContractChanges []contract.Change
	Timings         []timings.Stats
}

// AssemblePostToolUse renders the fixed eight-section sequence,
// omitting TIMINGS unless caps.ASTTimings, and enforcing caps.ContextByteCap
// with UTF-8-safe truncation across section boundaries (P4).
func AssemblePostToolUse(in PostToolUseInput, caps Caps) string {
	sections := []namedSection{
		{"CHANGE SUMMARY", changeSummarySection(in)},
		{"RISK REPORT", riskReportSection(in, caps)},
		{"CHANGE CONTEXT", changeContextSection(in)},
		{"CODE HEALTH", codeHealthSection(in)},
		{"API CONTRACT", apiContractSection(in)},
		{"QUICK TIPS", quickTipsSection(in, caps)},
		{"NEXT STEPS", nextStepsSection(in)},
	}
	if caps.ASTTimings && len(in.Timings) > 0 {
		sections = append(sections, namedSection{"TIMINGS (ms)", timingsSection(in)})
	}
	return renderCapped(sections, caps.ContextByteCap)
}

type namedSection struct {
	name string
	body string
}

func renderCapped(sections []namedSection, byteCap int) string {
	var b strings.Builder
	remaining := byteCap
	for _, s := range sections {
		header := fmt.Sprintf("=== %s ===\n", s.name)
		block := header + s.body + "\n"
		if remaining <= 0 {
			break
		}
		if len(block) > remaining {
			block = clipAtRuneBoundary(block, remaining)
		}
		b.WriteString(block)
		remaining -= len(block)
	}
	return strings.TrimRight(b.String(), "\n")
}

func clipAtRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	const ellipsis = "…"
	r := []rune(s)
	for len(r) > 0 && len(string(r))+len(ellipsis) > max {
		r = r[:len(r)-1]
	}
	out := string(r)
	return strings.TrimSuffix(out, "\n") + ellipsis
}

func changeSummarySection(in PostToolUseInput) string {
	if in.UnifiedDiff == "" {
		return "[no textual change]"
	}
	return in.UnifiedDiff
}

func riskReportSection(in PostToolUseInput, caps Caps) string {
	issues := sortedIssues(in.Issues)
	var critical, major, minor []rules.Issue
	for _, iss := range issues {
		switch iss.Severity {
		case rules.Critical:
			critical = append(critical, iss)
		case rules.Major:
			major = append(major, iss)
		default:
			minor = append(minor, iss)
		}
	}
	if len(major) > caps.MaxMajor {
		major = major[:caps.MaxMajor]
	}
	if len(minor) > caps.MaxMinor {
		minor = minor[:caps.MaxMinor]
	}

	var lines []string
	for _, group := range [][]rules.Issue{critical, major, minor} {
		for _, iss := range group {
			lines = append(lines, formatRiskLine(in.File, iss))
		}
	}
	if len(lines) == 0 {
		return "No issues found."
	}
	return strings.Join(lines, "\n")
}

func formatRiskLine(file string, iss rules.Issue) string {
	return fmt.Sprintf("[%s] %s:%d  %s  %s", iss.Severity, file, iss.Line, iss.RuleID, iss.Message)
}

func sortedIssues(issues []rules.Issue) []rules.Issue {
	out := append([]rules.Issue(nil), issues...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity < out[j].Severity
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

func changeContextSection(in PostToolUseInput) string {
	if in.SkipNote != "" {
		return in.SkipNote
	}
	if len(in.Snippets) == 0 {
		return "[no entity changes]"
	}
	var blocks []string
	for _, s := range in.Snippets {
		label := s.EntityName
		if label == "" {
			label = fmt.Sprintf("lines %d-%d", s.LineStart, s.LineEnd)
		} else {
			label = fmt.Sprintf("%s (lines %d-%d)", label, s.LineStart, s.LineEnd)
		}
		blocks = append(blocks, label+":\n"+s.Text)
	}
	return strings.Join(blocks, "\n\n")
}

func codeHealthSection(in PostToolUseInput) string {
	fh := in.FileHealth
	pj := in.ProjectHealth
	return fmt.Sprintf(
		"%s: %d lines, docs %.1f%%, max cyclomatic %d, avg cyclomatic %.1f\n"+
			"project: test share %.1f%%, docs share %.1f%%, avg cyclomatic %.1f, avg cognitive %.1f, high-complexity files %d",
		fh.RelativePath, fh.Lines, fh.DocsPercent, fh.MaxCyclomatic, fh.AvgCyclomatic,
		pj.TestSharePercent, pj.DocsSharePercent, pj.AvgCyclomatic, pj.AvgCognitive, pj.HighComplexityFileCount,
	)
}

func apiContractSection(in PostToolUseInput) string {
	if len(in.ContractChanges) == 0 {
		return "No contract changes."
	}
	var lines []string
	for _, c := range in.ContractChanges {
		switch c.Kind {
		case contract.ReducedArity:
			lines = append(lines, fmt.Sprintf("CONTRACT_REDUCED_ARITY: %s lost parameter %s", c.Symbol, c.RemovedParam))
		case contract.RemovedSym:
			lines = append(lines, fmt.Sprintf("removed symbol: %s", c.Symbol))
		case contract.Renamed:
			lines = append(lines, fmt.Sprintf("renamed: %s -> %s", c.Symbol, c.NewSymbol))
		}
	}
	return strings.Join(lines, "\n")
}

func quickTipsSection(in PostToolUseInput, caps Caps) string {
	seen := map[string]bool{}
	var tips []string
	for _, iss := range sortedIssues(in.Issues) {
		entry, ok := rules.Catalogue[iss.RuleID]
		if !ok || entry.FixHint == "" || seen[entry.FixHint] {
			continue
		}
		seen[entry.FixHint] = true
		tips = append(tips, entry.FixHint)
		if len(tips) >= caps.QuickTipsMax {
			break
		}
	}
	if len(tips) == 0 {
		return "No tips."
	}
	return strings.Join(tips, "\n")
}

// nextStepsSection maps rule IDs present in the issue set to
// the contract's deterministic next-step phrasing.
func nextStepsSection(in PostToolUseInput) string {
	var steps []string
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			steps = append(steps, s)
		}
	}
	for _, iss := range in.Issues {
		switch iss.RuleID {
		case rules.LogicUnreachable:
			add("Remove dead/unreachable code.")
		case rules.StyleLongLine:
			add("Wrap lines >120 columns.")
		case rules.LogicEmptyCatch:
			add("Tighten catch/except blocks.")
		case rules.FakeReturnConstant, rules.FakePrintOnly, rules.FakeNotImplemented:
			add("Add/Update unit tests covering this change.")
		}
	}
	if !in.FileHealth.IsTest && in.FileHealth.Lines > 0 && in.FileHealth.DocsPercent == 0 {
		add("Consider removing unused imports and adding documentation.")
	}
	if len(steps) == 0 {
		return "No further action required."
	}
	return strings.Join(steps, "\n")
}

func timingsSection(in PostToolUseInput) string {
	var lines []string
	for _, s := range in.Timings {
		lines = append(lines, fmt.Sprintf("%s  %d  %.2f  %.2f  %.2f  %.2f", s.Label, s.Count, s.P50, s.P95, s.P99, s.Mean))
	}
	return strings.Join(lines, "\n")
}

// UserPromptSnapshotInput bundles the smaller UserPromptSubmit
// sequence's raw material.
type UserPromptSnapshotInput struct {
	FileCount     int
	LanguageLine  string // pre-formatted per-language counts, e.g. "go: 42, python: 7"
	ProjectHealth health.ProjectHealth
	TopIssues     []rules.Issue // most severe issues project-wide, already capped by caller
}

// AssembleUserPromptSnapshot renders the fixed three-part sequence,
// capped at userpromptLimit (clamped [1000, 8000] by the caller).
func AssembleUserPromptSnapshot(in UserPromptSnapshotInput, userpromptLimit int) string {
	var b strings.Builder
	b.WriteString("# COMPREHENSIVE PROJECT CONTEXT\n\n")
	b.WriteString("=== PROJECT SUMMARY ===\n")
	fmt.Fprintf(&b, "%d files scanned. %s\n\n", in.FileCount, in.LanguageLine)
	b.WriteString("=== RISK/HEALTH SNAPSHOT ===\n")
	pj := in.ProjectHealth
	fmt.Fprintf(&b, "test share %.1f%%, docs share %.1f%%, avg cyclomatic %.1f, high-complexity files %d\n",
		pj.TestSharePercent, pj.DocsSharePercent, pj.AvgCyclomatic, pj.HighComplexityFileCount)
	for _, iss := range in.TopIssues {
		fmt.Fprintf(&b, "[%s] %s\n", iss.Severity, iss.RuleID)
	}
	return clipAtRuneBoundary(b.String(), userpromptLimit)
}
