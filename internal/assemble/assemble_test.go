package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/internal/contract"
	"github.com/hookguard/hookguard/internal/diffengine"
	"github.com/hookguard/hookguard/internal/health"
	"github.com/hookguard/hookguard/internal/rules"
)

func TestAssemblePostToolUseSectionOrder(t *testing.T) {
	in := PostToolUseInput{
		File:        "src/service.py",
		UnifiedDiff: "@@ -1,1 +1,1 @@\n-old\n+new\n",
		Issues: []rules.Issue{
			{RuleID: rules.SecCreds, Severity: rules.Critical, Category: rules.CategorySecurity, Line: 3, Message: "Hardcoded credential"},
		},
	}
	out := AssemblePostToolUse(in, DefaultCaps())

	order := []string{
		"=== CHANGE SUMMARY ===",
		"=== RISK REPORT ===",
		"=== CHANGE CONTEXT ===",
		"=== CODE HEALTH ===",
		"=== API CONTRACT ===",
		"=== QUICK TIPS ===",
		"=== NEXT STEPS ===",
	}
	lastIdx := -1
	for _, name := range order {
		idx := strings.Index(out, name)
		require.Greater(t, idx, lastIdx, "%s out of order", name)
		lastIdx = idx
	}
	assert.NotContains(t, out, "=== TIMINGS")
}

func TestAssemblePostToolUseOmitsTimingsWhenDisabled(t *testing.T) {
	in := PostToolUseInput{}
	caps := DefaultCaps()
	caps.ASTTimings = false
	out := AssemblePostToolUse(in, caps)
	assert.NotContains(t, out, "TIMINGS")
}

func TestRiskReportFormatsLineExactly(t *testing.T) {
	in := PostToolUseInput{
		File: "src/auth.py",
		Issues: []rules.Issue{
			{RuleID: rules.SecCreds, Severity: rules.Critical, Line: 12, Message: "Hardcoded credential"},
		},
	}
	out := AssemblePostToolUse(in, DefaultCaps())
	assert.Contains(t, out, "[Critical] src/auth.py:12  SEC_CREDS  Hardcoded credential")
}

func TestChangeSummaryNoTextualChange(t *testing.T) {
	out := AssemblePostToolUse(PostToolUseInput{}, DefaultCaps())
	assert.Contains(t, out, "[no textual change]")
}

func TestChangeContextUsesSkipNoteOverSnippets(t *testing.T) {
	in := PostToolUseInput{
		SkipNote: "[ANALYSIS] Skipped AST analysis due to soft budget (size 614400 > 500000)",
		Snippets: []diffengine.Snippet{{EntityName: "x", Text: "body"}},
	}
	out := AssemblePostToolUse(in, DefaultCaps())
	assert.Contains(t, out, "Skipped AST analysis due to soft budget")
	assert.NotContains(t, out, "body")
}

func TestAPIContractReportsReducedArity(t *testing.T) {
	in := PostToolUseInput{
		ContractChanges: []contract.Change{{Kind: contract.ReducedArity, Symbol: "charge", RemovedParam: "idempotency_key"}},
	}
	out := AssemblePostToolUse(in, DefaultCaps())
	assert.Contains(t, out, "CONTRACT_REDUCED_ARITY: charge lost parameter idempotency_key")
}

func TestQuickTipsDeduplicatesAndCaps(t *testing.T) {
	in := PostToolUseInput{
		Issues: []rules.Issue{
			{RuleID: rules.SecCreds, Severity: rules.Critical},
			{RuleID: rules.SecCreds, Severity: rules.Major, Line: 2},
		},
	}
	out := AssemblePostToolUse(in, DefaultCaps())
	section := sectionBody(out, "QUICK TIPS")
	assert.Equal(t, 1, strings.Count(section, "Move secrets"))
}

func TestContextByteCapEnforced(t *testing.T) {
	in := PostToolUseInput{
		File:        "f.py",
		UnifiedDiff: strings.Repeat("+line\n", 1000),
	}
	caps := DefaultCaps()
	caps.ContextByteCap = 200
	out := AssemblePostToolUse(in, caps)
	assert.LessOrEqual(t, len(out), 200)
}

func TestAssembleUserPromptSnapshotFixedSequence(t *testing.T) {
	in := UserPromptSnapshotInput{
		FileCount:     10,
		LanguageLine:  "go: 10",
		ProjectHealth: health.ProjectHealth{TestSharePercent: 20},
	}
	out := AssembleUserPromptSnapshot(in, 4000)
	assert.True(t, strings.HasPrefix(out, "# COMPREHENSIVE PROJECT CONTEXT"))
	assert.Contains(t, out, "=== PROJECT SUMMARY ===")
	assert.Contains(t, out, "=== RISK/HEALTH SNAPSHOT ===")
}

func TestAssembleUserPromptSnapshotRespectsLimit(t *testing.T) {
	in := UserPromptSnapshotInput{FileCount: 1, LanguageLine: strings.Repeat("x", 5000)}
	out := AssembleUserPromptSnapshot(in, 1000)
	assert.LessOrEqual(t, len(out), 1000)
}

func sectionBody(out, name string) string {
	start := strings.Index(out, "=== "+name+" ===")
	if start == -1 {
		return ""
	}
	rest := out[start+len("=== "+name+" ===\n"):]
	if end := strings.Index(rest, "=== "); end != -1 {
		return rest[:end]
	}
	return rest
}
