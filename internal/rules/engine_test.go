package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/internal/langs"
	"github.com/hookguard/hookguard/internal/parse"
)

const pySource = `def get_user(id): return {"id": 1, "name": "Mock"}
password = "sk-live-abc123xyz789"
`

func samplePyEntities() []parse.Entity {
	return []parse.Entity{
		{
			Kind:      parse.KindFunction,
			Name:      "get_user",
			LineStart: 1,
			LineEnd:   1,
			Body:      `def get_user(id): return {"id": 1, "name": "Mock"}`,
		},
	}
}

// TestEnginesAreEquivalent asserts property P2: SinglePass and
// MultiPass must emit the identical, identically ordered issue set
// for the same input, since both dispatch to the same rule functions.
func TestEnginesAreEquivalent(t *testing.T) {
	single := NewSinglePass().Run(langs.Python, pySource, samplePyEntities())
	multi := NewMultiPass().Run(langs.Python, pySource, samplePyEntities())
	require.Equal(t, len(single), len(multi))
	assert.Equal(t, single, multi)
}

func TestEngineOrdersBySeverityThenLineThenRuleID(t *testing.T) {
	issues := NewSinglePass().Run(langs.Python, pySource, samplePyEntities())
	require.GreaterOrEqual(t, len(issues), 2)
	for i := 1; i < len(issues); i++ {
		prev, cur := issues[i-1], issues[i]
		if prev.Severity != cur.Severity {
			assert.Less(t, prev.Severity, cur.Severity)
			continue
		}
		if prev.Line != cur.Line {
			assert.Less(t, prev.Line, cur.Line)
			continue
		}
		assert.LessOrEqual(t, prev.RuleID, cur.RuleID)
	}
}

func TestEngineSkipsEntityRulesForUnknownLanguage(t *testing.T) {
	issues := NewSinglePass().Run(langs.Unknown, pySource, samplePyEntities())
	for _, iss := range issues {
		assert.NotEqual(t, FakeReturnConstant, iss.RuleID)
	}
}

func TestFormatRiskLine(t *testing.T) {
	iss := Issue{RuleID: SecCreds, Severity: Critical, Line: 12, Message: "Hardcoded credential"}
	line := FormatRiskLine("src/auth.py", iss)
	assert.Equal(t, `[Critical] src/auth.py:12  SEC_CREDS  Hardcoded credential`, line)
}
