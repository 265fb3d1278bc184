package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard/internal/parse"
)

func TestEntityTooManyParams(t *testing.T) {
	e := parse.Entity{Name: "handle", LineStart: 1, LineEnd: 1, ParamCount: 6}
	require.Len(t, EntityTooManyParams(e), 1)

	e.ParamCount = 5
	assert.Empty(t, EntityTooManyParams(e))
}

func TestEntityDeepNesting(t *testing.T) {
	e := parse.Entity{MaxNesting: 5}
	require.Len(t, EntityDeepNesting(e), 1)

	e.MaxNesting = 4
	assert.Empty(t, EntityDeepNesting(e))
}

func TestEntityHighComplexity(t *testing.T) {
	e := parse.Entity{CyclomaticEstimate: 11}
	require.Len(t, EntityHighComplexity(e), 1)

	e.CyclomaticEstimate = 10
	assert.Empty(t, EntityHighComplexity(e))
}

func TestEntityFakeReturnConstantOneLinerDictLiteral(t *testing.T) {
	// Scenario 4: a "get_user" that only ever returns canned mock data.
	e := parse.Entity{
		Name:      "get_user",
		LineStart: 1,
		LineEnd:   1,
		Body:      `def get_user(id): return {"id": 1, "name": "Mock"}`,
	}
	issues := EntityFakeReturnConstant(e)
	require.Len(t, issues, 1)
	assert.Equal(t, FakeReturnConstant, issues[0].RuleID)
}

func TestEntityFakeReturnConstantMultiLine(t *testing.T) {
	e := parse.Entity{
		Name:      "calculateTotal",
		LineStart: 1,
		LineEnd:   3,
		Body:      "func calculateTotal() int {\n\treturn 42\n}",
	}
	issues := EntityFakeReturnConstant(e)
	require.Len(t, issues, 1)
}

func TestEntityFakeReturnConstantIgnoresRealImplementation(t *testing.T) {
	e := parse.Entity{
		Name:      "calculateTotal",
		LineStart: 1,
		LineEnd:   3,
		Body:      "func calculateTotal(items []Item) int {\n\treturn sum(items)\n}",
	}
	assert.Empty(t, EntityFakeReturnConstant(e))
}

func TestEntityFakeReturnConstantIgnoresNonMatchingName(t *testing.T) {
	e := parse.Entity{
		Name:      "total",
		LineStart: 1,
		LineEnd:   1,
		Body:      `def total(): return 42`,
	}
	assert.Empty(t, EntityFakeReturnConstant(e))
}

func TestEntityFakePrintOnly(t *testing.T) {
	e := parse.Entity{
		Name:      "process",
		LineStart: 1,
		LineEnd:   3,
		Body:      "func process() {\n\tfmt.Println(\"processing\")\n}",
	}
	issues := EntityFakePrintOnly(e)
	require.Len(t, issues, 1)
	assert.Equal(t, FakePrintOnly, issues[0].RuleID)
}

func TestEntityFakePrintOnlyIgnoresMixedBody(t *testing.T) {
	e := parse.Entity{
		Name:      "process",
		LineStart: 1,
		LineEnd:   3,
		Body:      "func process() {\n\tfmt.Println(\"go\")\n\tdoWork()\n}",
	}
	assert.Empty(t, EntityFakePrintOnly(e))
}

func TestEntityUnreachableAfterReturnInSwitchCase(t *testing.T) {
	// Scenario 2: a Go switch where each case returns; the case/default
	// boundary clears the unreachable flag so no false positive fires
	// across case boundaries, but code after a real terminator within
	// the same case is still flagged.
	body := strings.Join([]string{
		"func classify(n int) string {",
		"\tswitch {",
		"\tcase n < 0:",
		"\t\treturn \"negative\"",
		"\t\tlog.Println(\"unreachable\")",
		"\tcase n == 0:",
		"\t\treturn \"zero\"",
		"\tdefault:",
		"\t\treturn \"positive\"",
		"\t}",
		"}",
	}, "\n")
	e := parse.Entity{LineStart: 1, LineEnd: 11, Body: body}
	issues := EntityUnreachable(e)
	require.Len(t, issues, 1)
	assert.Equal(t, LogicUnreachable, issues[0].RuleID)
}

func TestEntityEmptyCatchPythonPass(t *testing.T) {
	body := strings.Join([]string{
		"def risky():",
		"\ttry:",
		"\t\tdo_work()",
		"\texcept Exception:",
		"\t\tpass",
	}, "\n")
	e := parse.Entity{LineStart: 1, LineEnd: 5, Body: body}
	issues := EntityEmptyCatch(e)
	require.Len(t, issues, 1)
	assert.Equal(t, LogicEmptyCatch, issues[0].RuleID)
}

func TestEntityEmptyCatchWithHandlingIsClean(t *testing.T) {
	body := strings.Join([]string{
		"def risky():",
		"\ttry:",
		"\t\tdo_work()",
		"\texcept Exception as e:",
		"\t\tlogger.error(e)",
	}, "\n")
	e := parse.Entity{LineStart: 1, LineEnd: 5, Body: body}
	assert.Empty(t, EntityEmptyCatch(e))
}
