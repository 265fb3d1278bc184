package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hookguard/hookguard/internal/contract"
	"github.com/hookguard/hookguard/internal/rules"
)

func TestEvaluateOfflineCriticalSecurityDenies(t *testing.T) {
	in := Input{
		Offline: true,
		Issues:  []rules.Issue{{RuleID: rules.SecCreds, Severity: rules.Critical, Category: rules.CategorySecurity}},
		OldText: "a", NewText: "b",
	}
	res := Evaluate(in)
	assert.Equal(t, Deny, res.Decision)
}

func TestEvaluateContractReductionHighSensitivityDenies(t *testing.T) {
	in := Input{
		Sensitivity:     "high",
		ContractChanges: []contract.Change{{Kind: contract.ReducedArity, Symbol: "charge", RemovedParam: "idempotency_key"}},
		OldText:         "def charge(amount, currency, idempotency_key): pass",
		NewText:         "def charge(amount, currency): pass",
	}
	res := Evaluate(in)
	assert.Equal(t, Deny, res.Decision)
	assert.Contains(t, res.Reason, "CONTRACT_REDUCED_ARITY")
	assert.Contains(t, res.Reason, "idempotency_key")
}

func TestEvaluateContractReductionMediumSensitivityNeedsSecurityRisk(t *testing.T) {
	in := Input{
		Sensitivity:     "medium",
		ContractChanges: []contract.Change{{Kind: contract.ReducedArity, Symbol: "f", RemovedParam: "x"}},
		OldText:         "a", NewText: "b",
	}
	assert.Equal(t, Allow, Evaluate(in).Decision)

	in.Issues = []rules.Issue{{RuleID: rules.SecSQL, Category: rules.CategorySecurity}}
	assert.Equal(t, Deny, Evaluate(in).Decision)
}

func TestEvaluateSemanticallyEmptyChangeAsks(t *testing.T) {
	in := Input{
		OldText: "x = 1  # note",
		NewText: "x=1",
	}
	res := Evaluate(in)
	assert.Equal(t, Ask, res.Decision)
	assert.Equal(t, "empty change", res.Reason)
}

func TestEvaluateFakeRuleInNonTestPathDenies(t *testing.T) {
	in := Input{
		IsTestPath: false,
		Issues:     []rules.Issue{{RuleID: rules.FakeReturnConstant, Message: "constant return"}},
		OldText:    "a", NewText: "b",
	}
	res := Evaluate(in)
	assert.Equal(t, Deny, res.Decision)
	assert.Contains(t, res.Reason, "FAKE_RETURN_CONSTANT")
}

func TestEvaluateFakeRuleInTestPathAsksUnlessHighSensitivity(t *testing.T) {
	in := Input{
		IsTestPath: true,
		Issues:     []rules.Issue{{RuleID: rules.FakePrintOnly}},
		OldText:    "a", NewText: "b",
	}
	assert.Equal(t, Ask, Evaluate(in).Decision)

	in.Sensitivity = "high"
	assert.Equal(t, Deny, Evaluate(in).Decision)
}

func TestEvaluateDefaultsToAllow(t *testing.T) {
	in := Input{OldText: "a", NewText: "b"}
	assert.Equal(t, Allow, Evaluate(in).Decision)
}

func TestIsTestPathDetectsConventions(t *testing.T) {
	assert.True(t, IsTestPath("src/tests/foo.py"))
	assert.True(t, IsTestPath("pkg/foo_test.go"))
	assert.True(t, IsTestPath("examples/demo.py"))
	assert.False(t, IsTestPath("src/foo.py"))
}

func TestWrapPostToolUseDefaultsToOK(t *testing.T) {
	out := WrapPostToolUse("")
	assert.Equal(t, "OK", out.HookSpecificOutput.AdditionalContext)
}

func TestToOutputClipsLongReason(t *testing.T) {
	long := ""
	for i := 0; i < 400; i++ {
		long += "a"
	}
	res := Result{Decision: Deny, Reason: long}
	out := res.ToOutput()
	assert.LessOrEqual(t, len(out.HookSpecificOutput.PermissionDecisionReason), maxReasonLen)
}
