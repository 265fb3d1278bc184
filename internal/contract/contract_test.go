package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareDetectsReducedArity(t *testing.T) {
	old := "def charge(amount, currency, idempotency_key):\n    pass\n"
	new := "def charge(amount, currency):\n    pass\n"
	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, ReducedArity, changes[0].Kind)
	assert.Equal(t, "charge", changes[0].Symbol)
	assert.Equal(t, "idempotency_key", changes[0].RemovedParam)
	assert.True(t, HasReducedArity(changes))
}

func TestCompareNoChangesWhenSignaturesMatch(t *testing.T) {
	old := "func calculateTotal(items []Item) int {\n\treturn 0\n}\n"
	new := "func calculateTotal(items []Item) int {\n\treturn 1\n}\n"
	assert.Empty(t, Compare(old, new))
}

func TestCompareDetectsRemovedSymbol(t *testing.T) {
	old := "function helper(x) {\n  return x;\n}\n"
	new := "// removed\n"
	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, RemovedSym, changes[0].Kind)
	assert.Equal(t, "helper", changes[0].Symbol)
}

func TestCompareDetectsRename(t *testing.T) {
	old := "fn compute(a, b) {\n}\n"
	new := "fn compute_total(a, b) {\n}\n"
	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, Renamed, changes[0].Kind)
	assert.Equal(t, "compute", changes[0].Symbol)
	assert.Equal(t, "compute_total", changes[0].NewSymbol)
}

func TestExtractSignaturesStripsTypeAnnotationsAndDefaults(t *testing.T) {
	sigs := ExtractSignatures("def f(x: int, y: str = \"a\"):\n    pass\n")
	require.Contains(t, sigs, "f")
	assert.Equal(t, []string{"x", "y"}, sigs["f"].Params)
}

// TestCompareOrderIsDeterministicAcrossRuns guards P1/P7: with several
// changed signatures in one file, repeated Compare calls over the same
// input must return changes in the same order every time, not just the
// same set — map iteration makes this easy to regress silently.
func TestCompareOrderIsDeterministicAcrossRuns(t *testing.T) {
	old := "def alpha(a, b):\n    pass\n\n" +
		"def beta(x, y):\n    pass\n\n" +
		"def gamma(p, q):\n    pass\n\n" +
		"def delta(m, n):\n    pass\n"
	new := "def alpha(a):\n    pass\n\n" +
		"def beta(x):\n    pass\n\n" +
		"def gamma_renamed(p, q):\n    pass\n\n"

	first := Compare(old, new)
	require.Len(t, first, 4)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Compare(old, new))
	}
}
