package rules

// Catalogue is the static rule table (R) keyed by rule_id. Fix-hint
// wording is implementer-chosen phrasing per spec.md §9's Open
// Questions note, kept at or under 120 chars.
var Catalogue = map[RuleID]CatalogueEntry{
	SecCreds: {
		DefaultSeverity: Critical,
		Category:        CategorySecurity,
		FixHint:         "Move secrets to environment variables or a secret manager.",
	},
	SecSQL: {
		DefaultSeverity: Critical,
		Category:        CategorySecurity,
		FixHint:         "Use parameterized queries instead of string concatenation.",
	},
	SecCmdInjection: {
		DefaultSeverity: Critical,
		Category:        CategorySecurity,
		FixHint:         "Avoid shell execution with unsanitized input; use argument lists.",
	},
	PathTraversal: {
		DefaultSeverity: Major,
		Category:        CategorySecurity,
		FixHint:         "Validate and canonicalize paths before file access.",
	},
	LogicUnreachable: {
		DefaultSeverity: Major,
		Category:        CategoryCorrectness,
		FixHint:         "Remove dead/unreachable code after the terminator statement.",
	},
	LogicEmptyCatch: {
		DefaultSeverity: Major,
		Category:        CategoryCorrectness,
		FixHint:         "Tighten catch/except: handle or log the error, don't swallow it.",
	},
	StyleLongLine: {
		DefaultSeverity: Minor,
		Category:        CategoryStyle,
		FixHint:         "Wrap lines longer than 120 columns.",
	},
	StyleTooManyParams: {
		DefaultSeverity: Minor,
		Category:        CategoryStyle,
		FixHint:         "Group related parameters into a struct/options object.",
	},
	StyleDeepNesting: {
		DefaultSeverity: Minor,
		Category:        CategoryStyle,
		FixHint:         "Extract nested blocks into named helper functions.",
	},
	StyleHighComplexity: {
		DefaultSeverity: Minor,
		Category:        CategoryStyle,
		FixHint:         "Split this function; cyclomatic complexity exceeds 10.",
	},
	ContractReducedArity: {
		DefaultSeverity: Critical,
		Category:        CategoryContract,
		FixHint:         "Restore the removed parameter or provide a compatible overload.",
	},
	FakeReturnConstant: {
		DefaultSeverity: Major,
		Category:        CategoryAntiCheat,
		FixHint:         "Implement real logic; a constant return does not satisfy this contract.",
	},
	FakePrintOnly: {
		DefaultSeverity: Major,
		Category:        CategoryAntiCheat,
		FixHint:         "Implement the function body; logging alone is not an implementation.",
	},
	FakeNotImplemented: {
		DefaultSeverity: Critical,
		Category:        CategoryAntiCheat,
		FixHint:         "Replace the not-implemented stub with a working implementation.",
	},
}
