package parse

import "fmt"

// skipNote wraps a bare budget-overrun reason ("size 614400 > 500000")
// in the uniform [ANALYSIS] note the assembler emits verbatim in place
// of CHANGE CONTEXT when a file is skipped (spec §4.C2/C6).
func skipNote(reason string) string {
	return fmt.Sprintf("[ANALYSIS] Skipped AST analysis due to soft budget (%s)", reason)
}

func sprintfSkip(kind string, actual, limit int64) string {
	return skipNote(fmt.Sprintf("%s %d > %d", kind, actual, limit))
}

// cyclomaticFromBranches estimates cyclomatic complexity as
// branches + 1, the common approximation used when a full CFG is not
// built.
func cyclomaticFromBranches(branches int) int {
	return branches + 1
}
