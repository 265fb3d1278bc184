package hookio

import (
	"os"

	"github.com/hookguard/hookguard/internal/logging"
)

// RunGuarded invokes fn with a top-level panic handler: a release
// build must never crash with an unhandled panic (§7), so any
// recovered panic is logged as a structured error and the process
// exits 1 rather than propagating.
func RunGuarded(fn func() int) {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf(logging.CategoryHookIO, "panic recovered: %v", r)
			os.Exit(1)
		}
		os.Exit(exitCode)
	}()
	exitCode = fn()
}
