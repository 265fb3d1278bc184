// Command posttooluse implements the PostToolUse hook binary: after
// an edit has been applied, it composes the deterministic, capped
// additionalContext (C6) describing the change, risks, and next
// steps, and writes it wrapped per §6's PostToolUse output shape.
package main

import (
	"context"
	"os"

	"github.com/hookguard/hookguard/internal/assemble"
	"github.com/hookguard/hookguard/internal/diffengine"
	"github.com/hookguard/hookguard/internal/health"
	"github.com/hookguard/hookguard/internal/hookio"
	"github.com/hookguard/hookguard/internal/logging"
	"github.com/hookguard/hookguard/internal/pipeline"
	"github.com/hookguard/hookguard/internal/policy"
	"github.com/hookguard/hookguard/internal/provider"
)

func main() {
	hookio.RunGuarded(run)
}

func run() int {
	event := hookio.ReadEvent(hookio.Stdin())

	root := event.Cwd
	if root == "" {
		root = "."
	}

	pc := pipeline.NewContext(root)
	defer pc.Close()

	additionalContext := buildContext(pc, root, event)
	output := policy.WrapPostToolUse(additionalContext)
	if err := hookio.WriteJSON(hookio.Stdout(), output); err != nil {
		logging.Errorf(logging.CategoryHookIO, "writing stdout: %v", err)
		return 1
	}
	return 0
}

func buildContext(pc *pipeline.Context, root string, event hookio.Event) string {
	if event.ToolInput.FilePath == "" {
		return ""
	}

	abs, rel := pipeline.ResolvePath(root, event.ToolInput.FilePath)
	newText, err := os.ReadFile(abs)
	if err != nil {
		logging.Warnf(logging.CategoryHookIO, "reading changed file %s: %v", rel, err)
		return ""
	}
	oldText := previousText(string(newText), event)

	isTest := policy.IsTestPath(rel)
	ctx := context.Background()
	analysis := pc.AnalyzeChange(ctx, rel, oldText, string(newText), isTest)

	caps := assemble.DefaultCaps()
	caps.ContextByteCap = pc.Cfg.AdditionalContextLimitChars
	caps.MaxMajor = pc.Cfg.ASTMaxMajor
	caps.MaxMinor = pc.Cfg.ASTMaxMinor
	caps.ASTTimings = pc.Cfg.ASTTimings

	// Offline provider calls never block assembly: every section the
	// contract names is deterministic and provider-independent (P8).
	if _, err := provider.NewClient(pc.ProviderConfigFor("posttool")); err != nil {
		logging.Debugf(logging.CategoryProvider, "posttool running offline: %v", err)
	}

	in := assemble.PostToolUseInput{
		File:            rel,
		UnifiedDiff:     diffengine.UnifiedDiff(oldText, string(newText)),
		Issues:          analysis.File.Issues,
		Snippets:        analysis.Snippets,
		SkipNote:        analysis.File.SkipNote,
		FileHealth:      analysis.File.Health,
		ProjectHealth:   projectHealth(pc, ctx),
		ContractChanges: analysis.Contract,
		Timings:         pc.Timers.Flush(),
	}
	return assemble.AssemblePostToolUse(in, caps)
}

// previousText recovers the pre-edit text from the tool_input's
// old_string/new_string pair when present; Write-tool events have no
// prior text to reconstruct beyond what already lived on disk, so the
// current on-disk content (post-write) serves as both old and new in
// that case, yielding an empty diff rather than a spurious one.
func previousText(newText string, event hookio.Event) string {
	if event.ToolInput.OldString == "" && event.ToolInput.NewString == "" {
		return newText
	}
	idx := indexOf(newText, event.ToolInput.NewString)
	if idx < 0 {
		return newText
	}
	return newText[:idx] + event.ToolInput.OldString + newText[idx+len(event.ToolInput.NewString):]
}

func indexOf(s, substr string) int {
	if substr == "" {
		return -1
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// projectHealth builds the project-wide aggregate for CODE HEALTH's
// second line. The scan cache (content hashes reused while a file's
// mtime and size are unchanged) makes this cheap on repeat invocations; a scan failure degrades to the
// zero-value aggregate rather than failing the hook.
func projectHealth(pc *pipeline.Context, ctx context.Context) health.ProjectHealth {
	snapshot, err := pc.BuildProjectSnapshot(ctx)
	if err != nil {
		logging.Warnf(logging.CategoryScan, "project snapshot: %v", err)
		return health.ProjectHealth{}
	}
	return snapshot.ProjectHealth
}
