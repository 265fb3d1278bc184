// Command userpromptsubmit implements the UserPromptSubmit hook
// binary: it builds a compact, capped project snapshot at the start
// of a conversational turn and writes it as plain text (no JSON
// wrapper).
package main

import (
	"context"
	"os"

	"github.com/hookguard/hookguard/internal/assemble"
	"github.com/hookguard/hookguard/internal/hookio"
	"github.com/hookguard/hookguard/internal/logging"
	"github.com/hookguard/hookguard/internal/pipeline"
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

	if _, err := os.Stat(root); err != nil {
		if writeErr := hookio.WritePlainText(hookio.Stdout(), "Project analysis unavailable"); writeErr != nil {
			logging.Errorf(logging.CategoryHookIO, "writing stdout: %v", writeErr)
			return 1
		}
		return 0
	}

	pc := pipeline.NewContext(root)
	defer pc.Close()

	snapshot, err := pc.BuildProjectSnapshot(context.Background())
	if err != nil {
		logging.Warnf(logging.CategoryScan, "project snapshot: %v", err)
		if writeErr := hookio.WritePlainText(hookio.Stdout(), "Project analysis unavailable"); writeErr != nil {
			logging.Errorf(logging.CategoryHookIO, "writing stdout: %v", writeErr)
			return 1
		}
		return 0
	}

	in := assemble.UserPromptSnapshotInput{
		FileCount:     len(snapshot.View.Files),
		LanguageLine:  pipeline.LanguageLine(snapshot.View),
		ProjectHealth: snapshot.ProjectHealth,
		TopIssues:     snapshot.TopIssues,
	}
	text := assemble.AssembleUserPromptSnapshot(in, pc.Cfg.UserpromptContextLimit)
	if err := hookio.WritePlainText(hookio.Stdout(), text); err != nil {
		logging.Errorf(logging.CategoryHookIO, "writing stdout: %v", err)
		return 1
	}
	return 0
}
