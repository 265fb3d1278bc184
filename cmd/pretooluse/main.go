// Command pretooluse implements the PreToolUse hook binary: it reads
// one proposed edit from stdin, evaluates the five admission rules
// (C7), and writes the allow/ask/deny verdict as a single JSON object.
package main

import (
	"context"
	"os"
	"strings"

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

	result := evaluate(pc, root, event)
	if err := hookio.WriteJSON(hookio.Stdout(), result.ToOutput()); err != nil {
		logging.Errorf(logging.CategoryHookIO, "writing stdout: %v", err)
		return 1
	}
	return 0
}

func evaluate(pc *pipeline.Context, root string, event hookio.Event) policy.Result {
	if event.ToolInput.FilePath == "" {
		return policy.Result{Decision: policy.Allow}
	}

	abs, rel := pipeline.ResolvePath(root, event.ToolInput.FilePath)

	oldText := ""
	if data, err := os.ReadFile(abs); err == nil {
		oldText = string(data)
	}
	newText := proposedNewText(oldText, event.ToolInput)

	isTest := policy.IsTestPath(rel)
	analysis := pc.AnalyzeChange(context.Background(), rel, oldText, newText, isTest)

	_, offlineErr := provider.NewClient(pc.ProviderConfigFor("pretool"))
	offline := offlineErr != nil

	return policy.Evaluate(policy.Input{
		Offline:         offline,
		Sensitivity:     pc.Cfg.Sensitivity,
		IsTestPath:      isTest,
		Issues:          analysis.File.Issues,
		ContractChanges: analysis.Contract,
		OldText:         oldText,
		NewText:         newText,
	})
}

// proposedNewText reconstructs the tool's intended result: a Write
// tool supplies the full content directly, an Edit tool supplies an
// old_string/new_string pair applied against the file's current text.
func proposedNewText(oldText string, in hookio.ToolInput) string {
	if in.Content != "" {
		return in.Content
	}
	if in.OldString != "" || in.NewString != "" {
		return strings.Replace(oldText, in.OldString, in.NewString, 1)
	}
	return oldText
}
