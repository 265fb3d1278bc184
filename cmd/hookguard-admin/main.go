// Command hookguard-admin is a debug CLI for inspecting the hook
// core's state outside of a live hook invocation: running a scan by
// hand, clearing the project cache, and printing the merged
// configuration.
//
// Grounded on the teacher's cmd/nerd cobra root (cmd/nerd/main.go):
// one root command with subcommands registered in init(), each
// subcommand a thin wrapper over an internal package's entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard/internal/config"
	"github.com/hookguard/hookguard/internal/pipeline"
	"github.com/hookguard/hookguard/internal/watch"
)

var rootCmd = &cobra.Command{
	Use:   "hookguard-admin",
	Short: "Debug CLI for the hookguard hook core",
}

var scanWatch bool

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a project and print the resulting file/language counts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the project scan cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [path]",
	Short: "Delete the project's .claude_project_cache.json",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the merged configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the merged configuration as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigShow,
}

func init() {
	scanCmd.Flags().BoolVar(&scanWatch, "watch", false, "re-scan and reprint on file changes until interrupted (debug only)")
	cacheCmd.AddCommand(cacheClearCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(scanCmd, cacheCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func runScan(cmd *cobra.Command, args []string) error {
	root := rootArg(args)
	pc := pipeline.NewContext(root)
	defer pc.Close()

	printSnapshot := func() error {
		snapshot, err := pc.BuildProjectSnapshot(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d files scanned (%s)\n", len(snapshot.View.Files), pipeline.LanguageLine(snapshot.View))
		fmt.Fprintf(cmd.OutOrStdout(), "test share %.1f%%, docs share %.1f%%, avg cyclomatic %.1f\n",
			snapshot.ProjectHealth.TestSharePercent, snapshot.ProjectHealth.DocsSharePercent, snapshot.ProjectHealth.AvgCyclomatic)
		return nil
	}

	if err := printSnapshot(); err != nil {
		return err
	}
	if !scanWatch {
		return nil
	}
	return runScanWatch(cmd, pc, root, printSnapshot)
}

// runScanWatch re-scans and reprints whenever the project tree
// changes, until interrupted. It never runs on the hook hot path — the
// hook binaries rely on the scan cache's own mtime/size comparison to
// pick up changes on the next invocation, with no background watcher
// of their own.
func runScanWatch(cmd *cobra.Command, pc *pipeline.Context, root string, printSnapshot func() error) error {
	ignore := pc.Cfg.ShouldIgnore(root)
	w, err := watch.New(root, ignore)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(cmd.OutOrStdout(), "watching for changes, press ctrl-c to stop")
	return w.Run(ctx, func() {
		if err := printSnapshot(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	})
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	root := rootArg(args)
	path := filepath.Join(root, ".claude_project_cache.json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	root := rootArg(args)
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
