package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnana997/classwrap/pkg/workspace"
)

func (a *app) watchCommand() *cobra.Command {
	var (
		rf         ruleFlags
		outDir     string
		debounceMs int
		initial    bool
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Rewrite files as they change",
		Long: `Watch dir (default ".") and rewrite each selected file when it is
saved. Files are rewritten in place unless --out-dir is given. Runs until
interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			e, err := a.newEnv(cmd, &rf)
			if err != nil {
				return err
			}
			defer e.close()

			run := workspace.RunOptions{Scan: e.project.scanOptions(), Mode: workspace.ModeWrite, OutDir: outDir}
			if outDir != "" {
				run.Mode = workspace.ModeOutDir
			}
			runner := e.runner()

			if initial {
				stats, err := runner.Run(cmd.Context(), root, run, nil)
				if stats != nil {
					printRunStats(a.out, a.errOut, stats)
				}
				if err != nil {
					return err
				}
			}

			opts := workspace.DefaultWatchOptions()
			if debounceMs > 0 {
				opts.DebounceMs = debounceMs
			}
			opts.OnFile = func(o workspace.FileOutcome, err error) {
				switch {
				case err != nil:
					fmt.Fprintf(a.errOut, "error: %s: %v\n", o.Path, err)
				case o.Changed:
					fmt.Fprintf(a.out, "rewrote: %s (%d %s)\n", o.Path, o.Rewrites, plural(o.Rewrites, "rewrite", "rewrites"))
				}
			}

			w, err := workspace.NewWatcher(runner, root, run, opts, e.logger)
			if err != nil {
				return err
			}
			if err := w.Start(cmd.Context()); err != nil {
				return err
			}
			defer w.Stop()

			fmt.Fprintf(a.errOut, "watching %s (ctrl-c to stop)\n", root)
			<-cmd.Context().Done()
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write results under this directory instead of in place")
	cmd.Flags().IntVar(&debounceMs, "debounce", 0, "milliseconds to wait after the last change to a file")
	cmd.Flags().BoolVar(&initial, "initial", false, "process every selected file once before watching")
	return cmd
}
