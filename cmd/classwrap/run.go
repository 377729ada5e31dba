package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gnana997/classwrap/pkg/workspace"
)

func (a *app) runCommand() *cobra.Command {
	var (
		rf      ruleFlags
		check   bool
		outDir  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Rewrite a directory tree or a single file",
		Long: `Rewrite every selected file under path (default ".") in place.

With --check nothing is written; the command lists the files that would
change and exits with status 1 if there are any. With --out-dir every
selected file is written, rewritten or not, to the same relative path under
the output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			opts := workspace.RunOptions{Mode: workspace.ModeWrite, OutDir: outDir, Workers: workers}
			switch {
			case check:
				opts.Mode = workspace.ModeCheck
			case outDir != "":
				opts.Mode = workspace.ModeOutDir
			}

			e, err := a.newEnv(cmd, &rf)
			if err != nil {
				return err
			}
			defer e.close()
			opts.Scan = e.project.scanOptions()

			stats, err := e.runner().Run(cmd.Context(), root, opts, nil)
			if stats != nil {
				printRunStats(a.out, a.errOut, stats)
			}
			if err != nil {
				return err
			}

			if stats.FilesFailed > 0 || (check && stats.FilesChanged > 0) {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().BoolVar(&check, "check", false, "report files that would change without writing")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write results under this directory instead of in place")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of parallel workers (default: CPU-based)")
	cmd.MarkFlagsMutuallyExclusive("check", "out-dir")
	return cmd
}

// printRunStats writes the changed files and a summary to out and per-file
// errors to errOut.
func printRunStats(out, errOut io.Writer, stats *workspace.RunStats) {
	verb := "rewrote"
	switch stats.Mode {
	case workspace.ModeCheck:
		verb = "would change"
	case workspace.ModeOutDir:
		verb = "changed"
	}
	for _, rel := range stats.Changed {
		fmt.Fprintf(out, "%s: %s\n", verb, rel)
	}

	for _, fe := range stats.Errors {
		fmt.Fprintf(errOut, "error: %s: %v\n", fe.FilePath, fe.Error)
	}

	fmt.Fprintf(out, "%d %s scanned, %d changed, %d %s, %d failed",
		stats.FilesDiscovered, plural(stats.FilesDiscovered, "file", "files"),
		stats.FilesChanged,
		stats.Rewrites, plural(stats.Rewrites, "rewrite", "rewrites"),
		stats.FilesFailed)
	if stats.FilesWithParseErrors > 0 {
		fmt.Fprintf(out, ", %d with syntax errors", stats.FilesWithParseErrors)
	}
	if stats.Cancelled {
		fmt.Fprint(out, " (cancelled)")
	}
	fmt.Fprintln(out)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
