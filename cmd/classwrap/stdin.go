package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gnana997/classwrap/pkg/parser"
	"github.com/gnana997/classwrap/pkg/transform"
)

// stdinReport is printed by `stdin --json`.
type stdinReport struct {
	Code            string                 `json:"code"`
	Changed         bool                   `json:"changed"`
	Rewrites        []transform.Rewrite    `json:"rewrites"`
	Imports         []string               `json:"imports"`
	ExistingImports []transform.ImportDecl `json:"existing_imports"`
	ParseErrors     bool                   `json:"parse_errors"`
}

func (a *app) stdinCommand() *cobra.Command {
	var (
		rf      ruleFlags
		dialect string
		path    string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "stdin",
		Short: "Rewrite code read from stdin and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := parser.ParseDialectString(dialect)
			if d == parser.DialectUnknown {
				return fmt.Errorf("unknown dialect %q (want jsx or tsx)", dialect)
			}

			source, err := io.ReadAll(a.in)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}

			e, err := a.newEnv(cmd, &rf)
			if err != nil {
				return err
			}
			defer e.close()

			res, err := e.host().TransformDialect(cmd.Context(), d, path, source)
			if err != nil {
				return err
			}

			if !asJSON {
				_, err = a.out.Write(res.Code)
				return err
			}

			report := stdinReport{
				Code:            string(res.Code),
				Changed:         res.Changed,
				Rewrites:        res.Rewrites,
				Imports:         make([]string, len(res.Imports)),
				ExistingImports: res.ExistingImports,
				ParseErrors:     res.ParseErrors,
			}
			for i, b := range res.Imports {
				report.Imports[i] = b.Name
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&dialect, "dialect", "jsx", "source dialect: jsx or tsx")
	cmd.Flags().StringVar(&path, "path", "<stdin>", "file name used in messages")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON report instead of the code")
	return cmd
}
