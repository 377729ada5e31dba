package main

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/gnana997/classwrap/pkg/mcp"
	"github.com/gnana997/classwrap/pkg/mcplog"
)

func (a *app) serveCommand() *cobra.Command {
	var (
		rf      ruleFlags
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start an MCP server on stdin/stdout exposing transform_code,
analyze_code and resolve_options. Project config and rule flags set the
defaults; each call may override them with its own options.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.newEnv(cmd, &rf)
			if err != nil {
				return err
			}
			defer e.close()

			callLog, err := mcplog.NewLogger(logFile)
			if err != nil {
				return err
			}
			defer callLog.Close()

			srv := mcpserver.NewServer(e.parsers, e.queries, e.options, callLog, e.logger)
			if err := srv.ServeStdio(); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&logFile, "log-file", "", "append a JSONL record of every tool call to this file")
	return cmd
}
