// Command classwrap wraps dynamic class-name attribute values of JSX files in
// a classnames call.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnana997/classwrap/pkg/util"
)

const version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitError ends the process with a status and no further message; the
// command has already reported what went wrong.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app holds the process streams and the persistent flags shared by every
// subcommand.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string
	logFormat  string
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{in: stdin, out: stdout, errOut: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "classwrap: %v\n", err)
	return 1
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "classwrap",
		Short: "Wrap dynamic className values in classnames() calls",
		Long: `classwrap rewrites JSX class-name attributes whose value is a {...}
expression into a call to the default export of the "classnames" package,
adding the import once per file.

  <div className={["a", on && "b"]} />
becomes
  import _cx from "classnames";
  <div className={_cx(["a", on && "b"])} />`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	logDefaults := util.DefaultLoggerConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "project config file (default "+defaultConfigPath+")")
	pf.StringVar(&a.logLevel, "log-level", string(logDefaults.Level), "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", string(logDefaults.Format), "log format: text or json")

	root.AddCommand(
		a.runCommand(),
		a.stdinCommand(),
		a.watchCommand(),
		a.serveCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "classwrap %s\n", version)
		},
	}
}

// logger builds the process logger and installs it as the slog default.
// Logs always go to stderr.
func (a *app) logger() *slog.Logger {
	cfg := util.DefaultLoggerConfig()
	cfg.Level = util.ParseLogLevel(a.logLevel)
	cfg.Format = util.LogFormat(a.logFormat)
	cfg.Output = a.errOut

	logger := util.NewLogger(cfg)
	util.SetDefault(logger)
	return logger
}
