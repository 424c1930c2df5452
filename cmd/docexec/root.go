package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/config"
	"github.com/jonwraymond/docexec/exec"
)

// version is set at build time via -ldflags.
var version = "dev"

// errFailed reports that documents ran but something failed. The report
// already says what, so main prints nothing more.
var errFailed = errors.New("documentation tests failed")

type globalFlags struct {
	config  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "docexec",
		Short: "Run the examples in your documentation",
		Long: "docexec executes the code blocks and doctest examples of Markdown and\n" +
			"reStructuredText documents, sharing one namespace per document, and\n" +
			"invokes every test_ function a block defines.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&g.config, "config", "c", "", "project file (default ./"+config.DefaultFile+" when present)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log execution details to stderr")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newVersionCmd())
	root.Version = version
	return root
}

// newLogger returns the code.Logger for the command, or nil when quiet.
func (g *globalFlags) newLogger(w io.Writer) code.Logger {
	if !g.verbose {
		return nil
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return code.SlogLogger{L: l.With("component", "docexec")}
}

// loadOptions reads the project file and turns it into exec options.
func (g *globalFlags) loadOptions(stderr io.Writer) (exec.Options, error) {
	f, err := config.LoadOptional(g.config)
	if err != nil {
		return exec.Options{}, err
	}
	opts := exec.FromConfig(f)
	opts.Logger = g.newLogger(stderr)
	if opts.Logger != nil && f.Path != "" {
		opts.Logger.Logf("loaded %s", f.Path)
	}
	return opts, nil
}
