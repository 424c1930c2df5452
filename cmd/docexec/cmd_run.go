package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/docexec/exec"
	"github.com/jonwraymond/docexec/report"
	"github.com/jonwraymond/docexec/suite"
)

type runFlags struct {
	format    string
	keepGoing bool
	prefix    string
	timeout   time.Duration
}

func newRunCmd(g *globalFlags) *cobra.Command {
	rf := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Run documentation files and report the results",
		Long: "Runs every file in order, each with a fresh namespace, and prints a report.\n" +
			"Exits with status 1 when any test fails or any block cannot run.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, g, rf, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&rf.format, "format", "f", string(report.FormatTable), "report format: table, markdown or json")
	f.BoolVarP(&rf.keepGoing, "keep-going", "k", false, "continue a document after a failing region")
	f.StringVar(&rf.prefix, "prefix", "", "name prefix that marks test functions (default test_)")
	f.DurationVar(&rf.timeout, "timeout", 0, "limit for each block and test (default none)")
	return cmd
}

func runRun(cmd *cobra.Command, g *globalFlags, rf *runFlags, paths []string) error {
	format, err := report.ParseFormat(rf.format)
	if err != nil {
		return err
	}
	opts, err := g.loadOptions(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("keep-going") {
		opts.KeepGoing = rf.keepGoing
	}
	if rf.prefix != "" {
		opts.TestPrefix = rf.prefix
	}
	if rf.timeout > 0 {
		opts.DefaultTimeout = rf.timeout
	}

	executor, err := exec.New(opts)
	if err != nil {
		return err
	}

	results, runErr := executor.RunFiles(cmd.Context(), paths...)
	if err := report.Write(cmd.OutOrStdout(), results, format); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if runErr != nil && !onlyRegionFailures(runErr) {
		return runErr
	}
	if !results.OK() {
		return errFailed
	}
	return nil
}

// onlyRegionFailures reports whether err only joins failures the report
// already shows.
func onlyRegionFailures(err error) bool {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		var regionErr *suite.RegionError
		return errors.As(err, &regionErr)
	}
	for _, e := range joined.Unwrap() {
		if !onlyRegionFailures(e) {
			return false
		}
	}
	return true
}
