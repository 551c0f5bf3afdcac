package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"digital.vasic.labcheck/pkg/bank"
	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/metrics"
	"digital.vasic.labcheck/pkg/remote"
	"digital.vasic.labcheck/pkg/report"
	"digital.vasic.labcheck/pkg/runner"
)

type gradeOptions struct {
	targetFlags
	hosts  []string
	id     string
	format string
}

func newGradeCmd(a *app) *cobra.Command {
	opts := &gradeOptions{}
	cmd := &cobra.Command{
		Use:   "grade FILE|DIR --hosts H1,H2,...",
		Short: "Grade several learners' machines concurrently",
		Long: "Run every selected challenge against each host in --hosts. Hosts are\n" +
			"graded concurrently (run.concurrency at a time); the checks of one run\n" +
			"always execute in order. Prints a summary of all runs.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.grade(cmd.Context(), args[0], opts)
		},
	}
	opts.register(cmd)
	fl := cmd.Flags()
	fl.StringSliceVar(&opts.hosts, "hosts", nil, "comma-separated practice machine addresses")
	fl.StringVar(&opts.id, "challenge", "", "grade only the challenge with this ID")
	fl.StringVarP(&opts.format, "format", "f", report.FormatText,
		"summary format: "+strings.Join(report.Formats(), ", "))
	fl.Int("concurrency", 4, "hosts graded at the same time")
	_ = cmd.MarkFlagRequired("hosts")
	return cmd
}

func (a *app) grade(ctx context.Context, path string, opts *gradeOptions) error {
	reporter, err := report.ForFormat(opts.format)
	if err != nil {
		return err
	}
	b, err := a.loadBank(path)
	if err != nil {
		var serr *bank.StructuralError
		if errors.As(err, &serr) {
			printStructural(a.stdout, serr)
			return &verdictError{code: exitStructural, err: err}
		}
		return err
	}
	defs, err := selectChallenges(b, opts.id)
	if err != nil {
		return err
	}
	if !a.cfg.Run.Setup {
		defs = withoutSetup(defs)
	}

	var attempts []runner.Attempt
	for _, host := range opts.hosts {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		for _, def := range defs {
			attempts = append(attempts, runner.Attempt{
				Name:       host,
				Definition: def,
				Target:     a.target(host, opts.targetFlags),
			})
		}
	}
	if len(attempts) == 0 {
		return fmt.Errorf("no hosts to grade")
	}

	logger := a.runLogger(opts.targetFlags)
	counters := metrics.NewMemoryMetrics()
	engine := a.engine(
		a.sshChannel(logger), logger,
		runner.WithMetrics(counters),
		runner.WithCollector(collector(a.stderr, opts.progress)),
	)

	graded := engine.Grade(ctx, attempts, a.cfg.Run.Concurrency)

	code := exitPassed
	var reports []*challenge.Report
	for _, g := range graded {
		if g.Report == nil {
			code = worst(code, exitCode(g.Err))
			fmt.Fprintf(a.stderr, "%s %s: %v\n", colorError("ERROR"), g.Attempt.Name, g.Err)
			continue
		}
		reports = append(reports, g.Report)
		code = worst(code, verdict(g.Report.Status, g.Err))
	}

	summary, err := reporter.GenerateMasterSummary(reports)
	if err != nil {
		return err
	}
	if _, err := a.stdout.Write(summary); err != nil {
		return err
	}
	if opts.format == report.FormatText {
		printChannelErrors(a, counters)
	}

	if code != exitPassed {
		return &verdictError{code: code}
	}
	return nil
}

// printChannelErrors lists SSH failures by class, if any.
func printChannelErrors(a *app, m *metrics.MemoryMetrics) {
	kinds := []remote.ErrorKind{
		remote.KindAuthentication, remote.KindConnection,
		remote.KindTimeout, remote.KindUnexpected,
	}
	var parts []string
	for _, k := range kinds {
		if n := m.ChannelErrors(k.String()); n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, n))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(a.stdout, "Channel errors: %s\n", strings.Join(parts, " "))
	}
}
