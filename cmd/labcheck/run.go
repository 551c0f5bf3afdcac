package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"digital.vasic.labcheck/pkg/bank"
	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/infra"
	"digital.vasic.labcheck/pkg/logging"
	"digital.vasic.labcheck/pkg/remote"
	"digital.vasic.labcheck/pkg/report"
	"digital.vasic.labcheck/pkg/runner"
)

type runOptions struct {
	targetFlags
	host   string
	id     string
	format string
	dryRun bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run FILE|DIR",
		Short: "Grade a practice machine against one or more challenges",
		Long: "Load the challenges in FILE (a definition or a bank file) or DIR, then run\n" +
			"their checks against --host over SSH. The exit status is 0 when every run\n" +
			"passed, 1 when a check failed, 2 for an invalid definition, 3 for an\n" +
			"insecure private key and 4 when a run was aborted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args[0], opts)
		},
	}
	opts.register(cmd)
	fl := cmd.Flags()
	fl.StringVarP(&opts.host, "host", "H", "", "address of the practice machine")
	fl.StringVar(&opts.id, "challenge", "", "run only the challenge with this ID")
	fl.StringVarP(&opts.format, "format", "f", report.FormatText,
		"report format: "+strings.Join(report.Formats(), ", "))
	fl.BoolVar(&opts.dryRun, "dry-run", false, "print the remote commands instead of connecting")
	return cmd
}

func (a *app) run(ctx context.Context, path string, opts *runOptions) error {
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

	if opts.dryRun {
		return a.dryRun(ctx, defs, opts)
	}

	logger := a.runLogger(opts.targetFlags)
	engine := a.engine(
		a.sshChannel(logger), logger,
		runner.WithCollector(collector(a.stderr, opts.progress)),
	)
	pipeline := runner.NewPipeline(engine, infra.StaticProvider{
		Target: a.target(opts.host, opts.targetFlags),
	})
	pipeline.AddPostHook(func(_ context.Context, r *challenge.Report) error {
		fp, err := report.Fingerprint(r)
		if err != nil {
			return err
		}
		logger.Info("challenge graded",
			logging.StringField("challenge_id", string(r.ChallengeID)),
			logging.StringField("status", r.Status),
			logging.StringField("fingerprint", fp),
		)
		return nil
	})

	reports, errs := pipeline.ExecuteSequence(ctx, defs)
	code := exitPassed
	var done []*challenge.Report
	for i, r := range reports {
		if r == nil {
			code = worst(code, exitCode(errs[i]))
			fmt.Fprintf(a.stderr, "%s %s: %v\n", colorError("ERROR"), defs[i].ID, errs[i])
			continue
		}
		done = append(done, r)
		if err := reporter.WriteReport(a.stdout, r); err != nil {
			return err
		}
		code = worst(code, verdict(r.Status, errs[i]))
	}

	if len(done) > 1 {
		summary, err := reporter.GenerateMasterSummary(done)
		if err != nil {
			return err
		}
		if _, err := a.stdout.Write(summary); err != nil {
			return err
		}
	}

	if code != exitPassed {
		return &verdictError{code: code}
	}
	return nil
}

// dryRun grades each challenge against a scripted executor in
// continue mode and prints every command a real run would send.
func (a *app) dryRun(ctx context.Context, defs []*challenge.Definition, opts *runOptions) error {
	target := a.target(opts.host, opts.targetFlags)
	if target.Host == "" {
		target.Host = "dry-run.invalid"
	}
	if target.Username == "" {
		target.Username = "learner"
	}
	if target.PrivateKeyPath == "" {
		target.PrivateKeyPath = "(none)"
	}

	for _, def := range defs {
		fake := remote.NewFakeExecutor().Fallback(remote.Exit(0, "0"))
		engine := a.engine(fake, a.logger,
			runner.WithContinueOnFailure(true),
			runner.WithKeyGuard(func(string) error { return nil }),
		)
		// Verdicts against scripted output carry no meaning.
		_, _ = engine.Run(ctx, def, target)
		printCommands(a.stdout, def, target, fake.Calls())
	}
	return nil
}

func printCommands(w io.Writer, def *challenge.Definition, target remote.Target, calls []string) {
	fmt.Fprintf(w, "%s %s (%s) on %s\n", colorInfo("#"), def.Name, def.ID, target)
	seen := make(map[string]bool, len(calls))
	for _, c := range calls {
		if seen[c] {
			continue
		}
		seen[c] = true
		fmt.Fprintln(w, c)
	}
}
