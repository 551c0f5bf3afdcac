package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"digital.vasic.labcheck/pkg/bank"
	"digital.vasic.labcheck/pkg/challenge"
	"digital.vasic.labcheck/pkg/logging"
	"digital.vasic.labcheck/pkg/monitor"
	"digital.vasic.labcheck/pkg/remote"
	"digital.vasic.labcheck/pkg/runner"
)

// targetFlags are the connection flags shared by run and grade.
type targetFlags struct {
	user     string
	key      string
	progress bool
}

func (f *targetFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.user, "user", "u", "", "SSH username on the practice machine")
	fl.StringVarP(&f.key, "key", "i", "", "path to the SSH private key (must not be group or world accessible)")
	fl.Int("port", remote.DefaultPort, "SSH port")
	fl.Duration("timeout", remote.DefaultTimeout, "connect and command timeout")
	fl.Float64("sessions-per-second", 0, "limit how often SSH sessions are opened (0 disables)")
	fl.Bool("continue", false, "run every check even after one fails (non-gating diagnostics)")
	fl.Duration("command-timeout", 0, "per-command timeout overriding --timeout")
	fl.Bool("setup", true, "run the challenge's setup steps before validation")
	fl.BoolVar(&f.progress, "progress", false, "print each step to stderr as it finishes")
}

func (a *app) target(host string, f targetFlags) remote.Target {
	return remote.Target{
		Host:           host,
		Username:       f.user,
		PrivateKeyPath: f.key,
		Port:           a.cfg.SSH.Port,
		Timeout:        a.cfg.SSH.Timeout,
	}
}

// runLogger masks the key path in every log line of a run.
func (a *app) runLogger(f targetFlags) logging.Logger {
	return logging.NewRedactingLogger(a.logger, f.key)
}

func (a *app) sshChannel(logger logging.Logger) *remote.SSHChannel {
	return remote.NewSSHChannel(
		remote.WithChannelLogger(logger),
		remote.WithSessionRate(a.cfg.SessionLimiter()),
		remote.WithDefaultTimeout(a.cfg.SSH.Timeout),
	)
}

func (a *app) engine(
	exec remote.Executor,
	logger logging.Logger,
	opts ...runner.EngineOption,
) *runner.Engine {
	base := []runner.EngineOption{
		runner.WithLogger(logger),
		runner.WithContinueOnFailure(a.cfg.Run.ContinueOnFailure),
		runner.WithCommandTimeout(a.cfg.Run.CommandTimeout),
	}
	return runner.NewEngine(a.registry, exec, append(base, opts...)...)
}

// collector returns an event collector, printing step progress
// to w when enabled.
func collector(w io.Writer, enabled bool) *monitor.EventCollector {
	c := monitor.NewEventCollector()
	if !enabled {
		return c
	}
	c.OnEvent(func(ev monitor.RunEvent) {
		switch ev.Type {
		case monitor.EventRunStarted:
			fmt.Fprintf(w, "%s %s on %s\n", colorInfo("==>"), ev.ChallengeID, ev.Target)
		case monitor.EventRunFinished:
			fmt.Fprintf(w, "%s %s %s in %v\n", colorInfo("<=="), ev.ChallengeID, ev.Status, ev.Duration)
		default:
			fmt.Fprintf(w, "    %-7s %s\n", ev.Status, ev.Step)
		}
	})
	return c
}

// loadBank loads a definition file, a bank file or a directory
// of them.
func (a *app) loadBank(path string) (*bank.Bank, error) {
	b := bank.New(a.registry)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		err = b.LoadDir(path)
	} else {
		err = b.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// selectChallenges returns the definitions to run: the one named
// by id, or every loaded definition.
func selectChallenges(b *bank.Bank, id string) ([]*challenge.Definition, error) {
	if id != "" {
		def, ok := b.Get(challenge.ID(id))
		if !ok {
			return nil, fmt.Errorf("challenge %q not found in %v", id, b.Sources())
		}
		return []*challenge.Definition{def}, nil
	}
	defs := b.All()
	if len(defs) == 0 {
		return nil, fmt.Errorf("no challenges found in %v", b.Sources())
	}
	return defs, nil
}

// withoutSetup returns copies of defs with their setup steps
// removed.
func withoutSetup(defs []*challenge.Definition) []*challenge.Definition {
	out := make([]*challenge.Definition, len(defs))
	for i, def := range defs {
		c := *def
		c.Setup = nil
		out[i] = &c
	}
	return out
}

// printStructural lists every violation of a rejected file.
func printStructural(w io.Writer, err *bank.StructuralError) {
	fmt.Fprintf(w, "%s %s\n", colorError("INVALID"), err.Source)
	for _, reason := range err.Reasons() {
		fmt.Fprintf(w, "  - %s\n", reason)
	}
}
