package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"digital.vasic.labcheck/pkg/config"
	"digital.vasic.labcheck/pkg/logging"
	"digital.vasic.labcheck/pkg/registry"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

// flagKeys maps config keys to the flag that overrides them on
// commands that define it.
var flagKeys = map[string]string{
	"ssh.port":                "port",
	"ssh.timeout":             "timeout",
	"ssh.sessions_per_second": "sessions-per-second",
	"run.continue_on_failure": "continue",
	"run.command_timeout":     "command-timeout",
	"run.setup":               "setup",
	"run.concurrency":         "concurrency",
	"log.level":               "log-level",
	"log.format":              "log-format",
}

// app holds what every subcommand shares once flags and config
// are resolved.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	v       *viper.Viper
	cfgFile string
	envFile string
	verbose bool
	noColor bool

	cfg      *config.Config
	logger   logging.Logger
	registry *registry.Registry
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdout:   stdout,
		stderr:   stderr,
		v:        config.New(),
		registry: registry.Builtin(),
		logger:   logging.NullLogger{},
	}

	root := &cobra.Command{
		Use:   "labcheck",
		Short: "Grade hands-on Linux practice machines against challenge definitions",
		Long: "labcheck validates challenge definition files and grades a learner's\n" +
			"machine by running read-only checks over SSH. A run stops at the\n" +
			"first failing check unless --continue is given.",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.logger.Close()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./labcheck.yaml or $HOME/.config/labcheck/labcheck.yaml)")
	pf.StringVar(&a.envFile, "env-file", "", "load LABCHECK_ variables from a .env file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	pf.BoolVar(&a.noColor, "no-color", false, "disable coloured output")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")

	root.AddCommand(
		newValidateCmd(a),
		newRunCmd(a),
		newGradeCmd(a),
		newListCmd(a),
		newKindsCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup resolves configuration and the logger before any
// subcommand runs. Flags win over LABCHECK_ variables, which win
// over the config file.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.noColor {
		color.NoColor = true
	}
	if a.envFile != "" {
		if err := config.LoadDotEnv(a.envFile); err != nil {
			return err
		}
	}

	present := make(map[string]string)
	for key, name := range flagKeys {
		if cmd.Flags().Lookup(name) != nil {
			present[key] = name
		}
	}
	if err := config.BindFlags(a.v, cmd.Flags(), present); err != nil {
		return err
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	lc := cfg.LoggerConfig()
	lc.Fields = map[string]any{"command": cmd.Name()}
	zl, err := logging.NewZapLogger(lc)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.logger = zl
	return nil
}
