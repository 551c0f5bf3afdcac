package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information, injected at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newKindsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the registered check kinds",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			for _, kind := range a.registry.Kinds() {
				fmt.Fprintln(a.stdout, kind)
			}
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			if !verbose {
				fmt.Fprintf(a.stdout, "labcheck version %s\n", Version)
				return
			}
			fmt.Fprintf(a.stdout, `labcheck version information:
  Version:    %s
  Git Commit: %s
  Build Date: %s
  Go Version: %s
  OS/Arch:    %s/%s
`, Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
	cmd.Flags().BoolVar(&verbose, "long", false, "show detailed version information")
	return cmd
}
