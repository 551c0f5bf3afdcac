package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"digital.vasic.labcheck/pkg/bank"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check challenge files for structural errors without connecting anywhere",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			invalid := 0
			for _, path := range args {
				errs := bank.ValidateFile(path, a.registry)
				if len(errs) == 0 {
					fmt.Fprintf(a.stdout, "%s %s\n", colorSuccess("OK"), path)
					continue
				}
				invalid++
				printStructural(a.stdout, &bank.StructuralError{
					Source: path, Violations: errs,
				})
			}
			if invalid > 0 {
				return &verdictError{
					code: exitStructural,
					err:  fmt.Errorf("%d of %d files invalid", invalid, len(args)),
				}
			}
			return nil
		},
	}
}
