package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"digital.vasic.labcheck/pkg/challenge"
)

type listEntry struct {
	ID         challenge.ID `json:"id"`
	Name       string       `json:"name"`
	Category   string       `json:"category"`
	Difficulty string       `json:"difficulty"`
	Score      int          `json:"score"`
	Checks     int          `json:"checks"`
}

func newListCmd(a *app) *cobra.Command {
	var (
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list FILE|DIR",
		Short: "List the challenges in a definition file, bank file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			b, err := a.loadBank(args[0])
			if err != nil {
				return err
			}
			defs := b.All()
			if category != "" {
				defs = b.ByCategory(category)
			}

			entries := make([]listEntry, 0, len(defs))
			for _, d := range defs {
				entries = append(entries, listEntry{
					ID: d.ID, Name: d.Name, Category: d.Category,
					Difficulty: d.Difficulty, Score: d.Score,
					Checks: len(d.Validation),
				})
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.stdout, "No challenges found")
				return nil
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tDIFFICULTY\tSCORE\tCHECKS\tNAME")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					e.ID, e.Category, e.Difficulty, e.Score, e.Checks, e.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list challenges in this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
