package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Audit the ledger against its consistency rules",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	violations, err := svc.CheckInvariants()
	if err != nil {
		return err
	}

	if len(violations) == 0 {
		views, err := svc.Overview()
		if err != nil {
			return err
		}
		printStatus("✓", fmt.Sprintf("ledger consistent: %d tasks at %s", len(views), st.Path()), color.FgGreen)
		return nil
	}

	for _, v := range violations {
		printStatus("✗", v.Error(), color.FgRed)
	}
	return fmt.Errorf("%d consistency violations", len(violations))
}
