package main

import (
	"fmt"

	"github.com/da11an/tatl-sub000/internal/interval"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start the clock on a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running clock",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var stopAt string

func init() {
	stopCmd.Flags().StringVar(&stopAt, "at", "", "Stop time (default: now)")
}

func runStart(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	res, err := svc.OpenSession(id)
	if err != nil {
		return err
	}

	printStatus("●", fmt.Sprintf("clock running on #%d: %s", res.Task.ID, res.Task.Description), color.FgGreen)
	printEffects(res.Effects)
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	at, err := parseTimeFlag(stopAt)
	if err != nil {
		return err
	}

	res, err := svc.CloseSession(at)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case interval.CloseMerged:
		printStatus("✓", fmt.Sprintf("%s folded into the previous session of #%d", formatDur(res.Duration), res.Task.ID), color.FgGreen)
	case interval.CloseDiscarded:
		printStatus("✓", fmt.Sprintf("short run on #%d discarded (%s under the threshold)", res.Task.ID, formatDur(res.Duration)), color.FgYellow)
	default:
		printStatus("✓", fmt.Sprintf("%s recorded on #%d: %s", formatDur(res.Duration), res.Task.ID, res.Task.Description), color.FgGreen)
	}
	printEffects(res.Effects)
	return nil
}
