package main

import (
	"fmt"

	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Complete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(args[0], models.LifecycleCompleted)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(args[0], models.LifecycleCancelled)
	},
}

var transitionAt string

func init() {
	doneCmd.Flags().StringVar(&transitionAt, "at", "", "Transition time (default: now)")
	cancelCmd.Flags().StringVar(&transitionAt, "at", "", "Transition time (default: now)")
}

func runTransition(arg string, to models.Lifecycle) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	at, err := parseTimeFlag(transitionAt)
	if err != nil {
		return err
	}

	res, err := svc.Transition(id, to, at)
	if err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("task #%d %s: %s", res.Task.ID, res.Task.Lifecycle, res.Task.Description), color.FgGreen)
	printEffects(res.Effects)
	if res.Respawn != nil {
		if res.Respawn.Spawned != nil {
			next := res.Respawn.Spawned
			fmt.Printf("  %s next occurrence #%d due %s\n", color.CyanString("↺"), next.ID, formatTSPtr(next.Due))
		} else if res.Respawn.Reason != "" {
			printStatus("⚠", "no respawn: "+res.Respawn.Reason, color.FgYellow)
		}
	}
	return nil
}
