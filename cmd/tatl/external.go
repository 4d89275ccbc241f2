package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <id>",
	Short: "Hand a task off to wait on someone else",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

var collectCmd = &cobra.Command{
	Use:   "collect <id>",
	Short: "Collect a task back from an external wait",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollect,
}

var externalAt string

func init() {
	sendCmd.Flags().StringVar(&externalAt, "at", "", "Hand-off time (default: now)")
	collectCmd.Flags().StringVar(&externalAt, "at", "", "Collection time (default: now)")
}

func runSend(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	at, err := parseTimeFlag(externalAt)
	if err != nil {
		return err
	}

	res, err := svc.MarkExternal(id, at)
	if err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("task #%d handed off at %s", id, formatTS(res.Wait.SentAt)), color.FgGreen)
	printEffects(res.Effects)
	return nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	at, err := parseTimeFlag(externalAt)
	if err != nil {
		return err
	}

	res, err := svc.CollectExternal(id, at)
	if err != nil {
		return err
	}

	waited := res.Wait.CollectedAt.Sub(res.Wait.SentAt)
	printStatus("✓", fmt.Sprintf("task #%d collected after %s outside", id, formatDur(waited)), color.FgGreen)
	fmt.Println("  it is not back on the queue; queue it again when it needs work")
	return nil
}
