package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Work the priority queue",
	RunE:  runQueueList,
}

var queueAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Append a task to the queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueAdd,
}

var queueDropCmd = &cobra.Command{
	Use:   "drop <id>",
	Short: "Remove a task from the queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueDrop,
}

var queueReorderCmd = &cobra.Command{
	Use:   "reorder <id>...",
	Short: "Rewrite the queue order (must name every queued task once)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQueueReorder,
}

var queueTopCmd = &cobra.Command{
	Use:   "top <id>",
	Short: "Move a queued task to the head",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueTop,
}

func init() {
	queueCmd.AddCommand(queueAddCmd, queueDropCmd, queueReorderCmd, queueTopCmd)
}

func runQueueList(cmd *cobra.Command, args []string) error {
	views, err := svc.Overview()
	if err != nil {
		return err
	}

	queued := make(map[int]int, len(views))
	for i, v := range views {
		if v.Position >= 0 {
			queued[v.Position] = i
		}
	}
	if len(queued) == 0 {
		fmt.Println("The queue is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tID\tSTAGE\tDESCRIPTION\tLOGGED")
	for pos := 0; pos < len(queued); pos++ {
		v := views[queued[pos]]
		logged := "-"
		if v.Logged > 0 {
			logged = formatDur(v.Logged)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", pos, v.Task.ID, stageString(v.Stage), truncate(v.Task.Description, 48), logged)
	}
	return w.Flush()
}

func runQueueAdd(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	res, err := svc.Enqueue(id)
	if err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("task #%d queued at position %d", id, len(res.Queue)-1), color.FgGreen)
	return nil
}

func runQueueDrop(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if _, err := svc.Dequeue(id); err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("task #%d removed from the queue", id), color.FgGreen)
	return nil
}

func runQueueReorder(cmd *cobra.Command, args []string) error {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	res, err := svc.Reorder(ids)
	if err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("queue reordered: %v", res.Queue), color.FgGreen)
	return nil
}

func runQueueTop(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	views, err := svc.Overview()
	if err != nil {
		return err
	}
	posOf := map[int64]int{}
	for _, v := range views {
		if v.Position >= 0 {
			posOf[v.Task.ID] = v.Position
		}
	}
	if _, ok := posOf[id]; !ok {
		return fmt.Errorf("task %d is not queued", id)
	}

	// Rebuild the permutation with the chosen task first, everyone else
	// in their current order.
	ordered := make([]int64, len(posOf))
	for tid, pos := range posOf {
		ordered[pos] = tid
	}
	ids := make([]int64, 0, len(ordered))
	ids = append(ids, id)
	for _, tid := range ordered {
		if tid != id {
			ids = append(ids, tid)
		}
	}

	res, err := svc.Reorder(ids)
	if err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("task #%d moved to the head: %v", id, res.Queue), color.FgGreen)
	return nil
}
