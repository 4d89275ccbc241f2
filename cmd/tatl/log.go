package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/da11an/tatl-sub000/internal/ledger"
	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Inspect and correct recorded time",
	RunE:  runLogShow,
}

var logRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a time window from the record, across all tasks",
	RunE:  runLogRemove,
}

var logInsertCmd = &cobra.Command{
	Use:   "insert <id>",
	Short: "Insert a recorded session, rewriting whatever it overlaps",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogInsert,
}

var (
	logDay  string
	logFrom string
	logTo   string
	logYes  bool
)

func init() {
	logCmd.AddCommand(logRemoveCmd, logInsertCmd)

	logCmd.Flags().StringVar(&logDay, "day", "", "Day to show (2006-01-02, default: today)")

	for _, c := range []*cobra.Command{logRemoveCmd, logInsertCmd} {
		c.Flags().StringVar(&logFrom, "from", "", "Window start (required)")
		c.Flags().StringVar(&logTo, "to", "", "Window end (required)")
		c.Flags().BoolVar(&logYes, "yes", false, "Apply changes to already recorded sessions")
		c.MarkFlagRequired("from")
		c.MarkFlagRequired("to")
	}
}

func runLogShow(cmd *cobra.Command, args []string) error {
	day := logDay
	if day == "" {
		day = time.Now().UTC().Format("2006-01-02")
	}
	t0, t1, err := parseDay(day)
	if err != nil {
		return err
	}

	sessions, err := svc.SessionsIn(t0, t1)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Printf("Nothing recorded on %s\n", day)
		return nil
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Start.Before(sessions[j].Start) })

	names := map[int64]string{}
	for _, s := range sessions {
		if _, ok := names[s.TaskID]; ok {
			continue
		}
		task, err := svc.GetTask(s.TaskID)
		if err != nil {
			return err
		}
		names[s.TaskID] = task.Description
	}

	var total time.Duration
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tSPAN\tTASK")
	for _, s := range sessions {
		end, span := "running", time.Since(s.Start)
		if !s.Open() {
			end = s.End.UTC().Format("15:04")
			span = s.End.Sub(s.Start)
		}
		total += span
		fmt.Fprintf(w, "%s\t%s\t%s\t#%d %s\n",
			s.Start.UTC().Format("15:04"), end, formatDur(span), s.TaskID, truncate(names[s.TaskID], 40))
	}
	w.Flush()
	fmt.Printf("Total on %s: %s\n", day, formatDur(total))
	return nil
}

func runLogRemove(cmd *cobra.Command, args []string) error {
	t0, err := parseTime(logFrom)
	if err != nil {
		return err
	}
	t1, err := parseTime(logTo)
	if err != nil {
		return err
	}

	res, err := svc.RemoveInterval(t0, t1, logYes)
	if err != nil {
		return confirmOrFail(res, err)
	}

	printStatus("✓", fmt.Sprintf("removed %s to %s from the record", formatTS(t0), formatTS(t1)), color.FgGreen)
	printChanges(res.Changes)
	return nil
}

func runLogInsert(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	t0, err := parseTime(logFrom)
	if err != nil {
		return err
	}
	t1, err := parseTime(logTo)
	if err != nil {
		return err
	}

	res, err := svc.InsertInterval(id, t0, t1, logYes)
	if err != nil {
		return confirmOrFail(res, err)
	}

	printStatus("✓", fmt.Sprintf("recorded %s to %s on #%d", formatTS(t0), formatTS(t1), id), color.FgGreen)
	printChanges(res.Changes)
	return nil
}

// confirmOrFail turns a confirmation refusal into a printed plan plus a
// short error telling the user how to apply it.
func confirmOrFail(res *ledger.HistoryResult, err error) error {
	if !errors.Is(err, ledger.ErrConfirmationRequired) || res == nil {
		return err
	}

	printStatus("⚠", "this would rewrite recorded sessions:", color.FgYellow)
	printChanges(res.Changes)
	for _, c := range res.Changes {
		for _, p := range c.Pieces {
			fmt.Printf("      %s\n", describePiece(p))
		}
	}
	return errors.New("re-run with --yes to apply")
}

func describePiece(s models.Session) string {
	if s.Open() {
		return fmt.Sprintf("task %d: %s - running", s.TaskID, formatTS(s.Start))
	}
	return fmt.Sprintf("task %d: %s - %s", s.TaskID, formatTS(s.Start), formatTS(*s.End))
}
