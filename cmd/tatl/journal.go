package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the most recent ledger mutations",
	RunE:  runJournal,
}

var journalLimit int

func init() {
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Entries to show")
}

func runJournal(cmd *cobra.Command, args []string) error {
	entries, err := journal.Tail(journalLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("The journal is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AT\tOP\tTASK\tDETAIL")
	for _, e := range entries {
		task := "-"
		if e.TaskID != 0 {
			task = fmt.Sprintf("#%d", e.TaskID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", formatTS(e.At), e.Op, task, e.Detail)
	}
	return w.Flush()
}
