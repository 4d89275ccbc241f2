package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/da11an/tatl-sub000/internal/ledger"
	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <description>...",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with their stage",
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var modifyCmd = &cobra.Command{
	Use:   "modify <id>",
	Short: "Change a task's free attributes",
	Args:  cobra.ExactArgs(1),
	RunE:  runModify,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task and everything recorded against it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var (
	taskProject   string
	taskTags      []string
	taskDue       string
	taskScheduled string
	taskWait      string
	taskAlloc     string
	taskRecur     string
	taskDesc      string
	listStage     string
	listAll       bool
)

func init() {
	for _, c := range []*cobra.Command{addCmd, modifyCmd} {
		c.Flags().StringVar(&taskProject, "project", "", "Project label")
		c.Flags().StringSliceVar(&taskTags, "tag", nil, "Tag (repeatable)")
		c.Flags().StringVar(&taskDue, "due", "", "Due time")
		c.Flags().StringVar(&taskScheduled, "scheduled", "", "Scheduled time")
		c.Flags().StringVar(&taskWait, "wait", "", "Hide until this time")
		c.Flags().StringVar(&taskAlloc, "alloc", "", "Time allocation (e.g. 2h30m)")
		c.Flags().StringVar(&taskRecur, "recur", "", "Recurrence rule (daily, 2w, mon,fri, 2nd tue, ...)")
	}
	modifyCmd.Flags().StringVar(&taskDesc, "desc", "", "Description")

	listCmd.Flags().StringVar(&listStage, "stage", "", "Only this stage (proposed, queued, stalled, active, external, completed, cancelled)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Include completed and cancelled tasks")
}

func runAdd(cmd *cobra.Command, args []string) error {
	draft := models.Task{
		Description: strings.Join(args, " "),
		Project:     taskProject,
		Tags:        taskTags,
		Recurrence:  taskRecur,
	}

	var err error
	if draft.Due, err = optionalTime(taskDue); err != nil {
		return err
	}
	if draft.Scheduled, err = optionalTime(taskScheduled); err != nil {
		return err
	}
	if draft.Wait, err = optionalTime(taskWait); err != nil {
		return err
	}
	if taskAlloc != "" {
		if draft.Alloc, err = time.ParseDuration(taskAlloc); err != nil {
			return fmt.Errorf("bad allocation %q: %w", taskAlloc, err)
		}
	}

	task, err := svc.CreateTask(draft)
	if err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("task #%d added: %s", task.ID, task.Description), color.FgGreen)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	views, err := svc.Overview()
	if err != nil {
		return err
	}

	var rows []ledger.TaskView
	for _, v := range views {
		if !listAll && v.Task.Lifecycle.Terminal() {
			continue
		}
		if listStage != "" && string(v.Stage) != listStage {
			continue
		}
		rows = append(rows, v)
	}

	if len(rows) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTAGE\tDESCRIPTION\tPROJECT\tQUEUE\tLOGGED\tDUE")
	for _, v := range rows {
		queue := "-"
		if v.Position >= 0 {
			queue = strconv.Itoa(v.Position)
		}
		logged := "-"
		if v.Logged > 0 || v.Open != nil {
			total := v.Logged
			if v.Open != nil {
				total += time.Since(v.Open.Start)
			}
			logged = formatDur(total)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Task.ID, stageString(v.Stage), truncate(v.Task.Description, 48),
			v.Task.Project, queue, logged, formatTSPtr(v.Task.Due))
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	task, err := svc.GetTask(id)
	if err != nil {
		return err
	}
	stage, err := svc.ClassifyTask(id)
	if err != nil {
		return err
	}
	sessions, err := svc.Sessions(id)
	if err != nil {
		return err
	}

	fmt.Printf("ID:          %d\n", task.ID)
	fmt.Printf("UUID:        %s\n", task.UUID)
	fmt.Printf("Description: %s\n", task.Description)
	fmt.Printf("Stage:       %s\n", stageString(stage))
	fmt.Printf("Lifecycle:   %s\n", task.Lifecycle)
	if task.Project != "" {
		fmt.Printf("Project:     %s\n", task.Project)
	}
	if len(task.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(task.Tags, ", "))
	}
	if task.Due != nil {
		fmt.Printf("Due:         %s\n", formatTS(*task.Due))
	}
	if task.Scheduled != nil {
		fmt.Printf("Scheduled:   %s\n", formatTS(*task.Scheduled))
	}
	if task.Wait != nil {
		fmt.Printf("Wait:        %s\n", formatTS(*task.Wait))
	}
	if task.Alloc > 0 {
		fmt.Printf("Alloc:       %s\n", formatDur(task.Alloc))
	}
	if task.Recurrence != "" {
		fmt.Printf("Recurrence:  %s\n", task.Recurrence)
	}
	fmt.Printf("Created:     %s\n", formatTS(task.CreatedAt))
	fmt.Printf("Modified:    %s\n", formatTS(task.ModifiedAt))

	if len(sessions) > 0 {
		var total time.Duration
		fmt.Println("\nSessions:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, s := range sessions {
			if s.Open() {
				fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", s.ID, formatTS(s.Start), "running", formatDur(time.Since(s.Start)))
				continue
			}
			d := s.End.Sub(s.Start)
			total += d
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", s.ID, formatTS(s.Start), formatTS(*s.End), formatDur(d))
		}
		w.Flush()
		fmt.Printf("Logged: %s\n", formatDur(total))
	}
	return nil
}

func runModify(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	task, err := svc.GetTask(id)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("desc") {
		task.Description = taskDesc
	}
	if flags.Changed("project") {
		task.Project = taskProject
	}
	if flags.Changed("tag") {
		task.Tags = taskTags
	}
	if flags.Changed("recur") {
		task.Recurrence = taskRecur
	}
	if flags.Changed("due") {
		if task.Due, err = optionalTime(taskDue); err != nil {
			return err
		}
	}
	if flags.Changed("scheduled") {
		if task.Scheduled, err = optionalTime(taskScheduled); err != nil {
			return err
		}
	}
	if flags.Changed("wait") {
		if task.Wait, err = optionalTime(taskWait); err != nil {
			return err
		}
	}
	if flags.Changed("alloc") {
		if task.Alloc, err = time.ParseDuration(taskAlloc); err != nil {
			return fmt.Errorf("bad allocation %q: %w", taskAlloc, err)
		}
	}

	updated, err := svc.UpdateTask(*task)
	if err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("task #%d updated", updated.ID), color.FgGreen)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	res, err := svc.DeleteTask(id)
	if err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("task #%d deleted: %s", res.Task.ID, res.Task.Description), color.FgGreen)
	if res.SessionsRemoved > 0 {
		fmt.Printf("  %s removed %d recorded sessions\n", color.YellowString("↳"), res.SessionsRemoved)
	}
	if res.Dequeued {
		fmt.Printf("  %s removed from the queue\n", color.YellowString("↳"))
	}
	if res.ExternalCleared {
		fmt.Printf("  %s cleared the external hand-off\n", color.YellowString("↳"))
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad task id %q", s)
	}
	return id, nil
}

// optionalTime reads a time flag, empty meaning unset.
func optionalTime(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
