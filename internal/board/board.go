// Package board provides the interactive terminal board for tatl.
package board

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/da11an/tatl-sub000/internal/interval"
	"github.com/da11an/tatl-sub000/internal/ledger"
	"github.com/da11an/tatl-sub000/internal/models"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	clockOnStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	clockOffStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	stageStyles = map[models.Stage]lipgloss.Style{
		models.StageProposed:  lipgloss.NewStyle().Foreground(mutedColor),
		models.StageQueued:    lipgloss.NewStyle().Foreground(cyanColor),
		models.StageStalled:   lipgloss.NewStyle().Foreground(warningColor),
		models.StageActive:    lipgloss.NewStyle().Foreground(successColor),
		models.StageExternal:  lipgloss.NewStyle().Foreground(primaryColor),
		models.StageCompleted: lipgloss.NewStyle().Foreground(successColor),
		models.StageCancelled: lipgloss.NewStyle().Foreground(errorColor),
	}
)

var stageFilters = []models.Stage{"", models.StageActive, models.StageQueued, models.StageExternal, models.StageStalled, models.StageProposed, models.StageCompleted, models.StageCancelled}
var stageFilterNames = []string{"ALL", "ACTIVE", "QUEUED", "EXTERNAL", "STALLED", "PROPOSED", "DONE", "CANCELLED"}

// App is the board application model.
type App struct {
	svc     *ledger.Service
	dbPath  string
	refresh time.Duration

	views       []ledger.TaskView
	rows        []ledger.TaskView
	selectedIdx int
	input       textinput.Model
	width       int
	height      int
	cmdMode     bool
	message     string
	filterIdx   int
	loading     bool
	watch       *dbWatcher
}

// New builds a board over the ledger. dbPath is watched for outside
// writes so the board follows changes made from another terminal;
// refresh is the fallback poll interval that also advances the
// running-clock display.
func New(svc *ledger.Service, dbPath string, refresh time.Duration) *App {
	ti := textinput.New()
	ti.Placeholder = "add <description> | done [id] | cancel [id]"
	ti.CharLimit = 256
	ti.Width = 80

	if refresh <= 0 {
		refresh = 2 * time.Second
	}

	return &App{
		svc:     svc,
		dbPath:  dbPath,
		refresh: refresh,
		input:   ti,
		loading: true,
	}
}

// Run starts the board and blocks until the user quits.
func (a *App) Run() error {
	if a.dbPath != "" {
		watch, err := newDBWatcher(a.dbPath)
		if err != nil {
			// The periodic tick still refreshes; only the instant
			// pickup of outside writes is lost.
			logWatchDisabled(err)
		} else {
			a.watch = watch
			defer watch.Close()
		}
	}

	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.loadViews(), a.tickCmd()}
	if a.watch != nil {
		cmds = append(cmds, a.waitForChange())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.cmdMode {
			return a.updateCommandBar(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit

		case "up", "k":
			if a.selectedIdx > 0 {
				a.selectedIdx--
			}

		case "down", "j":
			if a.selectedIdx < len(a.rows)-1 {
				a.selectedIdx++
			}

		case "tab":
			a.filterIdx = (a.filterIdx + 1) % len(stageFilters)
			a.applyFilter()

		case "enter":
			if v := a.selected(); v != nil {
				return a, a.startClock(v.Task.ID)
			}

		case "e":
			return a, a.stopClock()

		case "n":
			if v := a.selected(); v != nil {
				return a, a.enqueue(v.Task.ID)
			}

		case "d":
			if v := a.selected(); v != nil {
				return a, a.dequeue(v.Task.ID)
			}

		case "w":
			if v := a.selected(); v != nil {
				return a, a.sendExternal(v.Task.ID)
			}

		case "c":
			if v := a.selected(); v != nil {
				return a, a.collectExternal(v.Task.ID)
			}

		case ":":
			a.cmdMode = true
			a.input.Focus()
			return a, textinput.Blink

		case "r":
			return a, a.loadViews()
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4

	case viewsMsg:
		a.loading = false
		a.views = msg.views
		a.applyFilter()

	case actionMsg:
		a.message = msg.text
		return a, a.loadViews()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
		return a, a.loadViews()

	case tickMsg:
		return a, tea.Batch(a.loadViews(), a.tickCmd())

	case dbChangedMsg:
		return a, tea.Batch(a.loadViews(), a.waitForChange())
	}

	return a, nil
}

func (a *App) updateCommandBar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "esc":
		a.cmdMode = false
		a.input.SetValue("")
		a.input.Blur()
		return a, nil

	case "enter":
		line := strings.TrimSpace(a.input.Value())
		a.cmdMode = false
		a.input.SetValue("")
		a.input.Blur()
		if line == "" {
			return a, nil
		}
		return a, a.executeCommand(line)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder
	now := time.Now().UTC()

	clock := clockOffStyle.Render("○ idle")
	for _, v := range a.views {
		if v.Open != nil {
			clock = clockOnStyle.Render(fmt.Sprintf("● #%d %s", v.Task.ID, formatSpan(now.Sub(v.Open.Start))))
			break
		}
	}

	header := titleStyle.Render("⏱ tatl")
	header += "  " + clock
	header += "  " + lipgloss.NewStyle().Foreground(mutedColor).Render(fmt.Sprintf("Filter: [%s]", stageFilterNames[a.filterIdx]))
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 1)) + "\n")

	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}
	b.WriteString(a.renderRows(contentHeight, now))

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if a.cmdMode {
		b.WriteString(inputBoxStyle.Render(a.input.View()))
		b.WriteString("\n")
	}

	status := fmt.Sprintf(" Tasks: %d | ↑↓:nav | Tab:filter | Enter:start | e:stop | n:queue | d:drop | w:send | c:collect | ::cmd | r:refresh | q:quit", len(a.rows))
	b.WriteString(statusBarStyle.Width(max(a.width, 1)).Render(status))

	return b.String()
}

func (a *App) renderRows(height int, now time.Time) string {
	if a.loading {
		return "\n  Loading...\n"
	}
	if len(a.rows) == 0 {
		if stageFilters[a.filterIdx] == "" {
			return "\n  No tasks yet. Press : and type add <description>.\n"
		}
		return fmt.Sprintf("\n  No %s tasks.\n", strings.ToLower(stageFilterNames[a.filterIdx]))
	}

	var lines []string
	for i, v := range a.rows {
		text := rowText(v, now)
		if i == a.selectedIdx {
			lines = append(lines, selectedStyle.Render("▶ "+text))
		} else {
			glyph := stageGlyph(v.Stage)
			tail := strings.TrimPrefix(text, glyph)
			lines = append(lines, rowStyle.Render("  "+stageStyles[v.Stage].Render(glyph)+tail))
		}
	}

	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

func (a *App) applyFilter() {
	a.rows = filterViews(a.views, stageFilters[a.filterIdx])
	if a.selectedIdx >= len(a.rows) {
		a.selectedIdx = max(0, len(a.rows)-1)
	}
}

func (a *App) selected() *ledger.TaskView {
	if a.selectedIdx < 0 || a.selectedIdx >= len(a.rows) {
		return nil
	}
	v := a.rows[a.selectedIdx]
	return &v
}

// --- Rendering helpers ---

var stageRank = map[models.Stage]int{
	models.StageActive:    0,
	models.StageQueued:    1,
	models.StageExternal:  2,
	models.StageStalled:   3,
	models.StageProposed:  4,
	models.StageCompleted: 5,
	models.StageCancelled: 6,
}

// sortViews orders rows the way the board reads: the running task
// first, then the queue in its own order, then everything else.
func sortViews(views []ledger.TaskView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if stageRank[a.Stage] != stageRank[b.Stage] {
			return stageRank[a.Stage] < stageRank[b.Stage]
		}
		if a.Stage == models.StageQueued {
			return a.Position < b.Position
		}
		return a.Task.ID < b.Task.ID
	})
}

func filterViews(views []ledger.TaskView, stage models.Stage) []ledger.TaskView {
	if stage == "" {
		return views
	}
	var out []ledger.TaskView
	for _, v := range views {
		if v.Stage == stage {
			out = append(out, v)
		}
	}
	return out
}

func stageGlyph(stage models.Stage) string {
	switch stage {
	case models.StageProposed:
		return "○"
	case models.StageQueued:
		return "◐"
	case models.StageStalled:
		return "◑"
	case models.StageActive:
		return "●"
	case models.StageExternal:
		return "◇"
	case models.StageCompleted:
		return "✓"
	case models.StageCancelled:
		return "✗"
	default:
		return "?"
	}
}

func rowText(v ledger.TaskView, now time.Time) string {
	line := fmt.Sprintf("%s %-9s #%-4d %-48s", stageGlyph(v.Stage), string(v.Stage), v.Task.ID, truncate(v.Task.Description, 48))

	var right []string
	if v.Position >= 0 {
		right = append(right, fmt.Sprintf("q%d", v.Position))
	}
	if v.Open != nil {
		right = append(right, "now "+formatSpan(now.Sub(v.Open.Start)))
	}
	if v.Logged > 0 {
		right = append(right, formatSpan(v.Logged))
	}
	if v.Task.Project != "" {
		right = append(right, "@"+v.Task.Project)
	}
	if len(right) > 0 {
		line += "  " + strings.Join(right, " • ")
	}
	return line
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatSpan(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

func joinEffects(effects []ledger.Effect) string {
	parts := make([]string, len(effects))
	for i, e := range effects {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// --- Commands ---

func (a *App) loadViews() tea.Cmd {
	return func() tea.Msg {
		views, err := a.svc.Overview()
		if err != nil {
			return errMsg{err}
		}
		sortViews(views)
		return viewsMsg{views}
	}
}

func (a *App) startClock(id int64) tea.Cmd {
	return func() tea.Msg {
		res, err := a.svc.OpenSession(id)
		if err != nil {
			return errMsg{err}
		}
		text := fmt.Sprintf("✓ clock running on #%d", res.Task.ID)
		if len(res.Effects) > 0 {
			text += " (" + joinEffects(res.Effects) + ")"
		}
		return actionMsg{text}
	}
}

func (a *App) stopClock() tea.Cmd {
	return func() tea.Msg {
		res, err := a.svc.CloseSession(time.Time{})
		if err != nil {
			return errMsg{err}
		}
		var text string
		switch res.Outcome {
		case interval.CloseMerged:
			text = fmt.Sprintf("✓ %s folded into the previous session of #%d", formatSpan(res.Duration), res.Task.ID)
		case interval.CloseDiscarded:
			text = fmt.Sprintf("✓ short run on #%d discarded (%s)", res.Task.ID, formatSpan(res.Duration))
		default:
			text = fmt.Sprintf("✓ %s recorded on #%d", formatSpan(res.Duration), res.Task.ID)
		}
		if len(res.Effects) > 0 {
			text += " (" + joinEffects(res.Effects) + ")"
		}
		return actionMsg{text}
	}
}

func (a *App) enqueue(id int64) tea.Cmd {
	return func() tea.Msg {
		res, err := a.svc.Enqueue(id)
		if err != nil {
			return errMsg{err}
		}
		return actionMsg{fmt.Sprintf("✓ #%d queued at position %d", id, len(res.Queue)-1)}
	}
}

func (a *App) dequeue(id int64) tea.Cmd {
	return func() tea.Msg {
		if _, err := a.svc.Dequeue(id); err != nil {
			return errMsg{err}
		}
		return actionMsg{fmt.Sprintf("✓ #%d dropped from the queue", id)}
	}
}

func (a *App) sendExternal(id int64) tea.Cmd {
	return func() tea.Msg {
		res, err := a.svc.MarkExternal(id, time.Time{})
		if err != nil {
			return errMsg{err}
		}
		text := fmt.Sprintf("✓ #%d handed off, waiting on the outside", id)
		if len(res.Effects) > 0 {
			text += " (" + joinEffects(res.Effects) + ")"
		}
		return actionMsg{text}
	}
}

func (a *App) collectExternal(id int64) tea.Cmd {
	return func() tea.Msg {
		if _, err := a.svc.CollectExternal(id, time.Time{}); err != nil {
			return errMsg{err}
		}
		return actionMsg{fmt.Sprintf("✓ #%d collected back", id)}
	}
}

func (a *App) executeCommand(line string) tea.Cmd {
	fields := strings.Fields(line)
	verb := fields[0]
	args := fields[1:]

	switch verb {
	case "add":
		desc := strings.TrimSpace(strings.TrimPrefix(line, "add"))
		return func() tea.Msg {
			if desc == "" {
				return actionMsg{"Usage: add <description>"}
			}
			task, err := a.svc.CreateTask(models.Task{Description: desc})
			if err != nil {
				return errMsg{err}
			}
			return actionMsg{fmt.Sprintf("✓ task #%d added", task.ID)}
		}

	case "done":
		return a.transition(args, models.LifecycleCompleted)

	case "cancel":
		return a.transition(args, models.LifecycleCancelled)

	default:
		return func() tea.Msg {
			return actionMsg{"Unknown command: " + verb}
		}
	}
}

// transition resolves the target task from the argument, falling back
// to the selected row.
func (a *App) transition(args []string, to models.Lifecycle) tea.Cmd {
	var id int64
	if len(args) > 0 {
		parsed, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
		if err != nil {
			return func() tea.Msg { return actionMsg{"Usage: " + verbFor(to) + " [id]"} }
		}
		id = parsed
	} else if v := a.selected(); v != nil {
		id = v.Task.ID
	} else {
		return func() tea.Msg { return actionMsg{"No task selected"} }
	}

	return func() tea.Msg {
		res, err := a.svc.Transition(id, to, time.Time{})
		if err != nil {
			return errMsg{err}
		}
		text := fmt.Sprintf("✓ #%d %s", res.Task.ID, res.Task.Lifecycle)
		if res.Respawn != nil {
			if res.Respawn.Spawned != nil {
				text += fmt.Sprintf(" • respawned as #%d", res.Respawn.Spawned.ID)
			} else if res.Respawn.Reason != "" {
				text += " • no respawn: " + res.Respawn.Reason
			}
		}
		return actionMsg{text}
	}
}

func verbFor(to models.Lifecycle) string {
	if to == models.LifecycleCancelled {
		return "cancel"
	}
	return "done"
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(a.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) waitForChange() tea.Cmd {
	ch := a.watch.Changes()
	return func() tea.Msg {
		<-ch
		return dbChangedMsg{}
	}
}

// --- Messages ---

type viewsMsg struct {
	views []ledger.TaskView
}

type actionMsg struct {
	text string
}

type errMsg struct {
	err error
}

type tickMsg time.Time

type dbChangedMsg struct{}
