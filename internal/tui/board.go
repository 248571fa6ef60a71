// Package tui renders the read-only live board: every feature in the ledger,
// its artifact progress, project metrics and the tail of the history log.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/metrics"
)

const fallbackRefreshInterval = 5 * time.Second

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	logBodyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

// Item is one feature row plus its artifact checklist.
type Item struct {
	Feature  ledger.Feature
	Archived bool
	Statuses []artifact.PhaseStatus
}

// Snapshot is everything the board shows at one instant.
type Snapshot struct {
	Project   string
	Items     []Item
	Aggregate metrics.Aggregated
	Log       []string
}

// Loader produces a fresh snapshot. It must not mutate project state.
type Loader func() (Snapshot, error)

type snapshotMsg struct {
	snapshot Snapshot
	err      error
}

type tickMsg struct{}

// Board is the bubbletea model behind `nextai board`.
type Board struct {
	load      Loader
	changes   <-chan struct{}
	table     table.Model
	snapshot  Snapshot
	err       error
	width     int
	height    int
	statusMsg string
	loadedAt  time.Time
	clock     func() time.Time
}

// NewBoard creates a board. changes, when non-nil, triggers a reload every
// time it receives; without it the board polls.
func NewBoard(load Loader, changes <-chan struct{}) *Board {
	columns := []table.Column{
		{Title: "ID", Width: 24},
		{Title: "TYPE", Width: 8},
		{Title: "PHASE", Width: 20},
		{Title: "RETRY", Width: 5},
		{Title: "STATUS", Width: 24},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5B8DEF"))
	t.SetStyles(styles)
	return &Board{
		load:      load,
		changes:   changes,
		table:     t,
		statusMsg: "Loading board...",
		clock:     time.Now,
	}
}

// Init loads the first snapshot and starts listening for changes.
func (b *Board) Init() tea.Cmd {
	return tea.Batch(b.fetch(), b.listen())
}

func (b *Board) fetch() tea.Cmd {
	return func() tea.Msg {
		snap, err := b.load()
		return snapshotMsg{snapshot: snap, err: err}
	}
}

func (b *Board) listen() tea.Cmd {
	if b.changes == nil {
		return tea.Tick(fallbackRefreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
	}
	ch := b.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return tickMsg{}
	}
}

// Update handles window, data and key messages.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.table.SetHeight(max(5, msg.Height/2-4))
		return b, nil

	case snapshotMsg:
		if msg.err != nil {
			b.err = msg.err
			b.statusMsg = "Refresh failed"
			return b, nil
		}
		b.err = nil
		b.apply(msg.snapshot)
		b.loadedAt = b.clock()
		b.statusMsg = fmt.Sprintf("Updated %s · %d features", b.loadedAt.Format("15:04:05"), len(msg.snapshot.Items))
		return b, nil

	case tickMsg:
		return b, tea.Batch(b.fetch(), b.listen())

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return b, tea.Quit
		case "r":
			b.statusMsg = "Refreshing..."
			return b, b.fetch()
		}
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

func (b *Board) apply(snap Snapshot) {
	b.snapshot = snap
	rows := make([]table.Row, 0, len(snap.Items))
	for _, item := range snap.Items {
		f := item.Feature
		rows = append(rows, table.Row{
			f.ID,
			string(f.Type),
			f.Phase.FriendlyName(),
			fmt.Sprintf("%d", f.RetryCount),
			statusText(item),
		})
	}
	b.table.SetRows(rows)
	if cursor := b.table.Cursor(); cursor >= len(rows) && len(rows) > 0 {
		b.table.SetCursor(len(rows) - 1)
	}
}

// Selected returns the feature under the cursor.
func (b *Board) Selected() (Item, bool) {
	idx := b.table.Cursor()
	if idx < 0 || idx >= len(b.snapshot.Items) {
		return Item{}, false
	}
	return b.snapshot.Items[idx], true
}

func statusText(item Item) string {
	switch {
	case item.Feature.IsBlocked():
		return "BLOCKED: " + item.Feature.Blocked()
	case item.Archived:
		return "archived"
	default:
		return ""
	}
}

// View renders the board.
func (b *Board) View() string {
	width := b.width
	if width <= 0 {
		width = 100
	}
	title := "NEXTAI"
	if b.snapshot.Project != "" {
		title += " · " + b.snapshot.Project
	}
	sections := []string{headerStyle.Render(title)}
	if b.err != nil {
		sections = append(sections, errorStyle.Render(b.err.Error()))
	}
	sections = append(sections, boxStyle.Width(max(40, width-2)).Render(b.table.View()))

	detail := b.renderDetail()
	summary := b.renderSummary()
	if width >= 90 {
		half := (width - 6) / 2
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			boxStyle.Width(half).Render(detail),
			boxStyle.Width(half).Render(summary),
		))
	} else {
		sections = append(sections, boxStyle.Render(detail), boxStyle.Render(summary))
	}
	if logPanel := b.renderLog(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, footerStyle.Render(b.statusMsg+" · ↑/↓ select · r refresh · q quit"))
	return strings.Join(sections, "\n")
}

func (b *Board) renderDetail() string {
	item, ok := b.Selected()
	if !ok {
		return pendingStyle.Render("No features yet. Run `nextai create <id>`.")
	}
	lines := []string{titleStyle.Render(item.Feature.Title)}
	if item.Feature.IsBlocked() {
		lines = append(lines, blockedStyle.Render("Blocked: "+item.Feature.Blocked()))
	}
	current := item.Feature.Phase
	for _, st := range item.Statuses {
		marker := pendingStyle.Render("○")
		if st.Complete {
			marker = doneStyle.Render("●")
		}
		name := st.Phase.FriendlyName()
		if st.Phase == current {
			name = titleStyle.Render(name + " ◂")
		}
		line := fmt.Sprintf("%s %s", marker, name)
		if st.Detail != "" {
			line += " " + detailStyle.Render("("+st.Detail+")")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (b *Board) renderSummary() string {
	agg := b.snapshot.Aggregate
	lines := []string{
		titleStyle.Render("METRICS"),
		fmt.Sprintf("Features: %d (%d done, %d todo, %d blocked)", agg.TotalFeatures, agg.Done, agg.Todo, agg.Blocked),
		fmt.Sprintf("Completed: %d", agg.Completed),
	}
	if agg.Completed > 0 {
		lines = append(lines,
			fmt.Sprintf("Avg duration: %s", time.Duration(agg.AvgTotalDurationMs)*time.Millisecond),
			fmt.Sprintf("Avg review loops: %.2f", agg.AvgReviewIterations),
			fmt.Sprintf("Avg test failures: %.2f", agg.AvgTestingFailures),
		)
	}
	if agg.BypassedValidations > 0 {
		lines = append(lines, blockedStyle.Render(fmt.Sprintf("Bypassed validations: %d", agg.BypassedValidations)))
	}
	return strings.Join(lines, "\n")
}

func (b *Board) renderLog() string {
	if len(b.snapshot.Log) == 0 {
		return ""
	}
	head := titleStyle.Render("HISTORY · history.log")
	body := logBodyStyle.Render(strings.Join(b.snapshot.Log, "\n"))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}
