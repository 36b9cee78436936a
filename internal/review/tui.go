// Package review is the terminal UI for browsing a finished batch and
// re-checking results that did not complete.
package review

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/careerscout/internal/model"
)

// Lines per result item in the list view (title + subtitle + blank separator).
const resultItemHeight = 3

const recheckTimeout = 3 * time.Minute

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(18)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusColors = map[model.Status]lipgloss.Color{
		model.StatusComplete:                "42",
		model.StatusPartial:                 "214",
		model.StatusCompanyExtractionFailed: "196",
	}
)

// Rechecker re-runs the enrichment stages for a single job.
type Rechecker interface {
	Process(ctx context.Context, job model.JobRecord) model.PipelineResult
}

// Outcome is what the review session leaves behind.
type Outcome struct {
	// Results is the full input slice with any rechecked rows replaced.
	Results []model.PipelineResult
	// Changed counts rechecked rows whose status or URLs changed.
	Changed  int
	WantQuit bool
}

// recheckedMsg is sent when an async recheck completes.
type recheckedMsg struct {
	index  int
	result model.PipelineResult
}

type reviewModel struct {
	all      []model.PipelineResult
	visible  []int // indexes into all
	status   model.Status
	cursor   int
	list     viewport.Model
	width    int
	height   int
	ready    bool
	changed  int
	wantQuit bool

	view           viewState
	detailViewport viewport.Model

	rechecker      Rechecker
	recheckLoading bool
	recheckNote    string
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case recheckedMsg:
		m.recheckLoading = false
		before := m.all[msg.index]
		msg.result.DiscoveredAt = before.DiscoveredAt
		m.all[msg.index] = msg.result
		if resultChanged(before, msg.result) {
			m.changed++
			m.recheckNote = fmt.Sprintf("status: %s → %s", before.Status, msg.result.Status)
		} else {
			m.recheckNote = "no change"
		}
		m.recalcContent()
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m reviewModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.visible)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.visible)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the viewport.
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if url := bestURL(m.current()); url != "" {
			openURL(url)
		}
		return m, nil
	case "c":
		if m.rechecker != nil && !m.recheckLoading && m.current().Status != model.StatusComplete {
			m.recheckLoading = true
			m.recheckNote = ""
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.recheckCmd(m.visible[m.cursor])
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m reviewModel) recheckCmd(index int) tea.Cmd {
	rechecker := m.rechecker
	job := m.all[index].Job
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), recheckTimeout)
		defer cancel()
		return recheckedMsg{index: index, result: rechecker.Process(ctx, job)}
	}
}

func (m reviewModel) current() model.PipelineResult {
	return m.all[m.visible[m.cursor]]
}

func (m *reviewModel) ensureCursorVisible() {
	cursorTop := m.cursor * resultItemHeight
	cursorBottom := cursorTop + resultItemHeight - 1

	if cursorTop < m.list.YOffset {
		m.list.SetYOffset(cursorTop)
	} else if cursorBottom >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(cursorBottom - m.list.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.visible) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.recheckNote = ""
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *reviewModel) recalcLayout() {
	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	width := max(m.width-2, 20)
	height := max(m.height-4, 5)

	if !m.ready {
		m.list = viewport.New(width, height)
		m.ready = true
	} else {
		m.list.Width = width
		m.list.Height = height
	}

	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	m.list.SetContent(renderResults(m.all, m.visible, m.cursor))
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m reviewModel) viewList() string {
	label := "All results"
	if m.status != StatusAll {
		label = string(m.status)
	}
	header := headerStyle.Render(fmt.Sprintf(" %s (%d)", label, len(m.visible)))
	pane := borderStyle.Width(m.list.Width).Render(m.list.View())

	statusText := fmt.Sprintf(" %d shown | %d total | %d changed    ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.visible), len(m.all), m.changed)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + pane + "\n" + statusBar
}

func (m reviewModel) viewDetail() string {
	title := detailTitleStyle.Render("Result Details")
	if m.recheckLoading {
		title += "  (rechecking...)"
	}

	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	statusText := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.rechecker != nil && m.current().Status != model.StatusComplete && !m.recheckLoading {
		statusText = " o open URL  c recheck  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m reviewModel) renderDetail() string {
	r := m.current()
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", r.Job.Title)
	addField("Company", r.Job.CompanyName)
	addField("Location", r.Job.Location)
	addField("Source", r.Job.Source)
	if r.Job.DatePosted != nil {
		addField("Posted", r.Job.DatePosted.Format("2006-01-02"))
	}
	addField("Discovered", r.DiscoveredAt.Local().Format("2006-01-02 15:04 MST"))

	b.WriteByte('\n')
	b.WriteString(detailLabelStyle.Render("Status"))
	b.WriteString(statusStyle(r.Status).Render(string(r.Status)))
	b.WriteByte('\n')

	wrapWidth := max(m.width-26, 20)
	if r.Reason != "" {
		addField("Reason", wordWrap(r.Reason, wrapWidth))
	}

	b.WriteByte('\n')
	addField("LinkedIn", r.Job.JobURL)
	addField("Company Page", r.Job.CompanyLinkedInURL)
	addField("Website", r.Job.CompanyWebsite)
	addField("Career Page", r.CareerPage.URL)
	if r.CareerPage.ConfidenceReason != "" {
		addField("Why", wordWrap(r.CareerPage.ConfidenceReason, wrapWidth))
	}
	addField("Open Position", r.Position.URL)

	switch {
	case m.recheckLoading:
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  rechecking company, career page and position...") + "\n")
	case m.recheckNote != "":
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  recheck: "+m.recheckNote) + "\n")
	case r.Status == model.StatusCompanyExtractionFailed && r.Job.CompanyName == "":
		b.WriteByte('\n')
		b.WriteString(errorStyle.Render("⚠ company could not be identified") + "\n")
	}

	return b.String()
}

func statusStyle(s model.Status) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	if c, ok := statusColors[s]; ok {
		st = st.Foreground(c)
	}
	return st
}

func renderResults(all []model.PipelineResult, visible []int, cursor int) string {
	if len(visible) == 0 {
		return "  (no results)"
	}

	var b strings.Builder
	for i, idx := range visible {
		r := all[idx]
		isSelected := i == cursor

		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		company := r.Job.CompanyName
		if company == "" {
			company = "unknown company"
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(fmt.Sprintf("%s · %s", r.Job.Title, company)))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s", r.Status, r.Job.Location)))
		b.WriteByte('\n')

		if i < len(visible)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// visibleIndexes returns the positions of results matching status, newest
// posting first. Results without a posting date sort last.
func visibleIndexes(results []model.PipelineResult, status model.Status) []int {
	var idx []int
	for i, r := range results {
		if status == StatusAll || r.Status == status {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		pa, pb := results[idx[a]].Job.DatePosted, results[idx[b]].Job.DatePosted
		if pa == nil {
			return false
		}
		if pb == nil {
			return true
		}
		return pa.After(*pb)
	})
	return idx
}

// bestURL picks the most specific link known for a result.
func bestURL(r model.PipelineResult) string {
	for _, u := range []string{r.Position.URL, r.CareerPage.URL, r.Job.CompanyWebsite, r.Job.JobURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

func resultChanged(before, after model.PipelineResult) bool {
	return before.Status != after.Status ||
		before.CareerPage.URL != after.CareerPage.URL ||
		before.Position.URL != after.Position.URL
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunReviewTUI launches the full-screen review UI over results, showing those
// with the given status. rechecker may be nil; when non-nil the 'c' key
// re-runs enrichment for an incomplete result in the detail view.
func RunReviewTUI(results []model.PipelineResult, status model.Status, rechecker Rechecker) (Outcome, error) {
	all := make([]model.PipelineResult, len(results))
	copy(all, results)

	m := reviewModel{
		all:       all,
		visible:   visibleIndexes(all, status),
		status:    status,
		rechecker: rechecker,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return Outcome{Results: results}, err
	}
	final := result.(reviewModel)
	return Outcome{Results: final.all, Changed: final.changed, WantQuit: final.wantQuit}, nil
}
