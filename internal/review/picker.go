package review

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/careerscout/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// StatusAll selects every result regardless of status.
const StatusAll model.Status = ""

// pickerChoices is the fixed menu order.
var pickerChoices = []model.Status{
	StatusAll,
	model.StatusComplete,
	model.StatusPartial,
	model.StatusCompanyExtractionFailed,
}

type pickerModel struct {
	counts map[model.Status]int
	total  int
	cursor int
	chosen int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(pickerChoices)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) label(s model.Status) string {
	if s == StatusAll {
		return fmt.Sprintf("all results (%d)", m.total)
	}
	return fmt.Sprintf("%s (%d)", s, m.counts[s])
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Review results: select a status")
	s += "\n"

	for i, c := range pickerChoices {
		label := m.label(c)
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunStatusPicker shows an interactive status selector. ok is false if the
// user quit; otherwise status is the chosen filter (StatusAll for everything).
func RunStatusPicker(counts map[model.Status]int, total int) (status model.Status, ok bool, err error) {
	m := pickerModel{
		counts: counts,
		total:  total,
		chosen: -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return StatusAll, false, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return StatusAll, false, nil
	}
	return pickerChoices[final.chosen], true, nil
}
