package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/clusterview/pkg/cluster"
	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/session"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	listErrStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// ExploreModel - Interactive cluster state browser
// =============================================================================

// ExploreModel is the bubbletea model for toggling clusters of one session.
type ExploreModel struct {
	Session  *session.Session
	Clusters []session.ClusterState
	Cursor   int
	Height   int
	Offset   int
	Err      string
}

// NewExploreModel creates a new explore model over s.
func NewExploreModel(s *session.Session) ExploreModel {
	return ExploreModel{
		Session:  s,
		Clusters: s.Clusters(),
		Height:   15,
	}
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Clusters)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			if id, ok := m.current(); ok {
				m = m.apply(m.Session.ToggleCollapse(id))
			}
		case "h":
			if id, ok := m.current(); ok {
				m = m.apply(m.Session.ToggleHidden(id))
			}
		case "r":
			m.Session.Reset()
			m = m.apply(nil)
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ExploreModel) current() (string, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Clusters) {
		return "", false
	}
	return m.Clusters[m.Cursor].ID, true
}

// apply refreshes the cluster list after a state change.
func (m ExploreModel) apply(err error) ExploreModel {
	m.Err = ""
	if err != nil {
		m.Err = errors.UserMessage(err)
	}
	m.Clusters = m.Session.Clusters()
	return m
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Clusters"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ collapse/expand  h hide  r reset  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Clusters))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		c := m.Clusters[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, c.ID, c.Name, fmt.Sprint(c.Members), c.State})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Cluster", "Name", "Members", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Clusters) {
				return lipgloss.NewStyle()
			}
			base := stateStyle(m.Clusters[idx].State)
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	st := m.Session.View().Stats()
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d/%d nodes  %d/%d links visible",
		m.Cursor+1, len(m.Clusters), st.VisibleNodes, st.Nodes, st.VisibleLinks, st.Links)))
	if m.Err != "" {
		b.WriteString("\n")
		b.WriteString(listErrStyle.Render("  " + m.Err))
	}

	return b.String()
}

func stateStyle(state string) lipgloss.Style {
	switch state {
	case cluster.Expanded.String():
		return lipgloss.NewStyle().Foreground(colorGreen)
	case cluster.Hidden.String():
		return lipgloss.NewStyle().Foreground(colorDim)
	}
	return lipgloss.NewStyle().Foreground(colorWhite)
}
