package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/velopane/velopane/pkg/dataset"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listMarkedStyle   = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// GeneListModel - Interactive gene selection
// =============================================================================

// GeneListModel is the bubbletea model for interactive gene selection.
// Genes are toggled with space and confirmed with enter; typing filters
// the list by substring.
type GeneListModel struct {
	Genes    []string
	Filter   string
	Cursor   int
	Offset   int
	Height   int
	Marked   map[string]bool
	Selected []string
}

// NewGeneListModel creates a gene list model over the dataset's genes.
func NewGeneListModel(ds *dataset.Dataset) GeneListModel {
	return GeneListModel{
		Genes:  ds.GeneNames,
		Height: 15,
		Marked: make(map[string]bool),
	}
}

func (m GeneListModel) Init() tea.Cmd {
	return nil
}

// visible returns the gene names matching the current filter.
func (m GeneListModel) visible() []string {
	if m.Filter == "" {
		return m.Genes
	}
	needle := strings.ToLower(m.Filter)
	out := make([]string, 0, len(m.Genes))
	for _, g := range m.Genes {
		if strings.Contains(strings.ToLower(g), needle) {
			out = append(out, g)
		}
	}
	return out
}

func (m GeneListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		visible := m.visible()
		switch msg.String() {
		case "ctrl+c", "esc":
			m.Marked = make(map[string]bool)
			return m, tea.Quit
		case "up":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down":
			if m.Cursor < len(visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ":
			if m.Cursor < len(visible) {
				name := visible[m.Cursor]
				if m.Marked[name] {
					delete(m.Marked, name)
				} else {
					m.Marked[name] = true
				}
			}
		case "enter":
			// No explicit marks selects the gene under the cursor.
			if len(m.Marked) == 0 && m.Cursor < len(visible) {
				m.Marked[visible[m.Cursor]] = true
			}
			for _, g := range m.Genes {
				if m.Marked[g] {
					m.Selected = append(m.Selected, g)
				}
			}
			return m, tea.Quit
		case "backspace":
			if len(m.Filter) > 0 {
				m.Filter = m.Filter[:len(m.Filter)-1]
				m.Cursor, m.Offset = 0, 0
			}
		default:
			if len(msg.String()) == 1 {
				m.Filter += msg.String()
				m.Cursor, m.Offset = 0, 0
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m GeneListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Genes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space mark  ⏎ confirm  type to filter  esc quit"))
	b.WriteString("\n")
	if m.Filter != "" {
		b.WriteString(listDimStyle.Render("filter: ") + StyleValue.Render(m.Filter))
	}
	b.WriteString("\n\n")

	visible := m.visible()
	end := m.Offset + m.Height
	if end > len(visible) {
		end = len(visible)
	}

	for i := m.Offset; i < end; i++ {
		g := visible[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := "  "
		if m.Marked[g] {
			mark = listMarkedStyle.Render(iconSuccess) + " "
		}

		line := cursor + mark + g
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else if m.Marked[g] {
			b.WriteString(listMarkedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d marked", m.Cursor+1, len(visible), len(m.Marked))))

	return b.String()
}

// pickGenes runs the interactive gene picker and returns the chosen genes.
func pickGenes(ds *dataset.Dataset) ([]string, error) {
	model := NewGeneListModel(ds)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, fmt.Errorf("run gene picker: %w", err)
	}
	result, ok := final.(GeneListModel)
	if !ok || len(result.Selected) == 0 {
		return nil, fmt.Errorf("no genes selected")
	}
	return result.Selected, nil
}
