package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pkgtally/pkg/config"
	"github.com/matzehuels/pkgtally/pkg/report"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PackageListModel - Interactive package selection
// =============================================================================

// PackageListModel is the bubbletea model for selecting which packages to
// include in a run.
type PackageListModel struct {
	Packages  []config.Package
	Cursor    int
	Checked   map[int]bool
	Confirmed bool
	Height    int
	Offset    int
}

// NewPackageListModel creates a package list model with every package
// checked.
func NewPackageListModel(packages []config.Package) PackageListModel {
	checked := make(map[int]bool, len(packages))
	for i := range packages {
		checked[i] = true
	}
	return PackageListModel{
		Packages: packages,
		Checked:  checked,
		Height:   15,
	}
}

// Selected returns the checked packages in their configured order.
func (m PackageListModel) Selected() []config.Package {
	if !m.Confirmed {
		return nil
	}
	var selected []config.Package
	for i, pkg := range m.Packages {
		if m.Checked[i] {
			selected = append(selected, pkg)
		}
	}
	return selected
}

func (m PackageListModel) Init() tea.Cmd {
	return nil
}

func (m PackageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Packages)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ":
			m.Checked[m.Cursor] = !m.Checked[m.Cursor]
		case "a":
			all := true
			for i := range m.Packages {
				if !m.Checked[i] {
					all = false
					break
				}
			}
			for i := range m.Packages {
				m.Checked[i] = !all
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m PackageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Packages"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ␣ toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Packages) {
		end = len(m.Packages)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		pkg := m.Packages[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		check := " "
		if m.Checked[i] {
			check = "✓"
		}

		baseline := "—"
		if pkg.Java.Count > 0 {
			baseline = fmt.Sprintf("%s @ %s", report.FormatCount(pkg.Java.Count), pkg.Java.Cutover)
		}
		rows = append(rows, []string{cursor + check, pkg.Name, pkg.NuGetID(), baseline})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "NuGet ID", "Java baseline").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Packages) {
				return lipgloss.NewStyle()
			}
			isCurrent := actualIdx == m.Cursor

			base := lipgloss.NewStyle()
			if isCurrent {
				if m.Checked[actualIdx] {
					return base.Foreground(colorGreen).Bold(true)
				}
				return base.Foreground(colorDim).Bold(true)
			}
			if m.Checked[actualIdx] {
				return base.Foreground(colorGreen)
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Packages))))

	return b.String()
}

// pickPackages runs the interactive selector and returns the chosen
// packages. Quitting without confirming returns an empty selection.
func pickPackages(packages []config.Package) ([]config.Package, error) {
	program := tea.NewProgram(NewPackageListModel(packages))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("package selection: %w", err)
	}
	model, ok := final.(PackageListModel)
	if !ok {
		return nil, fmt.Errorf("package selection: unexpected model type")
	}
	return model.Selected(), nil
}
