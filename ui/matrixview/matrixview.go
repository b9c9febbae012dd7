package matrixview

import (
	"fmt"
	"strings"

	"fakeshades/matrix"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model draws the most recent matrix as a grid of shaded glyphs
type Model struct {
	width  int
	height int

	glyph   string
	current *matrix.Matrix
	shades  [matrix.MaxBrightness + 1]lipgloss.Style
}

// New creates a view showing a blank columns x rows matrix until the
// first frame arrives.
func New(columns, rows int, glyph string) Model {
	if glyph == "" {
		glyph = "●"
	}
	m := Model{
		width:   80,
		height:  23,
		glyph:   glyph,
		current: matrix.New(columns, rows),
	}
	for level := range m.shades {
		// Same ramp the hardware uses: brightness * 17 gives 0..255.
		v := level * 17
		m.shades[level] = lipgloss.NewStyle().
			Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", v, v*3/4, 0)))
	}
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// Matrix returns the matrix being displayed
func (m Model) Matrix() *matrix.Matrix {
	return m.current
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case *matrix.Matrix:
		// Ownership moves to the view; the decoder never touches it again.
		if msg != nil {
			m.current = msg
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// renderCells draws the matrix row by row, row 0 at the top
func (m Model) renderCells(viewWidth, viewHeight int) string {
	if viewWidth <= 0 {
		viewWidth = 1
	}
	if viewHeight <= 0 {
		viewHeight = 1
	}

	// Leave a gap between cells when there is room for it
	cellWidth := 2
	if m.current.Columns*cellWidth > viewWidth {
		cellWidth = 1
	}
	visibleCols := viewWidth / cellWidth
	if visibleCols > m.current.Columns {
		visibleCols = m.current.Columns
	}
	visibleRows := viewHeight
	if visibleRows > m.current.Rows {
		visibleRows = m.current.Rows
	}

	var b strings.Builder
	for r := 0; r < visibleRows; r++ {
		for c := 0; c < visibleCols; c++ {
			b.WriteString(m.shades[m.current.At(c, r)].Render(m.glyph))
			if cellWidth == 2 {
				b.WriteRune(' ')
			}
		}
		if r < visibleRows-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("130")).
		Width(m.width - 2).
		Height(m.height - 2).
		Align(lipgloss.Center, lipgloss.Center)

	hBorders := style.GetBorderLeftSize() + style.GetBorderRightSize()
	vBorders := style.GetBorderTopSize() + style.GetBorderBottomSize()

	viewWidth := m.width - hBorders
	viewHeight := m.height - vBorders

	return style.Render(m.renderCells(viewWidth, viewHeight))
}
