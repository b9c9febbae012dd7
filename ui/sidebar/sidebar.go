package sidebar

import (
	"fmt"
	"strings"

	"fakeshades/device/shades"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// statsLines is how many rows the decoder counters take at the bottom
const statsLines = 4

// Model holds the sidebar's state
type Model struct {
	width  int
	height int
	frames []string // Most recent first
	stats  shades.Stats
}

// New creates a new sidebar model
func New() Model {
	return Model{
		width:  20, // Default
		height: 24, // Default
		frames: make([]string, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// AddFrame records a decoded frame at the top of the list
func (m *Model) AddFrame(columns, rows int, stats shades.Stats) {
	m.stats = stats
	m.frames = append([]string{fmt.Sprintf("#%d %dx%d", stats.Frames, columns, rows)}, m.frames...)
	m.trim()
}

// Stats returns the last counters shown
func (m Model) Stats() shades.Stats {
	return m.stats
}

// Frames returns the frame log, newest first
func (m Model) Frames() []string {
	return m.frames
}

// Reset clears the log for a new session
func (m *Model) Reset() {
	m.frames = m.frames[:0]
	m.stats = shades.Stats{}
}

// maxFrames is the inner height minus the header line, the stats block
// and the blank line above it.
func (m Model) maxFrames() int {
	n := m.height - 2 - 1 - statsLines - 1
	if n < 1 {
		n = 1
	}
	return n
}

func (m *Model) trim() {
	if limit := m.maxFrames(); len(m.frames) > limit {
		m.frames = m.frames[:limit]
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trim()
	}
	return m, nil
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("130")).
		Width(m.width - 2).
		Height(m.height - 2).
		Padding(0, 1)

	innerWidth := m.width - 2 - 2 // -2 border, -2 padding
	if innerWidth < 1 {
		innerWidth = 1
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		Width(innerWidth).
		Render("Frames")

	lines := []string{header}
	for i, f := range m.frames {
		if i >= m.maxFrames() {
			break
		}
		lines = append(lines, fmt.Sprintf("%.*s", innerWidth, f))
	}

	// Pad so the counters sit at the bottom of the box
	for len(lines) < m.height-2-statsLines {
		lines = append(lines, "")
	}
	lines = append(lines,
		fmt.Sprintf("%.*s", innerWidth, fmt.Sprintf("frames  %d", m.stats.Frames)),
		fmt.Sprintf("%.*s", innerWidth, fmt.Sprintf("desyncs %d", m.stats.Desyncs)),
		fmt.Sprintf("%.*s", innerWidth, fmt.Sprintf("aborted %d", m.stats.Aborted)),
		fmt.Sprintf("%.*s", innerWidth, fmt.Sprintf("bytes   %d", m.stats.Bytes)),
	)

	return style.Render(strings.Join(lines, "\n"))
}
