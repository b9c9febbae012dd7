package statusbar

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Status is the connection state shown to the user
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

// Model holds the status bar's state
type Model struct {
	width   int
	device  string
	baud    int
	status  Status
	message string
}

// New creates a new status bar model
func New(device string, baud int) Model {
	return Model{
		width:   80,
		device:  device,
		baud:    baud,
		status:  StatusDisconnected,
		message: "Disconnected",
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// SetPort updates the port and baud shown
func (m *Model) SetPort(device string, baud int) {
	m.device = device
	m.baud = baud
}

// SetStatus sets the state and the text next to it
func (m *Model) SetStatus(s Status, message string) {
	m.status = s
	m.message = message
}

// Status returns the current state
func (m Model) Status() Status {
	return m.status
}

// Message returns the current status text
func (m Model) Message() string {
	return m.message
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m Model) View() string {
	var color lipgloss.Color
	switch m.status {
	case StatusConnected:
		color = lipgloss.Color("10") // Green
	case StatusConnecting:
		color = lipgloss.Color("11") // Yellow
	case StatusError:
		color = lipgloss.Color("9") // Red
	default:
		color = lipgloss.Color("245")
	}

	device := m.device
	if device == "" {
		device = "(no port)"
	}
	left := fmt.Sprintf(" %s @ %d ", device, m.baud)
	status := lipgloss.NewStyle().Bold(true).Foreground(color).Render(m.message)
	keys := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).
		Render(" c connect  b baud  p port  q quit")

	bar := lipgloss.JoinHorizontal(lipgloss.Top, left, status, keys)
	return lipgloss.NewStyle().Width(m.width).MaxWidth(m.width).Render(bar)
}
