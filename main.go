package main

import (
	"flag"
	"fmt"
	"os"

	"fakeshades/config"
	"fakeshades/device/shades"
	"fakeshades/logging"
	"fakeshades/ui/header"
	"fakeshades/ui/matrixview"
	"fakeshades/ui/sidebar"
	"fakeshades/ui/statusbar"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

const appName = "FakeShades"

// --- Constants for Layout ---
const (
	sidebarWidth    = 22
	headerHeight    = 1
	statusbarHeight = 1
)

// sessionEventMsg carries one event from the session that produced it
type sessionEventMsg struct {
	session *shades.Session
	events  <-chan shades.Event
	event   shades.Event
}

// sessionClosedMsg is sent once a session's event channel is closed
type sessionClosedMsg struct {
	session *shades.Session
}

// portsMsg is the result of scanning for serial ports
type portsMsg struct {
	ports []string
	err   error
}

// model holds the application's state
type model struct {
	width  int
	height int
	config config.Config

	device string
	baud   int

	headerModel  header.Model
	matrixModel  matrixview.Model
	sidebarModel sidebar.Model
	statusModel  statusbar.Model

	// newSession builds the session for the current port; tests swap it.
	newSession func(conf config.SerialConfig) *shades.Session
	session    *shades.Session
}

// initialModel creates the starting model
func initialModel(conf config.Config) model {
	return model{
		width:        80,
		height:       24,
		config:       conf,
		device:       conf.Serial.Device,
		baud:         conf.Serial.BaudRate,
		headerModel:  header.New(appName),
		matrixModel:  matrixview.New(conf.Display.Columns, conf.Display.Rows, conf.Display.Glyph),
		sidebarModel: sidebar.New(),
		statusModel:  statusbar.New(conf.Serial.Device, conf.Serial.BaudRate),
		newSession: func(c config.SerialConfig) *shades.Session {
			return shades.NewSession(c, nil)
		},
	}
}

// listenForEvents is a tea.Cmd that waits for the session's next event
func listenForEvents(s *shades.Session, events <-chan shades.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return sessionClosedMsg{session: s}
		}
		return sessionEventMsg{session: s, events: events, event: ev}
	}
}

// startSession runs the session worker and waits for its first event
func startSession(s *shades.Session, events chan shades.Event) tea.Cmd {
	return func() tea.Msg {
		go s.Start(events)
		return listenForEvents(s, events)()
	}
}

func scanPorts() tea.Msg {
	ports, err := shades.ListPorts()
	return portsMsg{ports: ports, err: err}
}

func (m model) Init() tea.Cmd {
	return nil
}

// connect starts a session for the selected port and baud rate
func (m model) connect() (model, tea.Cmd) {
	conf := m.config.Serial
	conf.Device = m.device
	conf.BaudRate = m.baud

	log.Info().Str("device", conf.Device).Int("baud", conf.BaudRate).Msg("connecting")

	events := make(chan shades.Event)
	m.session = m.newSession(conf)
	m.sidebarModel.Reset()
	m.statusModel.SetStatus(statusbar.StatusConnecting, "Connecting")
	return m, startSession(m.session, events)
}

// disconnect stops the current session; the last matrix stays on screen
func (m model) disconnect() model {
	if m.session != nil {
		m.session.Stop()
		m.session = nil
	}
	m.statusModel.SetStatus(statusbar.StatusDisconnected, "Disconnected")
	return m
}

func (m model) handleEvent(msg sessionEventMsg) (model, tea.Cmd) {
	// Events from a session we already dropped are ignored; not listening
	// any further lets its worker exit.
	if msg.session != m.session {
		return m, nil
	}

	ev := msg.event
	switch ev.Type {
	case shades.EventConnected:
		m.statusModel.SetStatus(statusbar.StatusConnected, ev.Message())

	case shades.EventMatrixReady:
		m.matrixModel, _ = m.matrixModel.Update(ev.Matrix)
		m.sidebarModel.AddFrame(ev.Matrix.Columns, ev.Matrix.Rows, ev.Stats)

	case shades.EventConnectionFailed:
		log.Warn().Err(ev.Err).Msg("connection failed")
		m.statusModel.SetStatus(statusbar.StatusError, ev.Message())
		m.session = nil
		return m, nil

	case shades.EventTransportError:
		log.Error().Err(ev.Err).Msg("transport error")
		m.statusModel.SetStatus(statusbar.StatusError, "Transport error: "+ev.Message())
		m.session = nil
		return m, nil
	}
	return m, listenForEvents(msg.session, msg.events)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		headerCmd  tea.Cmd
		matrixCmd  tea.Cmd
		sidebarCmd tea.Cmd
		statusCmd  tea.Cmd
		cmds       []tea.Cmd
	)

	switch msg := msg.(type) {
	case sessionEventMsg:
		var cmd tea.Cmd
		m, cmd = m.handleEvent(msg)
		cmds = append(cmds, cmd)

	case sessionClosedMsg:
		if msg.session == m.session {
			m.session = nil
			if m.statusModel.Status() != statusbar.StatusError {
				m.statusModel.SetStatus(statusbar.StatusDisconnected, "Disconnected")
			}
		}

	case portsMsg:
		m = m.selectNextPort(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		mainHeight := m.height - headerHeight - statusbarHeight
		matrixWidth := m.width - sidebarWidth
		if mainHeight < 1 {
			mainHeight = 1
		}

		m.headerModel, headerCmd = m.headerModel.Update(tea.WindowSizeMsg{Width: m.width, Height: headerHeight})
		m.sidebarModel, sidebarCmd = m.sidebarModel.Update(tea.WindowSizeMsg{Width: sidebarWidth, Height: mainHeight})
		m.matrixModel, matrixCmd = m.matrixModel.Update(tea.WindowSizeMsg{Width: matrixWidth, Height: mainHeight})
		m.statusModel, statusCmd = m.statusModel.Update(tea.WindowSizeMsg{Width: m.width, Height: statusbarHeight})

		cmds = append(cmds, headerCmd, sidebarCmd, matrixCmd, statusCmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m = m.disconnect()
			return m, tea.Quit

		case "c":
			if m.session != nil {
				m = m.disconnect()
				break
			}
			var cmd tea.Cmd
			m, cmd = m.connect()
			cmds = append(cmds, cmd)

		case "b":
			// Port settings are fixed while a session is open
			if m.session == nil {
				m.baud = config.NextBaudRate(m.baud)
				m.statusModel.SetPort(m.device, m.baud)
			}

		case "p":
			if m.session == nil {
				cmds = append(cmds, scanPorts)
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// selectNextPort moves to the port after the current one
func (m model) selectNextPort(msg portsMsg) model {
	if msg.err != nil {
		m.statusModel.SetStatus(statusbar.StatusError, msg.err.Error())
		return m
	}
	if len(msg.ports) == 0 {
		m.statusModel.SetStatus(statusbar.StatusError, "No serial ports found")
		return m
	}

	next := msg.ports[0]
	for i, p := range msg.ports {
		if p == m.device {
			next = msg.ports[(i+1)%len(msg.ports)]
			break
		}
	}
	m.device = next
	m.statusModel.SetPort(m.device, m.baud)
	return m
}

func (m model) View() string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top,
		m.sidebarModel.View(),
		m.matrixModel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerModel.View(),
		middle,
		m.statusModel.View(),
	)
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.toml")
	device := flag.String("device", "", "serial port or host:port, overrides config")
	baud := flag.Int("baud", 0, "baud rate, overrides config")
	autoConnect := flag.Bool("connect", false, "connect on startup")
	flag.Parse()

	logging.Init(os.Stderr, appName, logging.ParseLevel("info"))

	conf, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	if *device != "" {
		conf.Serial.Device = *device
	}
	if *baud != 0 {
		if err := config.ValidateBaudRate(*baud); err != nil {
			log.Fatal().Err(err).Msg("invalid -baud")
		}
		conf.Serial.BaudRate = *baud
	}

	logFile, err := logging.InitFile(conf.Log, appName)
	if err != nil {
		log.Fatal().Err(err).Str("file", conf.Log.File).Msg("failed to open log file")
	}
	defer logFile.Close()

	p := tea.NewProgram(initialModel(conf), tea.WithAltScreen())
	if *autoConnect {
		go p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	}
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}
