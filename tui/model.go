package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tliron/commonlog"

	"github.com/chazu/semigrafx/vm"
)

var log = commonlog.GetLogger("semigrafx.tui")

var (
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	borderWidth = 1
)

type keyMap struct {
	Quit   key.Binding
	Reload key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
	Reload: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "reload"),
	),
}

// Reloader builds a fresh host for the same program, e.g. after the
// program file changed.
type Reloader func() (*vm.Host, error)

// Model is the bubbletea model driving one host. Input goes through the
// dispatcher first; only what it passes through reaches the shell's own
// key bindings.
type Model struct {
	host       *vm.Host
	dispatcher *vm.Dispatcher
	screen     *Screen
	reload     Reloader
	err        error
}

// Option configures a Model.
type Option func(*Model)

// WithReloader enables the reload binding.
func WithReloader(r Reloader) Option {
	return func(m *Model) { m.reload = r }
}

// New creates a model for host. The model becomes the host's render
// target; host may be started already or not.
func New(host *vm.Host, opts ...Option) *Model {
	m := &Model{screen: NewScreen()}
	for _, opt := range opts {
		opt(m)
	}
	m.attach(host)
	return m
}

func (m *Model) attach(host *vm.Host) {
	m.host = host
	m.dispatcher = vm.NewDispatcher(host)
	host.SetTarget(m.screen)
	m.err = nil
	if host.State() == vm.Uninitialized {
		m.err = host.Start()
	}
}

// Host returns the host currently shown.
func (m *Model) Host() *vm.Host {
	return m.host
}

// Screen returns the render target.
func (m *Model) Screen() *Screen {
	return m.screen
}

// Err returns the last error reported by the host.
func (m *Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		consumed, err := m.dispatcher.KeyDown(KeyEvent(msg))
		m.record(err)
		if consumed {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Reload):
			m.doReload()
		}
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		ev, ok := PointerEvent(msg)
		if !ok {
			return m, nil
		}
		_, err := m.dispatcher.PointerDown(ev)
		m.record(err)
	}
	return m, nil
}

func (m *Model) record(err error) {
	if err != nil {
		m.err = err
		log.Errorf("%s: %s", m.host.Name(), err)
	}
}

func (m *Model) doReload() {
	if m.reload == nil {
		return
	}
	host, err := m.reload()
	if err != nil {
		m.err = fmt.Errorf("reload: %w", err)
		return
	}
	m.host.Teardown()
	m.attach(host)
	log.Infof("reloaded %s", host.Name())
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(frameStyle.Render(strings.Join(m.screen.Lines(), "\n")))
	b.WriteString("\n")
	b.WriteString(m.status())
	return b.String()
}

func (m *Model) status() string {
	caps := m.host.Capabilities()
	var handlers []string
	if caps.MouseDown {
		handlers = append(handlers, "mouse")
	}
	if caps.KeyDown {
		handlers = append(handlers, "keys")
	}
	line := fmt.Sprintf("%s  %s", titleStyle.Render(m.host.Name()), m.host.State())
	if len(handlers) > 0 {
		line += " [" + strings.Join(handlers, ",") + "]"
	}
	if m.err != nil {
		line += "  " + errorStyle.Render(m.err.Error())
	}
	help := keys.Quit.Help().Key + " " + keys.Quit.Help().Desc
	if m.reload != nil {
		help += " • " + keys.Reload.Help().Key + " " + keys.Reload.Help().Desc
	}
	return line + "\n" + helpStyle.Render(help)
}

// ---------------------------------------------------------------------------
// Input translation
// ---------------------------------------------------------------------------

// KeyEvent translates a terminal key press into a dispatcher event. Letters
// map to their upper-case code with shift set for capitals; ctrl+letter
// keeps the letter code with ctrl set.
func KeyEvent(msg tea.KeyMsg) vm.KeyEvent {
	ev := vm.KeyEvent{Alt: msg.Alt}
	switch {
	case msg.Type == tea.KeySpace:
		ev.KeyCode = vm.KeySpace
	case msg.Type == tea.KeyEnter:
		ev.KeyCode = 13
	case msg.Type == tea.KeyTab:
		ev.KeyCode = 9
	case msg.Type == tea.KeyEsc:
		ev.KeyCode = 27
	case msg.Type == tea.KeyBackspace:
		ev.KeyCode = 8
	case msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ:
		ev.KeyCode = vm.KeyA + int(msg.Type-tea.KeyCtrlA)
		ev.Ctrl = true
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		r := msg.Runes[0]
		switch {
		case r >= 'a' && r <= 'z':
			ev.KeyCode = int(unicode.ToUpper(r))
		case r >= 'A' && r <= 'Z':
			ev.KeyCode = int(r)
			ev.Shift = true
		case r == ' ':
			ev.KeyCode = vm.KeySpace
		default:
			ev.KeyCode = int(r)
		}
	}
	return ev
}

// PointerEvent translates a terminal mouse position into a slot event.
// Positions on the border or outside the grid report ok=false.
func PointerEvent(msg tea.MouseMsg) (vm.PointerEvent, bool) {
	x := msg.X - borderWidth
	y := msg.Y - borderWidth
	if x < 0 || y < 0 {
		return vm.PointerEvent{}, false
	}
	ev := vm.PointerEvent{Row: y, Col: x / TileWidth, Shift: msg.Shift, Alt: msg.Alt}
	if ev.Row >= vm.GridSize || ev.Col >= vm.GridSize {
		return vm.PointerEvent{}, false
	}
	return ev, true
}

// Run shows host in the terminal until the user quits.
func Run(host *vm.Host, opts ...tea.ProgramOption) error {
	return RunModel(New(host), opts...)
}

// RunModel runs a prepared model.
func RunModel(m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}
