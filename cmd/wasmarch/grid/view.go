package grid

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// cell is the text drawn for one grid cell. Two columns make cells roughly square.
const cell = "  "

type keyMap struct {
	Pause key.Binding
	Step  key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Step, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Pause: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause")),
	Step:  key.NewBinding(key.WithKeys("s", "right"), key.WithHelp("s", "step")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

type model struct {
	program  *Program
	grid     *Grid
	interval time.Duration
	paused   bool
	help     help.Model
	err      error
}

func newModel(p *Program, fps int) (*model, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	g, err := p.Grid()
	if err != nil {
		return nil, err
	}
	return &model{
		program:  p,
		grid:     g,
		interval: time.Second / time.Duration(fps),
		help:     help.New(),
	}, nil
}

func (m *model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	return m.tick()
}

// step advances the program by one frame. It returns false if the program failed.
func (m *model) step() bool {
	if err := m.program.Step(); err != nil {
		m.err = err
		return false
	}
	g, err := m.program.Grid()
	if err != nil {
		m.err = err
		return false
	}
	m.grid = g
	return true
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, keys.Step):
			if m.paused && !m.step() {
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tickMsg:
		if !m.paused && !m.step() {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("[wasmarch] grid %dx%d", m.grid.Width, m.grid.Height)))
	status := fmt.Sprintf(" frame %d", m.program.Frames())
	if m.paused {
		status += " (paused)"
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n\n")

	for y := 0; y < m.grid.Height; y++ {
		for x := 0; x < m.grid.Width; x++ {
			color := lipgloss.Color(fmt.Sprintf("#%06x", m.grid.At(x, y)))
			b.WriteString(lipgloss.NewStyle().Background(color).Render(cell))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

// Run shows p in the terminal, computing fps frames per second until the user quits or a frame fails.
func Run(p *Program, fps int) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ErrNotTerminal
	}

	m, err := newModel(p, fps)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	return final.(*model).err
}
