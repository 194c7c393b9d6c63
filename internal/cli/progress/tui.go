package progress

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/flowcraft-dev/flowcraft/pkg/runner"
)

var (
	styleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	stylePending = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// tuiReporter drives a bubbletea program, one Update() call at a time, by
// sending events through a channel the program's model consumes. The
// Runner calls back from the goroutine running each node (several at
// once under RunParallel), so events are forwarded via tea.Program.Send,
// which any goroutine may call, rather than a model method call.
type tuiReporter struct {
	program *tea.Program
	done    chan struct{}
}

func newTUIReporter(out *os.File, logger *slog.Logger) *tuiReporter {
	m := newModel()
	p := tea.NewProgram(m, tea.WithOutput(out))
	r := &tuiReporter{program: p, done: make(chan struct{})}

	go func() {
		defer close(r.done)
		if _, err := p.Run(); err != nil && logger != nil {
			logger.Warn("progress TUI exited with error", "error", err)
		}
	}()

	return r
}

func (r *tuiReporter) Start(nodeNames []string) {
	r.program.Send(startMsg{nodeNames: nodeNames})
}

func (r *tuiReporter) Update(event runner.ProgressEvent) {
	r.program.Send(event)
}

func (r *tuiReporter) Finish(runErr error) {
	r.program.Send(finishMsg{err: runErr})
	r.program.Quit()
	<-r.done
}

type startMsg struct{ nodeNames []string }
type finishMsg struct{ err error }

type nodeState struct {
	name   string
	status runner.NodeStatus
	err    error
}

type model struct {
	order   []string
	state   map[string]*nodeState
	spinner spinner.Model
	done    bool
	err     error
}

func newModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleRunning
	return model{state: map[string]*nodeState{}, spinner: s}
}

func (m model) Init() tea.Cmd { return m.spinner.Tick }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case startMsg:
		m.order = v.nodeNames
		for _, n := range v.nodeNames {
			m.state[n] = &nodeState{name: n, status: "pending"}
		}
	case runner.ProgressEvent:
		st, ok := m.state[v.NodeName]
		if !ok {
			st = &nodeState{name: v.NodeName}
			m.state[v.NodeName] = st
			m.order = append(m.order, v.NodeName)
		}
		st.status = v.Status
		st.err = v.Err
	case finishMsg:
		m.done = true
		m.err = v.err
		return m, tea.Quit
	case tea.KeyMsg:
		if v.String() == "ctrl+c" || v.String() == "q" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(v)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	out := ""
	for _, n := range m.order {
		st := m.state[n]
		if st == nil {
			continue
		}
		out += m.renderLine(st) + "\n"
	}
	if m.done {
		if m.err != nil {
			out += styleFailed.Render(fmt.Sprintf("run failed: %v", m.err)) + "\n"
		} else {
			out += styleOK.Render("run complete") + "\n"
		}
	}
	return out
}

func (m model) renderLine(st *nodeState) string {
	switch st.status {
	case runner.NodeRunning:
		return fmt.Sprintf("  %s running  %s", m.spinner.View(), st.name)
	case runner.NodeOK:
		return styleOK.Render(fmt.Sprintf("  ok       %s", st.name))
	case runner.NodeFailed:
		return styleFailed.Render(fmt.Sprintf("  failed   %s: %v", st.name, st.err))
	default:
		return stylePending.Render(fmt.Sprintf("  pending  %s", st.name))
	}
}
