package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/orbweave/orbweave/pkg/layout"
)

// Messages driving the arrangement progress UI.
type (
	progressMsg float64
	doneMsg     struct{ err error }
)

// arrangeModel is the bubbletea model showing a live progress bar while
// an arrangement runs.
type arrangeModel struct {
	label     string
	msgs      <-chan tea.Msg
	fraction  float64
	err       error
	cancelled bool
	width     int
}

func newArrangeModel(label string, msgs <-chan tea.Msg) arrangeModel {
	return arrangeModel{label: label, msgs: msgs, width: 40}
}

func (m arrangeModel) Init() tea.Cmd {
	return m.wait()
}

// wait blocks for the next progress or completion message.
func (m arrangeModel) wait() tea.Cmd {
	return func() tea.Msg { return <-m.msgs }
}

func (m arrangeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.fraction = float64(msg)
		return m, m.wait()
	case doneMsg:
		m.err = msg.err
		m.fraction = 1
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if w := msg.Width - len(m.label) - 12; w > 10 {
			m.width = min(w, 60)
		}
	}
	return m, nil
}

func (m arrangeModel) View() string {
	if m.err != nil || m.cancelled {
		return ""
	}

	filled := int(m.fraction * float64(m.width))
	if filled > m.width {
		filled = m.width
	}
	bar := styleBarFilled.Render(strings.Repeat("█", filled)) +
		styleBarEmpty.Render(strings.Repeat("░", m.width-filled))

	return fmt.Sprintf("%s %s %s\n",
		StyleDim.Render(m.label),
		bar,
		StyleDim.Render(fmt.Sprintf("%3.0f%%", m.fraction*100)))
}

// runWithProgressUI executes run while showing a progress bar. run
// receives a progress callback wired into the UI; it is executed on a
// separate goroutine while bubbletea owns the terminal.
func runWithProgressUI(label string, run func(progress layout.ProgressFunc) error) error {
	msgs := make(chan tea.Msg, 16)
	go feedProgress(msgs, run)

	p := tea.NewProgram(newArrangeModel(label, msgs))
	final, err := p.Run()
	if err != nil {
		return err
	}
	model := final.(arrangeModel)
	if model.cancelled {
		// Keep draining so the abandoned worker can finish its sends;
		// the loop ends when feedProgress closes the channel.
		go func() {
			for range msgs {
			}
		}()
		return fmt.Errorf("cancelled")
	}
	return model.err
}

// feedProgress runs the arrangement and forwards its progress stream as
// UI messages, closing msgs after the terminal message so any late
// consumer can drain to completion.
func feedProgress(msgs chan tea.Msg, run func(progress layout.ProgressFunc) error) {
	err := run(func(f float64) {
		// Drop updates rather than stall the simulation when the UI
		// cannot keep up.
		select {
		case msgs <- progressMsg(f):
		default:
		}
	})
	msgs <- doneMsg{err: err}
	close(msgs)
}
