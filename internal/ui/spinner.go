package ui

// spinner.go provides a blocking spinner around a long-running action.

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// actionDoneMsg signals the action completed
type actionDoneMsg struct {
	err error
}

type reportMsg string

// blockingSpinnerModel runs a spinner while an action executes
type blockingSpinnerModel struct {
	spinner     spinner.Model
	title       string
	action      func() error
	onInterrupt func()
	done        bool
	interrupted bool
	err         error
}

// RunWithSpinner executes action while displaying a spinner and returns the action's error.
// The action may call report to print a line above the spinner.
// ctrl+c calls onInterrupt (typically a context cancel) and keeps spinning until action returns,
// so the action never outlives the call.
//
// Example:
//
//	err := RunWithSpinner("Fetching ads...", func(report func(string)) error {
//	    for batch, err := range seq {
//	        if err != nil {
//	            return err
//	        }
//	        report(FormatBatch(batch))
//	    }
//	    return nil
//	}, cancel)
func RunWithSpinner(title string, action func(report func(string)) error, onInterrupt func()) error {
	var p *tea.Program
	report := func(line string) {
		p.Send(reportMsg(line))
	}

	m := blockingSpinnerModel{
		spinner:     NewAppSpinner(),
		title:       title,
		action:      func() error { return action(report) },
		onInterrupt: onInterrupt,
	}

	p = tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("spinner program error: %w", err)
	}

	final := finalModel.(blockingSpinnerModel)
	return final.err
}

func (m blockingSpinnerModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.runAction(),
	)
}

func (m blockingSpinnerModel) runAction() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.action()}
	}
}

func (m blockingSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case reportMsg:
		return m, tea.Println(string(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// Allow ctrl+c to cancel
		if msg.String() == "ctrl+c" && !m.interrupted {
			m.interrupted = true
			m.title = "Cancelling..."
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
		}
	}

	return m, nil
}

func (m blockingSpinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), RenderNormal(m.title))
}
