// Package tui is a terminal form for asking setup questions.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"racing-setup-rag/internal/models"
)

// Adviser is the TUI-facing subset of the request facade
type Adviser interface {
	Advise(ctx context.Context, req models.AdviceRequest) (*models.Advice, error)
}

const (
	questionField = iota
	telemetryField
)

// adviceMsg carries the facade's answer back into the update loop
type adviceMsg struct {
	advice *models.Advice
	err    error
}

// Model is the Bubble Tea model for the setup form
type Model struct {
	ctx      context.Context
	adviser  Adviser
	inputs   []textinput.Model
	focus    int
	spinner  spinner.Model
	viewport viewport.Model
	busy     bool
	ready    bool
	status   string
}

// New creates the form with the question field focused
func New(ctx context.Context, adviser Adviser) Model {
	question := textinput.New()
	question.Prompt = "Question  > "
	question.Placeholder = "e.g. My dirt midget is loose on entry"
	question.CharLimit = 0
	question.Focus()

	telemetry := textinput.New()
	telemetry.Prompt = "Telemetry > "
	telemetry.Placeholder = "optional CSV path"
	telemetry.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		ctx:      ctx,
		adviser:  adviser,
		inputs:   []textinput.Model{question, telemetry},
		spinner:  sp,
		viewport: viewport.New(0, 0),
		status:   "Enter submits, Tab switches field, Esc quits.",
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles keys, window size, spinner ticks and answers
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := answerBoxStyle.GetFrameSize()
		reserved := 1 + len(m.inputs) + 1 + 1 // header, inputs, spacer, status
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-fh)
		for i := range m.inputs {
			m.inputs[i].Width = max(10, msg.Width-14)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % len(m.inputs)
			for i := range m.inputs {
				if i == m.focus {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, textinput.Blink
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			m.busy = true
			m.status = "Thinking..."
			req := models.AdviceRequest{
				Question:      m.inputs[questionField].Value(),
				TelemetryPath: strings.TrimSpace(m.inputs[telemetryField].Value()),
			}
			return m, tea.Batch(m.spinner.Tick, m.ask(req))
		}

	case adviceMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Setup Advice (%d sources)", len(msg.advice.Sources))
		m.viewport.SetContent(renderAdvice(msg.advice))
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) ask(req models.AdviceRequest) tea.Cmd {
	return func() tea.Msg {
		advice, err := m.adviser.Advise(m.ctx, req)
		return adviceMsg{advice: advice, err: err}
	}
}

// View renders the form, the answer box and the status line
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("iRacing Setup Assistant"))
	b.WriteString("\n")
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString(answerBoxStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(statusStyle.Render(m.status))
	return b.String()
}

func renderAdvice(a *models.Advice) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.Answer))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(strings.TrimSpace(a.Telemetry)))
	if len(a.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("Sources:"))
		for _, d := range a.Sources {
			b.WriteString("\n")
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s  score=%.3f", d.Source, d.Score)))
		}
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)
