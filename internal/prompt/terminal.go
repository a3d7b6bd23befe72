package prompt

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xcawolfe-amzn/hiscore/internal/style"
)

// KeyMap defines the key bindings shared by the question programs.
type KeyMap struct {
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Submit key.Binding
	Cancel key.Binding
	Abort  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "no"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("left", "right", "tab", "h", "l"),
			key.WithHelp("←/→", "choose"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Abort: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// Terminal asks questions with short-lived bubbletea programs.
type Terminal struct {
	in   io.Reader
	out  io.Writer
	keys KeyMap
}

// NewTerminal creates a Terminal prompter on the given streams.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, keys: DefaultKeyMap()}
}

// AskYesNo shows message under title and waits for a yes or no.
func (t *Terminal) AskYesNo(ctx context.Context, message, title string) (bool, error) {
	m, err := t.run(ctx, newConfirmModel(t.keys, title, message))
	if err != nil {
		return false, err
	}
	cm := m.(*confirmModel)
	if cm.aborted {
		return false, interrupted("confirm")
	}
	return cm.answered && cm.yes, nil
}

// AskText asks for free text. ok is false when the player pressed esc.
func (t *Terminal) AskText(ctx context.Context, message string) (string, bool, error) {
	return t.askInput(ctx, "", message, "", "")
}

// AskName asks for the name to record with score.
func (t *Terminal) AskName(ctx context.Context, score int, prompt string) (string, error) {
	text, ok, err := t.askInput(ctx, NameTitle(score), prompt, NamePlaceholder, "")
	if err != nil {
		return "", err
	}
	return normalizeName(text, ok), nil
}

// AskScore asks for a score to enter.
func (t *Terminal) AskScore(ctx context.Context, prompt string) (int, error) {
	text, ok, err := t.askInput(ctx, "Enter a score", prompt, "", DefaultScore)
	if err != nil {
		return 0, err
	}
	return parseScore(text, ok), nil
}

func (t *Terminal) askInput(ctx context.Context, title, message, placeholder, value string) (string, bool, error) {
	m, err := t.run(ctx, newInputModel(t.keys, title, message, placeholder, value))
	if err != nil {
		return "", false, err
	}
	im := m.(*inputModel)
	if im.aborted {
		return "", false, interrupted("input")
	}
	return im.input.Value(), im.submitted, nil
}

func (t *Terminal) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
			return nil, interrupted("prompt")
		}
		return nil, err
	}
	return final, nil
}

// confirmModel is a yes/no question.
type confirmModel struct {
	keys     KeyMap
	help     help.Model
	title    string
	message  string
	yes      bool
	answered bool
	aborted  bool
}

func newConfirmModel(keys KeyMap, title, message string) *confirmModel {
	return &confirmModel{keys: keys, help: help.New(), title: title, message: message, yes: true}
}

// Init initializes the model.
func (m *confirmModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Abort):
		m.aborted = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Yes):
		m.yes, m.answered = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.No), key.Matches(keyMsg, m.keys.Cancel):
		m.yes, m.answered = false, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Toggle):
		m.yes = !m.yes
	case key.Matches(keyMsg, m.keys.Submit):
		m.answered = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the question.
func (m *confirmModel) View() string {
	if m.answered || m.aborted {
		return ""
	}
	yes, no := style.Dim.Render(" Yes "), style.Dim.Render(" No ")
	if m.yes {
		yes = style.Selected.Render(" Yes ")
	} else {
		no = style.Selected.Render(" No ")
	}

	var sb strings.Builder
	if m.title != "" {
		sb.WriteString(style.Bold.Render(m.title) + "\n")
	}
	sb.WriteString(m.message + "\n\n")
	sb.WriteString("  " + yes + "  " + no + "\n\n")
	sb.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.Yes, m.keys.No, m.keys.Toggle, m.keys.Submit}) + "\n")
	return sb.String()
}

// inputModel is a single-line text question.
type inputModel struct {
	keys      KeyMap
	help      help.Model
	title     string
	message   string
	input     textinput.Model
	submitted bool
	dismissed bool
	aborted   bool
}

func newInputModel(keys KeyMap, title, message, placeholder, value string) *inputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 64
	ti.Width = 40
	ti.SetValue(value)
	ti.Focus()
	return &inputModel{keys: keys, help: help.New(), title: title, message: message, input: ti}
}

// Init starts the cursor blinking.
func (m *inputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and forwards the rest to the text field.
func (m *inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Abort):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Cancel):
			m.dismissed = true
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Submit):
			m.submitted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the question and the text field.
func (m *inputModel) View() string {
	if m.submitted || m.dismissed || m.aborted {
		return ""
	}
	var sb strings.Builder
	if m.title != "" {
		sb.WriteString(style.Bold.Render(m.title) + "\n")
	}
	if m.message != "" {
		sb.WriteString(m.message + "\n\n")
	}
	sb.WriteString(m.input.View() + "\n\n")
	sb.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.Submit, m.keys.Cancel}) + "\n")
	return sb.String()
}
