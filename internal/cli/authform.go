package cli

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Auth form fields, in tab order. Sign-in shows only the first two.
const (
	fieldEmail = iota
	fieldPassword
	fieldFullName
	fieldWebsite
	fieldCount
)

// authForm is a submitted sign-in or sign-up.
type authForm struct {
	signUp   bool
	email    string
	password string
	fullName string
	website  string
}

// authModel is the sign-in / sign-up screen.
type authModel struct {
	inputs  []textinput.Model
	focused int
	signUp  bool
	loading bool
	err     string
}

func newAuthModel() authModel {
	m := authModel{inputs: make([]textinput.Model, fieldCount)}
	for i := range m.inputs {
		in := textinput.New()
		in.CharLimit = 200
		in.Width = 40
		in.Prompt = ""
		m.inputs[i] = in
	}
	m.inputs[fieldEmail].Placeholder = "you@company.com"
	m.inputs[fieldPassword].Placeholder = "at least 6 characters"
	m.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	m.inputs[fieldPassword].EchoCharacter = '•'
	m.inputs[fieldFullName].Placeholder = "Ada Lovelace"
	m.inputs[fieldWebsite].Placeholder = "example.com (optional)"
	return m
}

// fields is the number of inputs in the current mode.
func (a authModel) fields() int {
	if a.signUp {
		return fieldCount
	}
	return fieldPassword + 1
}

func (a *authModel) focus() tea.Cmd {
	for i := range a.inputs {
		a.inputs[i].Blur()
	}
	return a.inputs[a.focused].Focus()
}

func (a *authModel) move(delta int) tea.Cmd {
	n := a.fields()
	a.focused = ((a.focused+delta)%n + n) % n
	return a.focus()
}

func (a authModel) form() authForm {
	return authForm{
		signUp:   a.signUp,
		email:    strings.TrimSpace(a.inputs[fieldEmail].Value()),
		password: a.inputs[fieldPassword].Value(),
		fullName: a.inputs[fieldFullName].Value(),
		website:  a.inputs[fieldWebsite].Value(),
	}
}

func (m appModel) updateAuth(msg tea.Msg) (appModel, tea.Cmd) {
	a := &m.auth
	switch msg := msg.(type) {
	case authDoneMsg:
		// Success arrives as a sessionMsg from the manager.
		a.loading = false
		a.err = errorText(msg.err)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.screen = screenLanding
			return m, nil
		case "ctrl+t":
			a.signUp = !a.signUp
			a.err = ""
			a.focused = min(a.focused, a.fields()-1)
			return m, a.focus()
		case "tab", "down":
			return m, a.move(1)
		case "shift+tab", "up":
			return m, a.move(-1)
		case "enter":
			if a.focused < a.fields()-1 {
				return m, a.move(1)
			}
			if a.loading {
				return m, nil
			}
			a.loading, a.err = true, ""
			return m, m.submitAuth(a.form())
		}
	}

	var cmd tea.Cmd
	a.inputs[a.focused], cmd = a.inputs[a.focused].Update(msg)
	return m, cmd
}

var (
	authLabelStyle   = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	authFocusStyle   = lipgloss.NewStyle().Foreground(colorPurple).Width(12)
	authErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	authPanelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPurple).Padding(1, 2)
	authHeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
)

var authLabels = [fieldCount]string{"Email", "Password", "Full name", "Website"}

func (a authModel) View() string {
	var b strings.Builder
	title, toggle := "Welcome back", "No account yet? ctrl+t to sign up"
	if a.signUp {
		title, toggle = "Create your account", "Have an account? ctrl+t to sign in"
	}
	b.WriteString(authHeadingStyle.Render(title) + "\n\n")
	for i := 0; i < a.fields(); i++ {
		label := authLabelStyle
		if i == a.focused {
			label = authFocusStyle
		}
		b.WriteString(label.Render(authLabels[i]) + " " + a.inputs[i].View() + "\n")
	}
	b.WriteString("\n")
	switch {
	case a.loading:
		b.WriteString(StyleDim.Render("Signing in..."))
	case a.err != "":
		b.WriteString(authErrorStyle.Render(iconError + " " + a.err))
	}
	b.WriteString("\n\n" + StyleDim.Render(toggle) + "\n")
	b.WriteString(StyleDim.Render("tab next field · enter submit · esc back"))
	return authPanelStyle.Render(b.String())
}
