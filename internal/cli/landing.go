package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/moto/pkg/audit"
)

// stickyAfterPx is how far the landing page scrolls before the booking bar
// appears. Rows count as cellH pixels.
const stickyAfterPx = 600

type feature struct{ tag, title, desc string }

var features = []feature{
	{"01", "Neural Processing", "Advanced patterns that adapt and evolve with your user data. We design sites that learn how to sell."},
	{"02", "Predictive Analytics", "Forecast trends and outcomes with industry-leading accuracy. Know what your buyers want before they do."},
	{"03", "Automated Workflows", "Intelligent automation that eliminates repetitive tasks and optimizes buyer journey paths in real-time."},
}

var (
	landingBadgeStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPurple)
	landingHeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	landingAccentStyle  = lipgloss.NewStyle().Italic(true).Foreground(colorPurple)
	landingBodyStyle    = lipgloss.NewStyle().Foreground(colorGray)
	stickyBarStyle      = lipgloss.NewStyle().Background(lipgloss.Color("54")).Foreground(colorWhite).Padding(0, 1)
	stickyButtonStyle   = lipgloss.NewStyle().Bold(true).Background(colorWhite).Foreground(lipgloss.Color("16")).Padding(0, 1)
)

// landingModel is the signed-out screen: pitch, features and the free
// audit form.
type landingModel struct {
	width    int
	height   int
	offset   int // first visible content row
	input    textinput.Model
	spin     spinner.Model
	loading  bool
	result   *audit.Result
	noResult bool
}

func newLandingModel() landingModel {
	in := textinput.New()
	in.Placeholder = "Describe your website or project (e.g. 'E-commerce store selling high-end headphones')"
	in.CharLimit = 500
	in.Prompt = "› "
	return landingModel{
		input: in,
		spin:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleIconSpinner)),
	}
}

// sticky reports whether the booking bar shows.
func (l landingModel) sticky() bool {
	return l.offset*cellH > stickyAfterPx
}

func (l *landingModel) scroll(delta int) {
	l.offset = max(l.offset+delta, 0)
	if n := len(l.lines()); l.offset > n-1 {
		l.offset = max(n-1, 0)
	}
}

// scrollToAudit brings the audit form into view and focuses it.
func (l *landingModel) scrollToAudit() tea.Cmd {
	for i, line := range l.lines() {
		if strings.Contains(line, "Free AI Conversion Audit") {
			l.offset = i
			break
		}
	}
	return l.input.Focus()
}

func (m appModel) updateLanding(msg tea.Msg) (appModel, tea.Cmd) {
	l := &m.landing
	switch msg := msg.(type) {
	case auditDoneMsg:
		l.loading = false
		l.noResult = !msg.ok
		if msg.ok {
			l.result = msg.res
		}
		return m, nil

	case spinner.TickMsg:
		if !l.loading {
			return m, nil
		}
		var cmd tea.Cmd
		l.spin, cmd = l.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			l.scroll(-1)
		case tea.MouseButtonWheelDown:
			l.scroll(1)
		}
		return m, nil

	case tea.KeyMsg:
		if l.input.Focused() {
			switch msg.String() {
			case "enter":
				desc := l.input.Value()
				if l.loading || strings.TrimSpace(desc) == "" {
					return m, nil
				}
				l.loading, l.noResult = true, false
				return m, tea.Batch(m.runAudit(desc), l.spin.Tick)
			case "esc", "tab":
				l.input.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			l.input, cmd = l.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "j", "down":
			l.scroll(1)
		case "k", "up":
			l.scroll(-1)
		case "pgdown", " ":
			l.scroll(max(l.height-2, 1))
		case "pgup":
			l.scroll(-max(l.height-2, 1))
		case "tab", "/":
			return m, l.scrollToAudit()
		case "b":
			if l.sticky() {
				return m, l.scrollToAudit()
			}
		case "s":
			m.screen = screenAuth
			return m, m.auth.focus()
		}
	}
	return m, nil
}

// lines renders the whole page, one terminal row per element.
func (l landingModel) lines() []string {
	w := max(min(l.width, 100)-4, 20)
	wrap := func(s lipgloss.Style, text string) []string {
		return strings.Split(s.Width(w).Render(text), "\n")
	}

	var out []string
	add := func(s ...string) { out = append(out, s...) }

	add("", landingBadgeStyle.Render("● MOTO GROWTH PROTOCOLS"), "")
	add(landingHeadingStyle.Render("Skills that ") + landingAccentStyle.Render("evolve") + landingHeadingStyle.Render(" with your brand."))
	add("")
	add(wrap(landingBodyStyle, "Precision engineering for high-converting digital products. We don't just build sites; we build automated machines that turn interest into revenue.")...)
	add("", StyleDim.Render("tab audit · s sign in · j/k scroll · q quit"), "", "")

	for _, f := range features {
		add(StyleDim.Render(f.tag) + "  " + landingHeadingStyle.Render(f.title))
		add(wrap(landingBodyStyle, f.desc)...)
		add("")
	}
	add("")

	add(landingHeadingStyle.Render("Free AI Conversion Audit"))
	add(wrap(landingBodyStyle, "Describe your site and get a conversion score with three recommendations.")...)
	add("", l.input.View(), "")
	switch {
	case l.loading:
		add(l.spin.View() + " " + StyleDim.Render("Analyzing..."))
	case l.noResult:
		add(StyleWarning.Render("No audit this time. Try again in a moment."))
	}
	if r := l.result; r != nil {
		add("", "Conversion score "+scoreStyle(r.Score).Render(fmt.Sprintf("%.0f/100", r.Score)), "")
		for i, rec := range r.Recommendations {
			add(wrap(StyleValue, fmt.Sprintf("%d. %s", i+1, rec))...)
		}
		if r.Tips != "" {
			add("")
			add(wrap(landingBodyStyle, r.Tips)...)
		}
	}
	add("", "", StyleDim.Render("© MOTO.AI"))
	return out
}

func (l landingModel) stickyBar() string {
	left := StyleWarning.Render("Limited Slots") + stickyBarStyle.Render("Ready to convert?")
	bar := lipgloss.JoinHorizontal(lipgloss.Center, left, " ", stickyButtonStyle.Render("Book My Audit (b)"))
	return stickyBarStyle.Width(max(l.width, lipgloss.Width(bar))).Render(bar)
}

func (l landingModel) View() string {
	if l.width == 0 {
		return ""
	}
	lines := l.lines()
	rows := max(l.height, 1)
	if l.sticky() {
		rows = max(rows-1, 1)
	}
	start := min(l.offset, len(lines))
	end := min(start+rows, len(lines))
	view := strings.Join(lines[start:end], "\n")
	if l.sticky() {
		view += strings.Repeat("\n", rows-(end-start)+1) + l.stickyBar()
	}
	return view
}
