package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/moto/pkg/dashboard"
)

// dashboardStreamRow is the terminal row of the embedded stream's header.
// The rows above it are padded to this height so mouse rows line up.
const dashboardStreamRow = 10

// Edit form fields.
const (
	editGoal = iota
	editIncome
	editClients
	editCount
)

// dashboardModel is the signed-in screen.
type dashboardModel struct {
	view    *dashboard.View
	err     string
	status  string
	editing bool
	saving  bool
	inputs  []textinput.Model
	focused int
}

func newEditInputs(e dashboard.Edit) []textinput.Model {
	values := [editCount]string{e.Goal, e.Income, strconv.Itoa(e.Clients)}
	inputs := make([]textinput.Model, editCount)
	for i := range inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Width = 16
		in.CharLimit = 32
		in.SetValue(values[i])
		inputs[i] = in
	}
	inputs[editGoal].Placeholder = "10000"
	inputs[editIncome].Placeholder = "0"
	inputs[editClients].CharLimit = 6
	return inputs
}

// edit reads the form. A non-numeric client count is an error.
func (d dashboardModel) edit() (dashboard.Edit, error) {
	e := dashboard.Edit{
		Goal:   d.inputs[editGoal].Value(),
		Income: d.inputs[editIncome].Value(),
	}
	if s := strings.TrimSpace(d.inputs[editClients].Value()); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return e, fmt.Errorf("clients must be a whole number")
		}
		e.Clients = n
	}
	return e, nil
}

func (d *dashboardModel) focus(i int) tea.Cmd {
	d.focused = (i%editCount + editCount) % editCount
	for j := range d.inputs {
		d.inputs[j].Blur()
	}
	return d.inputs[d.focused].Focus()
}

func (m appModel) updateDashboard(msg tea.Msg) (appModel, tea.Cmd) {
	d := &m.dash
	switch msg := msg.(type) {
	case dashLoadedMsg:
		d.err = errorText(msg.err)
		d.view = msg.view
		return m, nil

	case dashSavedMsg:
		d.saving = false
		if msg.err != nil {
			d.err = errorText(msg.err)
			return m, nil
		}
		d.view, d.editing, d.err, d.status = msg.view, false, "", "Saved"
		return m, nil

	case signedOutMsg:
		if msg.err != nil {
			d.err = errorText(msg.err)
		}
		return m, nil

	case tea.MouseMsg:
		s, cmd := m.stream.Update(msg)
		m.stream = s.(streamModel)
		return m, cmd

	case tea.KeyMsg:
		if d.editing {
			return m.updateEditing(msg)
		}
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "o":
			return m, m.signOut()
		case "e":
			if d.view == nil || !d.view.Editable() {
				d.err = "No stats to edit yet"
				return m, nil
			}
			d.editing, d.status, d.err = true, "", ""
			d.inputs = newEditInputs(d.view.Form())
			return m, d.focus(editGoal)
		case " ", "r", "d":
			s, cmd := m.stream.Update(msg)
			m.stream = s.(streamModel)
			return m, cmd
		}
	}
	return m, nil
}

func (m appModel) updateEditing(msg tea.KeyMsg) (appModel, tea.Cmd) {
	d := &m.dash
	switch msg.String() {
	case "esc":
		d.editing, d.err = false, ""
		return m, nil
	case "tab", "down":
		return m, d.focus(d.focused + 1)
	case "shift+tab", "up":
		return m, d.focus(d.focused - 1)
	case "enter":
		if d.saving {
			return m, nil
		}
		e, err := d.edit()
		if err != nil {
			d.err = err.Error()
			return m, nil
		}
		d.saving, d.err = true, ""
		return m, m.saveDashboard(e)
	}
	var cmd tea.Cmd
	d.inputs[d.focused], cmd = d.inputs[d.focused].Update(msg)
	return m, cmd
}

// =============================================================================
// View
// =============================================================================

var (
	dashWelcomeStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	dashLabelStyle   = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	dashPanelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	dashErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)
)

func (d dashboardModel) View(stream streamModel) string {
	var top []string
	if d.view == nil {
		top = append(top, StyleDim.Render("Loading dashboard..."))
		if d.err != "" {
			top = append(top, dashErrorStyle.Render(iconError+" "+d.err))
		}
	} else {
		top = d.summary(stream.snap.Time)
	}
	for len(top) < dashboardStreamRow {
		top = append(top, "")
	}
	top = top[:dashboardStreamRow]
	return strings.Join(top, "\n") + "\n" + stream.View() + "\n\n" +
		StyleDim.Render("e edit · o sign out · space/r/d stream · q quit")
}

// summary renders the rows above the stream: greeting, website, and the
// stats panel beside the orbit visualizer.
func (d dashboardModel) summary(now time.Time) []string {
	v := d.view
	lines := []string{
		dashWelcomeStyle.Render(v.Welcome()),
		StyleLink.Render(v.Website()),
	}

	form := v.Form()
	if d.editing {
		if e, err := d.edit(); err == nil {
			form = e
		}
	}
	metrics := dashboard.MetricsFor(form)

	var stats string
	if d.editing {
		var b strings.Builder
		for i, label := range []string{"Goal", "Income", "Clients"} {
			style := dashLabelStyle
			if i == d.focused {
				style = style.Foreground(colorPurple)
			}
			b.WriteString(style.Render(label) + " " + d.inputs[i].View() + "\n")
		}
		hint := "enter save · esc cancel"
		if d.saving {
			hint = "saving..."
		}
		b.WriteString(StyleDim.Render(hint))
		stats = b.String()
	} else {
		goal := form.Goal
		if goal == "" {
			goal = strconv.FormatFloat(dashboard.DefaultGoal, 'f', 0, 64)
		}
		stats = strings.Join([]string{
			dashLabelStyle.Render("Goal") + " " + StyleValue.Render(goal),
			dashLabelStyle.Render("Income") + " " + StyleValue.Render(orDash(form.Income)),
			dashLabelStyle.Render("Clients") + " " + StyleNumber.Render(strconv.Itoa(form.Clients)),
			dashLabelStyle.Render("Flow") + " " + flowStyle(metrics).Render(metrics.FlowRate()),
		}, "\n")
	}

	panel := lipgloss.JoinHorizontal(lipgloss.Top,
		dashPanelStyle.Width(34).Render(stats),
		"  ",
		drawOrbit(metrics, now),
	)
	lines = append(lines, "")
	lines = append(lines, strings.Split(panel, "\n")...)

	switch {
	case d.err != "":
		lines = append(lines, dashErrorStyle.Render(iconError+" "+d.err))
	case d.status != "":
		lines = append(lines, StyleSuccess.Render(iconSuccess+" "+d.status))
	}
	return lines
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func flowStyle(m dashboard.Metrics) lipgloss.Style {
	if m.GoalMet {
		return lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	}
	return lipgloss.NewStyle().Foreground(colorPurple)
}

// Orbit canvas size in cells.
const (
	orbitCols = 25
	orbitRows = 5
)

// drawOrbit draws the flow-rate core with m.Orbits satellites turning once
// every m.Rotation seconds. The core brightens with m.Glow.
func drawOrbit(m dashboard.Metrics, now time.Time) string {
	cv := newCanvas(orbitCols, orbitRows)
	cx, cy := float64(orbitCols-1)/2, float64(orbitRows-1)/2
	rx, ry := cx-1, cy

	for i := 0; i < 48; i++ {
		a := 2 * math.Pi * float64(i) / 48
		cv.set(int(math.Round(cx+rx*math.Cos(a))), int(math.Round(cy+ry*math.Sin(a))), cell{r: '·', fg: colorDim})
	}

	phase := 0.0
	if m.Rotation > 0 {
		secs := float64(now.UnixNano()) / float64(time.Second)
		phase = 2 * math.Pi * math.Mod(secs, m.Rotation) / m.Rotation
	}
	for i := 0; i < m.Orbits; i++ {
		a := phase + 2*math.Pi*float64(i)/float64(m.Orbits)
		cv.set(int(math.Round(cx+rx*math.Cos(a))), int(math.Round(cy+ry*math.Sin(a))), cell{r: '●', fg: colorPurple})
	}

	core := cell{r: '◉', fg: colorPurple}
	switch {
	case m.GoalMet:
		core = cell{r: '◉', fg: colorGreen, bold: true}
	case m.Glow >= 0.7:
		core.bold = true
	}
	cv.set(int(cx), int(cy), core)
	return cv.String()
}
