package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/moto/pkg/audit"
	"github.com/matzehuels/moto/pkg/dashboard"
	moerr "github.com/matzehuels/moto/pkg/errors"
	"github.com/matzehuels/moto/pkg/records"
	"github.com/matzehuels/moto/pkg/session"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLandingSticky(t *testing.T) {
	l := newLandingModel()
	l.width, l.height = 80, 24

	l.offset = stickyAfterPx / int(cellH)
	if l.sticky() {
		t.Errorf("offset %d (%dpx) should not show the bar", l.offset, l.offset*cellH)
	}
	l.offset++
	if !l.sticky() {
		t.Errorf("offset %d (%dpx) should show the bar", l.offset, l.offset*cellH)
	}
	if v := l.View(); !strings.Contains(v, "Book My Audit") {
		t.Error("sticky view missing the booking button")
	}
}

func TestLandingScrollClamps(t *testing.T) {
	l := newLandingModel()
	l.width, l.height = 80, 24
	l.scroll(-10)
	if l.offset != 0 {
		t.Errorf("offset = %d, want 0", l.offset)
	}
	l.scroll(10000)
	if n := len(l.lines()); l.offset != n-1 {
		t.Errorf("offset = %d, want %d", l.offset, n-1)
	}
}

func TestLandingAuditFlow(t *testing.T) {
	m := newAppModel(appDeps{}, streamModel{}, nil)
	m.landing.width, m.landing.height = 80, 24

	m, _ = m.updateLanding(key("tab"))
	if !m.landing.input.Focused() {
		t.Fatal("tab should focus the audit input")
	}

	// Blank input does nothing.
	m, cmd := m.updateLanding(key("enter"))
	if cmd != nil || m.landing.loading {
		t.Fatal("blank description should not start an audit")
	}

	m.landing.input.SetValue("Headphone store")
	m, cmd = m.updateLanding(key("enter"))
	if cmd == nil || !m.landing.loading {
		t.Fatal("enter should start an audit")
	}

	res := &audit.Result{Score: 72, Recommendations: []string{"a", "b", "c"}, Tips: "Be bold"}
	m, _ = m.updateLanding(auditDoneMsg{res: res, ok: true})
	if m.landing.loading || m.landing.result != res {
		t.Fatal("result not shown")
	}

	// A failed audit keeps the previous result.
	m, _ = m.updateLanding(auditDoneMsg{})
	if m.landing.result != res || !m.landing.noResult {
		t.Error("failed audit should keep the last result and flag no result")
	}
	if v := strings.Join(m.landing.lines(), "\n"); !strings.Contains(v, "72/100") {
		t.Error("score missing from landing")
	}
}

func TestAuthFormToggle(t *testing.T) {
	m := newAppModel(appDeps{}, streamModel{}, nil)
	m.screen = screenAuth
	if n := m.auth.fields(); n != 2 {
		t.Fatalf("sign-in fields = %d, want 2", n)
	}

	m, _ = m.updateAuth(key("ctrl+t"))
	if !m.auth.signUp || m.auth.fields() != fieldCount {
		t.Fatal("ctrl+t should switch to sign-up with all fields")
	}

	m.auth.focused = fieldWebsite
	m, _ = m.updateAuth(key("ctrl+t"))
	if m.auth.focused != fieldPassword {
		t.Errorf("focus = %d, want clamped to %d", m.auth.focused, fieldPassword)
	}

	m, _ = m.updateAuth(key("esc"))
	if m.screen != screenLanding {
		t.Error("esc should return to the landing screen")
	}
}

func TestAuthDoneShowsError(t *testing.T) {
	m := newAppModel(appDeps{}, streamModel{}, nil)
	m.screen = screenAuth
	m.auth.loading = true
	err := moerr.Wrap(moerr.ErrCodeUnauthorized, session.ErrInvalidCredentials, "sign in failed")
	m, _ = m.updateAuth(authDoneMsg{err: err})
	if m.auth.loading || m.auth.err != "Invalid email or password" {
		t.Errorf("err = %q, loading = %v", m.auth.err, m.auth.loading)
	}
}

func TestSessionMsgSwitchesScreens(t *testing.T) {
	m := newAppModel(appDeps{}, streamModel{}, nil)
	m.screen = screenAuth

	next, _ := m.Update(sessionMsg{sess: nil})
	if got := next.(appModel).screen; got != screenLanding {
		t.Errorf("sign-out screen = %v, want landing", got)
	}
}

func TestDashboardEditValidation(t *testing.T) {
	d := dashboardModel{inputs: newEditInputs(dashboard.Edit{Goal: "5000", Income: "$2,500", Clients: 3})}
	e, err := d.edit()
	if err != nil {
		t.Fatal(err)
	}
	if e.Goal != "5000" || e.Income != "$2,500" || e.Clients != 3 {
		t.Errorf("edit = %+v", e)
	}

	d.inputs[editClients].SetValue("many")
	if _, err := d.edit(); err == nil {
		t.Error("non-numeric clients should fail")
	}
}

func TestDashboardSummary(t *testing.T) {
	name, site := "Ada", "ada.dev"
	d := dashboardModel{view: &dashboard.View{
		Profile: &records.Profile{ID: "u1", FullName: &name, Website: &site},
		Stats:   &records.Stats{ID: "s1", UserID: "u1", Goal: "10000", Income: "2500", Clients: 4},
	}}
	out := strings.Join(d.summary(time.Unix(0, 0)), "\n")
	for _, want := range []string{"Welcome, Ada", "ada.dev", "25.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
	if n := len(d.summary(time.Unix(0, 0))); n > dashboardStreamRow {
		t.Errorf("summary has %d rows, stream starts at %d", n, dashboardStreamRow)
	}
}

func TestDrawOrbit(t *testing.T) {
	m := dashboard.MetricsFor(dashboard.Edit{Income: "100"})
	out := drawOrbit(m, time.Unix(0, 0))
	if got := strings.Count(out, "●"); got != dashboard.DefaultOrbits {
		t.Errorf("satellites = %d, want %d", got, dashboard.DefaultOrbits)
	}
	if !strings.Contains(out, "◉") {
		t.Error("core missing")
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{moerr.New(moerr.ErrCodeInvalidEmail, "invalid email address"), "invalid email address"},
		{errors.New("boom"), "Something went wrong: boom"},
	}
	for _, tt := range tests {
		if got := errorText(tt.err); got != tt.want {
			t.Errorf("errorText(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
