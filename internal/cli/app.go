package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/moto/pkg/audit"
	"github.com/matzehuels/moto/pkg/dashboard"
	moerr "github.com/matzehuels/moto/pkg/errors"
	"github.com/matzehuels/moto/pkg/session"
)

func (c *CLI) appCommand() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Open the interactive MOTO.AI app",
		Long: `Open the full-screen app. Signed out, it shows the landing screen with
the free AI audit; signed in, the client dashboard with the live traffic
monitor.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runApp(cmd.Context(), noCache)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the audit cache")
	return cmd
}

func (c *CLI) runApp(ctx context.Context, noCache bool) error {
	recs, err := c.openRecords(ctx)
	if err != nil {
		return err
	}
	defer recs.Close()

	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	consultant, err := c.newConsultant(ctx, store)
	if err != nil {
		return err
	}
	manager, cliStore, err := c.cliSessions(recs)
	if err != nil {
		return err
	}
	current, err := cliStore.GetSession(ctx)
	if err != nil {
		return err
	}

	stream := c.newStreamSession(0, true, dashboardStreamRow+streamHeaderRows+1)
	deps := appDeps{
		ctx:        ctx,
		sessions:   manager,
		cliStore:   cliStore,
		dashboard:  dashboard.New(recs, c.Logger),
		consultant: consultant,
	}
	m := newAppModel(deps, newStreamModel(stream, c.config().Stream.FrameInterval.Duration), current)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	unsubscribe := manager.OnChange(func(s *session.Session) { p.Send(sessionMsg{s}) })
	defer unsubscribe()
	if err := stream.start(ctx, p.Send); err != nil {
		return err
	}
	_, err = p.Run()
	if cerr := stream.close(); err == nil {
		err = cerr
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// =============================================================================
// App Model
// =============================================================================

type appScreen int

const (
	screenLanding appScreen = iota
	screenAuth
	screenDashboard
)

// appDeps are the services the app screens call.
type appDeps struct {
	ctx        context.Context
	sessions   *session.Manager
	cliStore   *session.CLIStore
	dashboard  *dashboard.Service
	consultant *audit.Consultant
}

type (
	// sessionMsg reports a sign-in (non-nil) or sign-out (nil).
	sessionMsg struct{ sess *session.Session }

	auditDoneMsg struct {
		res *audit.Result
		ok  bool
	}

	authDoneMsg struct{ err error }

	dashLoadedMsg struct {
		view *dashboard.View
		err  error
	}

	dashSavedMsg struct {
		view *dashboard.View
		err  error
	}

	signedOutMsg struct{ err error }
)

// appModel switches between landing, auth and dashboard as the session
// changes.
type appModel struct {
	deps    appDeps
	screen  appScreen
	sess    *session.Session
	width   int
	height  int
	landing landingModel
	auth    authModel
	dash    dashboardModel
	stream  streamModel
}

func newAppModel(deps appDeps, stream streamModel, current *session.Session) appModel {
	stream.embedded = true
	m := appModel{
		deps:    deps,
		landing: newLandingModel(),
		auth:    newAuthModel(),
		stream:  stream,
	}
	if current != nil {
		m.sess = current
		m.screen = screenDashboard
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	if m.screen == screenDashboard {
		return m.loadDashboard()
	}
	return nil
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.landing.width, m.landing.height = msg.Width, msg.Height
		s, _ := m.stream.Update(msg)
		m.stream = s.(streamModel)
		return m, nil

	case frameMsg, scanMsg:
		s, _ := m.stream.Update(msg)
		m.stream = s.(streamModel)
		return m, nil

	case sessionMsg:
		m.sess = msg.sess
		if msg.sess == nil {
			m.screen = screenLanding
			m.dash = dashboardModel{}
			return m, nil
		}
		m.screen = screenDashboard
		m.auth = newAuthModel()
		return m, m.loadDashboard()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenLanding:
		m, cmd = m.updateLanding(msg)
	case screenAuth:
		m, cmd = m.updateAuth(msg)
	case screenDashboard:
		m, cmd = m.updateDashboard(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	switch m.screen {
	case screenAuth:
		return m.auth.View()
	case screenDashboard:
		return m.dash.View(m.stream)
	default:
		return m.landing.View()
	}
}

// =============================================================================
// Commands
// =============================================================================

func (m appModel) runAudit(description string) tea.Cmd {
	ctx, consultant := m.deps.ctx, m.deps.consultant
	return func() tea.Msg {
		res, ok := consultant.Submit(ctx, description)
		return auditDoneMsg{res: res, ok: ok}
	}
}

// submitAuth signs in or up and makes the session current for later CLI
// commands. The manager's change notification moves the app on.
func (m appModel) submitAuth(form authForm) tea.Cmd {
	ctx, deps := m.deps.ctx, m.deps
	return func() tea.Msg {
		var (
			sess *session.Session
			err  error
		)
		if form.signUp {
			sess, err = deps.sessions.SignUp(ctx, session.SignUpInput{
				Email:    form.email,
				Password: form.password,
				FullName: form.fullName,
				Website:  form.website,
			})
		} else {
			sess, err = deps.sessions.SignIn(ctx, form.email, form.password)
		}
		if err == nil {
			err = deps.cliStore.SaveSession(ctx, sess)
		}
		return authDoneMsg{err: err}
	}
}

func (m appModel) loadDashboard() tea.Cmd {
	ctx, svc, userID := m.deps.ctx, m.deps.dashboard, m.sess.UserID()
	return func() tea.Msg {
		v, err := svc.Load(ctx, userID)
		return dashLoadedMsg{view: v, err: err}
	}
}

func (m appModel) saveDashboard(e dashboard.Edit) tea.Cmd {
	ctx, svc := m.deps.ctx, m.deps.dashboard
	view := *m.dash.view
	return func() tea.Msg {
		err := svc.Save(ctx, &view, e)
		return dashSavedMsg{view: &view, err: err}
	}
}

func (m appModel) signOut() tea.Cmd {
	ctx, deps, id := m.deps.ctx, m.deps, ""
	if m.sess != nil {
		id = m.sess.ID
	}
	return func() tea.Msg {
		err := deps.cliStore.DeleteSession(ctx)
		if serr := deps.sessions.SignOut(ctx, id); err == nil {
			err = serr
		}
		return signedOutMsg{err: err}
	}
}

// errorText turns a service error into one line for the screen.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, session.ErrInvalidCredentials) {
		return "Invalid email or password"
	}
	if code := moerr.GetCode(err); code != "" {
		return moerr.UserMessage(err)
	}
	return fmt.Sprintf("Something went wrong: %v", err)
}
