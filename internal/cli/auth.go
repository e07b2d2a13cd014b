package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/moto/pkg/dashboard"
	"github.com/matzehuels/moto/pkg/session"
)

// passwordEnv supplies the password for non-interactive sign-in.
const passwordEnv = "MOTO_PASSWORD"

// authTimeout bounds one sign-in or sign-up round trip.
const authTimeout = 30 * time.Second

type credentials struct {
	email    string
	password string
	fullName string
	website  string
}

func (c *CLI) signUpCommand() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a MOTO.AI account and sign in",
		Long: `Create an account with its profile and an empty stats row, then sign in.
The session is stored in ~/.config/moto/sessions/ for later commands.

The password is read from --password, then $MOTO_PASSWORD, then prompted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuth(cmd.Context(), creds, true)
		},
	}
	cmd.Flags().StringVar(&creds.email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&creds.password, "password", "", "account password")
	cmd.Flags().StringVar(&creds.fullName, "name", "", "full name (required)")
	cmd.Flags().StringVar(&creds.website, "website", "", "website to link")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *CLI) loginCommand() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to MOTO.AI",
		Long: `Sign in with email and password. The session is stored locally for
later commands until it expires or you log out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if existing, _ := c.currentSession(ctx); existing != nil {
				printInfo("Already signed in as %s", StyleHighlight.Render(existing.Email))
				printDetail("Run 'moto logout' first to switch accounts")
				return nil
			}
			return c.runAuth(ctx, creds, false)
		},
	}
	cmd.Flags().StringVar(&creds.email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&creds.password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			recs, err := c.openRecords(ctx)
			if err != nil {
				return err
			}
			defer recs.Close()
			manager, store, err := c.cliSessions(recs)
			if err != nil {
				return err
			}
			sess, err := store.GetSession(ctx)
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}
			if sess == nil {
				printInfo("Not signed in")
				return nil
			}
			if err := manager.SignOut(ctx, sess.ID); err != nil {
				return err
			}
			if err := store.DeleteSession(ctx); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Signed out")
			return nil
		},
	}
}

func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.requireSession(ctx)
			if err != nil {
				return err
			}
			recs, err := c.openRecords(ctx)
			if err != nil {
				return err
			}
			defer recs.Close()

			view, err := dashboard.New(recs, c.Logger).Load(ctx, sess.UserID())
			if err != nil {
				return err
			}

			printSuccess("%s", view.Welcome())
			printKeyValue("Email", sess.Email)
			printKeyValue("Website", view.Website())
			printKeyValue("Signed in", sess.CreatedAt.Format("Jan 2, 2006"))
			printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006"))
			return nil
		},
	}
}

// =============================================================================
// Session Management
// =============================================================================

// currentSession returns the stored CLI session, or nil when signed out
// or expired.
func (c *CLI) currentSession(ctx context.Context) (*session.Session, error) {
	store, err := session.NewCLIStore("")
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store.GetSession(ctx)
}

func (c *CLI) requireSession(ctx context.Context) (*session.Session, error) {
	sess, err := c.currentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, errors.New("not signed in (run 'moto login' first)")
	}
	return sess, nil
}

func (c *CLI) runAuth(ctx context.Context, creds credentials, signUp bool) error {
	if err := resolvePassword(&creds); err != nil {
		return err
	}
	recs, err := c.openRecords(ctx)
	if err != nil {
		return err
	}
	defer recs.Close()

	manager, store, err := c.cliSessions(recs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	msg := "Signing in..."
	if signUp {
		msg = "Creating account..."
	}
	spinner := newSpinnerWithContext(ctx, msg)
	spinner.Start()

	var sess *session.Session
	if signUp {
		sess, err = manager.SignUp(ctx, session.SignUpInput{
			Email:    creds.email,
			Password: creds.password,
			FullName: creds.fullName,
			Website:  creds.website,
		})
	} else {
		sess, err = manager.SignIn(ctx, creds.email, creds.password)
	}
	if err != nil {
		spinner.StopWithError(errorText(err))
		return err
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		spinner.StopWithError("Could not save session")
		return fmt.Errorf("save session: %w", err)
	}
	spinner.Stop()

	if signUp {
		printSuccess("Account created for %s", StyleHighlight.Render(sess.Email))
	} else {
		printSuccess("Signed in as %s", StyleHighlight.Render(sess.Email))
	}
	printNextStep("Open your dashboard", "moto app")
	return nil
}

// resolvePassword fills creds.password from the environment or a prompt.
func resolvePassword(creds *credentials) error {
	if creds.password != "" {
		return nil
	}
	if p := os.Getenv(passwordEnv); p != "" {
		creds.password = p
		return nil
	}
	p, err := promptPassword()
	if err != nil {
		return err
	}
	creds.password = p
	return nil
}

// =============================================================================
// Password Prompt
// =============================================================================

type passwordPrompt struct {
	input     textinput.Model
	done      bool
	cancelled bool
}

func (m passwordPrompt) Init() tea.Cmd { return textinput.Blink }

func (m passwordPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m passwordPrompt) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return m.input.View() + "\n"
}

func promptPassword() (string, error) {
	in := textinput.New()
	in.Prompt = StyleDim.Render("Password: ")
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.Focus()

	final, err := tea.NewProgram(passwordPrompt{input: in}).Run()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	m := final.(passwordPrompt)
	if m.cancelled {
		return "", errors.New("cancelled")
	}
	return m.input.Value(), nil
}

// =============================================================================
// Browser
// =============================================================================

func openBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
