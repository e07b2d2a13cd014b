package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	moerr "github.com/matzehuels/moto/pkg/errors"
	"github.com/matzehuels/moto/pkg/records"
)

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Website  string
}

// Manager runs the account flows and tells observers about session changes.
type Manager struct {
	records  records.Store
	sessions Store
	ttl      time.Duration
	cost     int
	logger   *log.Logger

	mu   sync.Mutex
	subs map[int]func(*Session)
	next int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = ttl }
}

// WithCost sets the bcrypt cost.
func WithCost(cost int) ManagerOption {
	return func(m *Manager) { m.cost = cost }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager over an account/record store and a session
// store.
func NewManager(recs records.Store, sessions Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		records:  recs,
		sessions: sessions,
		ttl:      DefaultTTL,
		cost:     bcrypt.DefaultCost,
		logger:   log.Default(),
		subs:     make(map[int]func(*Session)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SignUp creates an account with its profile and an empty stats row, then
// signs it in.
func (m *Manager) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Website = strings.TrimSpace(in.Website)
	for _, err := range []error{
		moerr.ValidateEmail(in.Email),
		moerr.ValidatePassword(in.Password),
		moerr.ValidateFullName(in.FullName),
		moerr.ValidateWebsite(in.Website),
	} {
		if err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), m.cost)
	if err != nil {
		return nil, moerr.Wrap(moerr.ErrCodeInvalidPassword, err, "hash password")
	}
	acct := &records.Account{ID: records.NewID(), Email: in.Email, PasswordHash: string(hash)}
	if err := m.records.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, records.ErrConflict) {
			return nil, moerr.Wrap(moerr.ErrCodeConflict, err, "an account with this email already exists")
		}
		return nil, moerr.Wrap(moerr.ErrCodeStore, err, "create account")
	}

	profile := &records.Profile{ID: acct.ID, FullName: optional(in.FullName), Website: optional(in.Website)}
	if err := m.records.Insert(ctx, profile); err != nil {
		return nil, moerr.Wrap(moerr.ErrCodeStore, err, "create profile")
	}
	if err := m.records.Insert(ctx, &records.Stats{ID: records.NewID(), UserID: acct.ID}); err != nil {
		return nil, moerr.Wrap(moerr.ErrCodeStore, err, "create stats")
	}
	m.logger.Info("account created", "email", acct.Email)
	return m.start(ctx, acct)
}

// SignIn checks email and password and starts a session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	acct, err := m.records.AccountByEmail(ctx, email)
	if errors.Is(err, records.ErrNotFound) {
		return nil, moerr.Wrap(moerr.ErrCodeUnauthorized, ErrInvalidCredentials, "sign in failed")
	}
	if err != nil {
		return nil, moerr.Wrap(moerr.ErrCodeStore, err, "look up account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, moerr.Wrap(moerr.ErrCodeUnauthorized, ErrInvalidCredentials, "sign in failed")
	}
	return m.start(ctx, acct)
}

func (m *Manager) start(ctx context.Context, acct *records.Account) (*Session, error) {
	sess, err := New(acct, m.ttl)
	if err != nil {
		return nil, moerr.Wrap(moerr.ErrCodeInternal, err, "generate session id")
	}
	if err := m.sessions.Set(ctx, sess); err != nil {
		return nil, moerr.Wrap(moerr.ErrCodeStore, err, "store session")
	}
	m.logger.Debug("session started", "account", acct.ID)
	m.notify(sess)
	return sess, nil
}

// SignOut ends the session. Signing out an unknown session is not an error.
func (m *Manager) SignOut(ctx context.Context, sessionID string) error {
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return moerr.Wrap(moerr.ErrCodeStore, err, "delete session")
	}
	m.notify(nil)
	return nil
}

// Current returns the live session for sessionID.
func (m *Manager) Current(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, moerr.Wrap(moerr.ErrCodeUnauthorized, ErrNotFound, "not signed in")
	}
	sess, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, moerr.Wrap(moerr.ErrCodeStore, err, "load session")
	}
	if sess == nil {
		return nil, moerr.Wrap(moerr.ErrCodeSessionExpired, ErrExpired, "session expired or signed out")
	}
	return sess, nil
}

// OnChange registers fn to run after every sign-in, sign-up and sign-out.
// fn receives nil on sign-out. The returned func unregisters it.
func (m *Manager) OnChange(fn func(*Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notify(sess *Session) {
	m.mu.Lock()
	fns := make([]func(*Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(sess)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
