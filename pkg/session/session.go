// Package session provides sign-in sessions for dashboard users.
//
// Sessions are stored behind the [Store] interface, with implementations
// for different deployments:
//   - [MemoryStore]: in-process storage for tests and single-instance servers
//   - [RedisStore]: Redis-backed storage for multi-instance API servers
//   - [FileStore]: JSON files for the CLI
//
// # Architecture
//
// A [Session] binds a random ID to an account with an expiry. Stores
// support Get/Set/Delete with expiry checking, plus Cleanup of expired
// sessions.
//
// The [Manager] implements the account flows on top of a records store:
// sign-up creates the account, its profile and its stats row; sign-in
// checks a bcrypt password hash; sign-out deletes the session. Observers
// registered with [Manager.OnChange] see every transition, which is what
// switches the app between the landing screen and the dashboard.
//
// # Usage
//
//	mgr := session.NewManager(store, session.NewMemoryStore())
//	sess, err := mgr.SignIn(ctx, "ada@example.com", "hunter22")
//	if err != nil {
//	    return err
//	}
//	cur, err := mgr.Current(ctx, sess.ID)
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/matzehuels/moto/pkg/records"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("expired")

	// ErrInvalidCredentials is returned when sign-in fails.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Session stores user session data.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// UserID returns the owning account id, or "" for a nil session.
// Records and cache scopes are keyed by it.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.AccountID
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (optional, may be no-op for Redis).
	Cleanup(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// DefaultTTL is the default session duration.
const DefaultTTL = 7 * 24 * time.Hour

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New creates a new session for acct.
func New(acct *records.Account, ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        id,
		AccountID: acct.ID,
		Email:     acct.Email,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}
