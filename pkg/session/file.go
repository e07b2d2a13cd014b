package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore is a file-based session store for CLI applications.
// Sessions are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// DefaultDir returns the default session directory,
// $XDG_CONFIG_HOME/moto/sessions or ~/.config/moto/sessions.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "moto", "sessions"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "moto", "sessions"), nil
}

// NewFileStore creates a new file-based session store.
// If baseDir is empty, DefaultDir is used.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) sessionPath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID+".json")
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\.`)
}

func (s *FileStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	if !validID(sessionID) {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.sessionPath(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}

	if sess.IsExpired() {
		_ = os.Remove(path)
		return nil, nil
	}
	return &sess, nil
}

func (s *FileStore) Set(ctx context.Context, sess *Session) error {
	if !validID(sess.ID) {
		return fmt.Errorf("invalid session id %q", sess.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	path := s.sessionPath(sess.ID)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, sessionID string) error {
	if !validID(sessionID) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.sessionPath(sessionID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if now.After(sess.ExpiresAt) {
			_ = os.Remove(path)
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

// =============================================================================
// CLI convenience wrapper
// =============================================================================

const currentFile = "current"

// CLIStore wraps FileStore and remembers which session the CLI is signed
// in with.
type CLIStore struct {
	store *FileStore
}

// NewCLIStore creates a store for CLI sessions under dir (DefaultDir if
// empty).
func NewCLIStore(dir string) (*CLIStore, error) {
	store, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &CLIStore{store: store}, nil
}

// Store returns the underlying session store for a Manager.
func (c *CLIStore) Store() *FileStore { return c.store }

// GetSession retrieves the current CLI session, or nil when signed out or
// expired.
func (c *CLIStore) GetSession(ctx context.Context) (*Session, error) {
	id, err := os.ReadFile(c.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read current session: %w", err)
	}
	return c.store.Get(ctx, strings.TrimSpace(string(id)))
}

// SaveSession stores sess and makes it current.
func (c *CLIStore) SaveSession(ctx context.Context, sess *Session) error {
	if err := c.store.Set(ctx, sess); err != nil {
		return err
	}
	if err := os.WriteFile(c.Path(), []byte(sess.ID+"\n"), 0600); err != nil {
		return fmt.Errorf("write current session: %w", err)
	}
	return nil
}

// DeleteSession removes the current session and forgets it.
func (c *CLIStore) DeleteSession(ctx context.Context) error {
	sess, err := c.GetSession(ctx)
	if err != nil {
		return err
	}
	if sess != nil {
		if err := c.store.Delete(ctx, sess.ID); err != nil {
			return err
		}
	}
	if err := os.Remove(c.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove current session: %w", err)
	}
	return nil
}

// Path returns the file naming the current session.
func (c *CLIStore) Path() string {
	return filepath.Join(c.store.baseDir, currentFile)
}
