package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/matzehuels/moto/pkg/observability"
)

// Dialect selects SQL placeholder syntax and driver.
type Dialect int

// Supported dialects.
const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

func (d Dialect) driver() string { return d.String() }

// bind returns the n-th (1-based) placeholder.
func (d Dialect) bind(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		full_name TEXT,
		website TEXT,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		goal TEXT NOT NULL DEFAULT '',
		income TEXT NOT NULL DEFAULT '',
		clients INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	)`,
}

// SQLStore is a Store over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLStore wraps an open database. Call Migrate before first use on a
// fresh database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

// OpenSQL opens dsn with the dialect's driver, checks connectivity and
// creates missing tables.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(dialect.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// An in-memory database lives and dies with its connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	s := NewSQLStore(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// DB returns the underlying handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) observe(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnQuery(ctx, s.dialect.String(), op, time.Since(start), err)
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, kind Kind, ownerID string) (rec Record, err error) {
	defer func(start time.Time) { s.observe(ctx, "get "+string(kind), start, err) }(time.Now())

	switch kind {
	case KindProfiles:
		p, err := s.getProfile(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindStats:
		st, err := s.getStats(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func (s *SQLStore) getProfile(ctx context.Context, id string) (*Profile, error) {
	query := "SELECT id, full_name, website, updated_at FROM profiles WHERE id = " + s.dialect.bind(1)
	var (
		p             Profile
		name, website sql.NullString
		updated       string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &name, &website, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	p.FullName = fromNull(name)
	p.Website = fromNull(website)
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLStore) getStats(ctx context.Context, userID string) (*Stats, error) {
	query := "SELECT id, user_id, goal, income, clients, updated_at FROM user_stats WHERE user_id = " + s.dialect.bind(1)
	var (
		st      Stats
		updated string
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&st.ID, &st.UserID, &st.Goal, &st.Income, &st.Clients, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	if st.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &st, nil
}

// Update implements Store. Columns are written in name order.
func (s *SQLStore) Update(ctx context.Context, kind Kind, id string, patch Patch) (err error) {
	defer func(start time.Time) { s.observe(ctx, "update "+string(kind), start, err) }(time.Now())

	cols, err := patch.validate(kind)
	if err != nil {
		return err
	}
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for _, c := range cols {
		args = append(args, sqlValue(c.value))
		sets = append(sets, c.name+" = "+s.dialect.bind(len(args)))
	}
	args = append(args, formatTime(s.now()))
	sets = append(sets, "updated_at = "+s.dialect.bind(len(args)))
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s", kind, strings.Join(sets, ", "), s.dialect.bind(len(args)))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", kind, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Insert implements Store. A zero UpdatedAt is set to the current time.
func (s *SQLStore) Insert(ctx context.Context, rec Record) (err error) {
	defer func(start time.Time) { s.observe(ctx, "insert "+string(rec.Kind()), start, err) }(time.Now())

	var (
		query string
		args  []any
	)
	switch r := rec.(type) {
	case *Profile:
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = s.now()
		}
		query = "INSERT INTO profiles (id, full_name, website, updated_at) VALUES (" + s.binds(4) + ")"
		args = []any{r.ID, sqlValue(r.FullName), sqlValue(r.Website), formatTime(r.UpdatedAt)}
	case *Stats:
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = s.now()
		}
		query = "INSERT INTO user_stats (id, user_id, goal, income, clients, updated_at) VALUES (" + s.binds(6) + ")"
		args = []any{r.ID, r.UserID, r.Goal, r.Income, r.Clients, formatTime(r.UpdatedAt)}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, rec)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert %s: %w", rec.Kind(), err)
	}
	return nil
}

// CreateAccount implements AccountStore.
func (s *SQLStore) CreateAccount(ctx context.Context, acct *Account) (err error) {
	defer func(start time.Time) { s.observe(ctx, "create account", start, err) }(time.Now())

	acct.Email = NormalizeEmail(acct.Email)
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = s.now()
	}
	query := "INSERT INTO accounts (id, email, password_hash, created_at) VALUES (" + s.binds(4) + ")"
	if _, err := s.db.ExecContext(ctx, query, acct.ID, acct.Email, acct.PasswordHash, formatTime(acct.CreatedAt)); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// AccountByEmail implements AccountStore.
func (s *SQLStore) AccountByEmail(ctx context.Context, email string) (acct *Account, err error) {
	defer func(start time.Time) { s.observe(ctx, "account by email", start, err) }(time.Now())

	query := "SELECT id, email, password_hash, created_at FROM accounts WHERE email = " + s.dialect.bind(1)
	var (
		a       Account
		created string
	)
	err = s.db.QueryRowContext(ctx, query, NormalizeEmail(email)).Scan(&a.ID, &a.Email, &a.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &a, nil
}

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) binds(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s.dialect.bind(i + 1)
	}
	return strings.Join(parts, ", ")
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func sqlValue(v any) any {
	if p, ok := v.(*string); ok {
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

var _ Store = (*SQLStore)(nil)
