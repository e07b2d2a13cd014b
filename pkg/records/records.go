package records

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	moerr "github.com/matzehuels/moto/pkg/errors"
)

// Kind names a record table.
type Kind string

// Record kinds.
const (
	KindProfiles Kind = "profiles"
	KindStats    Kind = "user_stats"
)

// Sentinel errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrConflict    = errors.New("record already exists")
	ErrUnknownKind = errors.New("unknown record kind")
)

// Record is a row of one of the record kinds.
type Record interface {
	Kind() Kind
	RecordID() string
}

// Account is a sign-in identity. Profiles share its ID.
type Account struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Profile holds the public details of an account.
type Profile struct {
	ID        string    `json:"id" bson:"_id"`
	FullName  *string   `json:"full_name" bson:"full_name"`
	Website   *string   `json:"website" bson:"website"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (*Profile) Kind() Kind          { return KindProfiles }
func (p *Profile) RecordID() string { return p.ID }

// Stats holds the dashboard metrics of an account. Goal and Income are free
// text as entered by the user.
type Stats struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Goal      string    `json:"goal" bson:"goal"`
	Income    string    `json:"income" bson:"income"`
	Clients   int       `json:"clients" bson:"clients"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (*Stats) Kind() Kind          { return KindStats }
func (s *Stats) RecordID() string { return s.ID }

// NewID returns a fresh record id.
func NewID() string { return uuid.NewString() }

// Store reads and writes records.
type Store interface {
	// Get returns the record of kind owned by ownerID, or ErrNotFound.
	Get(ctx context.Context, kind Kind, ownerID string) (Record, error)

	// Update applies patch to the record of kind with the given id.
	// Returns ErrNotFound when no row matched.
	Update(ctx context.Context, kind Kind, id string, patch Patch) error

	// Insert stores a new record. Returns ErrConflict on a duplicate key.
	Insert(ctx context.Context, rec Record) error

	AccountStore

	Close() error
}

// AccountStore manages sign-in identities.
type AccountStore interface {
	// CreateAccount stores acct. Returns ErrConflict if the email is taken.
	CreateAccount(ctx context.Context, acct *Account) error

	// AccountByEmail returns the account for email, or ErrNotFound.
	AccountByEmail(ctx context.Context, email string) (*Account, error)
}

// GetProfile is Get for KindProfiles.
func GetProfile(ctx context.Context, s Store, ownerID string) (*Profile, error) {
	rec, err := s.Get(ctx, KindProfiles, ownerID)
	if err != nil {
		return nil, err
	}
	p, ok := rec.(*Profile)
	if !ok {
		return nil, fmt.Errorf("profiles: unexpected record type %T", rec)
	}
	return p, nil
}

// GetStats is Get for KindStats.
func GetStats(ctx context.Context, s Store, ownerID string) (*Stats, error) {
	rec, err := s.Get(ctx, KindStats, ownerID)
	if err != nil {
		return nil, err
	}
	st, ok := rec.(*Stats)
	if !ok {
		return nil, fmt.Errorf("user_stats: unexpected record type %T", rec)
	}
	return st, nil
}

// NormalizeEmail lowercases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Patch maps column names to new values.
type Patch map[string]any

// column is one validated patch entry.
type column struct {
	name  string
	value any // string, *string (nil for NULL) or int64
}

var columns = map[Kind]map[string]func(any) (any, error){
	KindProfiles: {
		"full_name": nullableText,
		"website":   nullableText,
	},
	KindStats: {
		"goal":    text,
		"income":  text,
		"clients": integer,
	},
}

// Columns returns the patchable column names of kind in sorted order.
func Columns(kind Kind) []string {
	cols := columns[kind]
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validate checks p against kind and returns its entries sorted by name.
func (p Patch) validate(kind Kind) ([]column, error) {
	allowed, ok := columns[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(p) == 0 {
		return nil, moerr.New(moerr.ErrCodeInvalidInput, "empty %s update", kind)
	}
	out := make([]column, 0, len(p))
	for name, v := range p {
		conv, ok := allowed[name]
		if !ok {
			return nil, moerr.New(moerr.ErrCodeInvalidInput, "%s has no updatable column %q", kind, name)
		}
		val, err := conv(v)
		if err != nil {
			return nil, moerr.Wrap(moerr.ErrCodeInvalidInput, err, "%s.%s", kind, name)
		}
		out = append(out, column{name: name, value: val})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func text(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("want text, got %T", v)
	}
	return s, nil
}

func nullableText(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return (*string)(nil), nil
	case string:
		return &t, nil
	case *string:
		return t, nil
	}
	return nil, fmt.Errorf("want text or null, got %T", v)
}

func integer(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case float64:
		// JSON numbers decode as float64.
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("want integer, got %v", n)
		}
		return int64(n), nil
	}
	return nil, fmt.Errorf("want integer, got %T", v)
}

// apply sets validated columns on rec.
func apply(rec Record, cols []column, now time.Time) {
	switch r := rec.(type) {
	case *Profile:
		for _, c := range cols {
			v := c.value.(*string)
			switch c.name {
			case "full_name":
				r.FullName = v
			case "website":
				r.Website = v
			}
		}
		r.UpdatedAt = now
	case *Stats:
		for _, c := range cols {
			switch c.name {
			case "goal":
				r.Goal = c.value.(string)
			case "income":
				r.Income = c.value.(string)
			case "clients":
				r.Clients = int(c.value.(int64))
			}
		}
		r.UpdatedAt = now
	}
}
