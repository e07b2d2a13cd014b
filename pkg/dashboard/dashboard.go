// Package dashboard loads and edits the signed-in user's profile and
// metrics.
package dashboard

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	moerr "github.com/matzehuels/moto/pkg/errors"
	"github.com/matzehuels/moto/pkg/records"
)

// NoWebsite is shown when the profile has no website.
const NoWebsite = "No website linked"

// View is the dashboard for one user. Either record may be nil when the
// row does not exist.
type View struct {
	Profile *records.Profile `json:"profile"`
	Stats   *records.Stats   `json:"stats"`
}

// Name returns the profile's full name, or "".
func (v *View) Name() string {
	if v.Profile == nil || v.Profile.FullName == nil {
		return ""
	}
	return *v.Profile.FullName
}

// Welcome returns the greeting line.
func (v *View) Welcome() string { return "Welcome, " + v.Name() }

// Website returns the linked website or NoWebsite.
func (v *View) Website() string {
	if v.Profile == nil || v.Profile.Website == nil || *v.Profile.Website == "" {
		return NoWebsite
	}
	return *v.Profile.Website
}

// Editable reports whether there is a stats row to save into.
func (v *View) Editable() bool { return v.Stats != nil }

// Form returns the edit form prefilled from the current stats.
func (v *View) Form() Edit {
	if v.Stats == nil {
		return Edit{}
	}
	return Edit{Goal: v.Stats.Goal, Income: v.Stats.Income, Clients: v.Stats.Clients}
}

// Edit is the metrics edit form.
type Edit struct {
	Goal    string `json:"goal"`
	Income  string `json:"income"`
	Clients int    `json:"clients"`
}

// Patch returns the record patch for e.
func (e Edit) Patch() records.Patch {
	return records.Patch{"goal": e.Goal, "income": e.Income, "clients": e.Clients}
}

// Service reads and writes dashboards.
type Service struct {
	store  records.Store
	logger *log.Logger
}

// New returns a dashboard service. A nil logger selects log.Default().
func New(store records.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, logger: logger}
}

// Load fetches the profile and stats owned by userID. Missing rows leave
// the corresponding field nil.
func (s *Service) Load(ctx context.Context, userID string) (*View, error) {
	if userID == "" {
		return nil, moerr.New(moerr.ErrCodeUnauthorized, "not signed in")
	}
	var v View
	p, err := records.GetProfile(ctx, s.store, userID)
	switch {
	case err == nil:
		v.Profile = p
	case !errors.Is(err, records.ErrNotFound):
		return nil, moerr.Wrap(moerr.ErrCodeStore, err, "load profile")
	}
	st, err := records.GetStats(ctx, s.store, userID)
	switch {
	case err == nil:
		v.Stats = st
	case !errors.Is(err, records.ErrNotFound):
		return nil, moerr.Wrap(moerr.ErrCodeStore, err, "load stats")
	}
	s.logger.Debug("dashboard loaded", "user", userID, "profile", v.Profile != nil, "stats", v.Stats != nil)
	return &v, nil
}

// Save writes e to the view's stats row, addressed by the row's own id,
// and updates the view on success. The view is left unchanged on error.
func (s *Service) Save(ctx context.Context, v *View, e Edit) error {
	if !v.Editable() {
		return moerr.New(moerr.ErrCodeNotFound, "no stats to save")
	}
	e.Goal = strings.TrimSpace(e.Goal)
	e.Income = strings.TrimSpace(e.Income)
	if err := moerr.ValidateStats(e.Goal, e.Income, e.Clients); err != nil {
		return err
	}
	if err := s.store.Update(ctx, records.KindStats, v.Stats.ID, e.Patch()); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return moerr.Wrap(moerr.ErrCodeNotFound, err, "stats row %s", v.Stats.ID)
		}
		return moerr.Wrap(moerr.ErrCodeStore, err, "save stats")
	}
	updated := *v.Stats
	updated.Goal, updated.Income, updated.Clients = e.Goal, e.Income, e.Clients
	v.Stats = &updated
	s.logger.Info("stats saved", "id", updated.ID)
	return nil
}
