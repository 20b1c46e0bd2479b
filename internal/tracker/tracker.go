// Package tracker is the client core: it serves reads through the query
// cache and routes writes through the mutation pipeline so every cached view
// of the same records stays consistent.
package tracker

import (
	"fmt"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/api"
	"github.com/prompt2production/needled-mobile-sub000/internal/cache"
	"github.com/prompt2production/needled-mobile-sub000/internal/dose"
	"github.com/prompt2production/needled-mobile-sub000/internal/injection"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/mutation"
	"github.com/prompt2production/needled-mobile-sub000/internal/utils"
	"github.com/prompt2production/needled-mobile-sub000/internal/validation"
)

// Tracker is safe for concurrent use.
type Tracker struct {
	client   api.Client
	store    *cache.Store
	pipeline *mutation.Pipeline

	settings models.Settings
	cfg      injection.Config
	plan     dose.Plan
	loc      *time.Location
	now      func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStore shares an existing cache.
func WithStore(store *cache.Store) Option {
	return func(t *Tracker) {
		if store != nil {
			t.store = store
		}
	}
}

// WithClock replaces time.Now for computing the user's local day.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a Tracker for the user described by settings.
func New(client api.Client, settings models.Settings, opts ...Option) (*Tracker, error) {
	if settings.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, err
	}
	cfg, plan, err := injection.ConfigFor(settings)
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		client:   client,
		settings: settings,
		cfg:      cfg,
		plan:     plan,
		loc:      loc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.store == nil {
		t.store = cache.New()
	}
	t.pipeline = mutation.New(t.store)
	return t, nil
}

// Today is the user's current local calendar day.
func (t *Tracker) Today() models.LocalDate {
	return utils.TodayIn(t.loc, t.now())
}

func (t *Tracker) UserID() string            { return t.settings.UserID }
func (t *Tracker) Settings() models.Settings { return t.settings }
func (t *Tracker) Plan() dose.Plan           { return t.plan }
func (t *Tracker) Store() *cache.Store       { return t.store }

// Subscribe notifies fn whenever a cached view changes.
func (t *Tracker) Subscribe(fn func(cache.Key)) func() {
	return t.store.Subscribe(fn)
}

// Refresh marks every cached view for this user stale. The data stays
// visible until the refetch lands.
func (t *Tracker) Refresh() {
	t.store.InvalidateWhere(func(k cache.Key) bool { return k.UserID == t.settings.UserID })
}

// Reset drops every cached view, e.g. after sign-out.
func (t *Tracker) Reset() {
	t.store.Clear()
}

func (t *Tracker) validator() *validation.Validator {
	return validation.New(t.Today(), t.cfg.TrackGoldenDose)
}

// mine matches keys belonging to this tracker's user.
func (t *Tracker) mine(namespaces ...cache.Namespace) func(cache.Key) bool {
	return func(k cache.Key) bool {
		if k.UserID != t.settings.UserID {
			return false
		}
		for _, ns := range namespaces {
			if k.Namespace == ns {
				return true
			}
		}
		return false
	}
}
