package tracker

import (
	"context"

	"github.com/prompt2production/needled-mobile-sub000/internal/api"
	"github.com/prompt2production/needled-mobile-sub000/internal/cache"
	"github.com/prompt2production/needled-mobile-sub000/internal/injection"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/mutation"
)

// covering matches this user's keys in namespaces whose date range includes date.
func (t *Tracker) covering(date models.LocalDate, namespaces ...cache.Namespace) func(cache.Key) bool {
	mine := t.mine(namespaces...)
	return func(k cache.Key) bool {
		return mine(k) && k.Covers(date)
	}
}

func either(a, b func(cache.Key) bool) func(cache.Key) bool {
	return func(k cache.Key) bool { return a(k) || b(k) }
}

// ToggleHabit sets habit h to value on date (today when nil). Every cached
// view containing that day shows the new value before the write resolves.
func (t *Tracker) ToggleHabit(ctx context.Context, h models.Habit, value bool, date *models.LocalDate) (models.HabitDay, error) {
	day := t.Today()
	if date != nil {
		day = *date
	}
	req := api.ToggleHabitRequest{UserID: t.settings.UserID, Habit: h, Value: value, Date: &day}
	result := t.validator().ValidateToggle(req)
	if err := result.Err(); err != nil {
		return models.HabitDay{}, err
	}

	affects := t.covering(day, cache.NamespaceHabitsToday, cache.NamespaceHabitsRange, cache.NamespaceCalendar)
	var prior bool

	return mutation.Run(ctx, t.pipeline, mutation.Mutation[models.HabitDay]{
		Name:    "toggle_habit",
		Lane:    mutation.HabitLane(t.settings.UserID, day),
		Affects: affects,
		Apply: func(tx *cache.Tx) {
			keys := tx.Keys(affects)
			prior = habitValue(tx, keys, day, h)
			for _, k := range keys {
				patchHabitDay(tx, k, day, func(d models.HabitDay) models.HabitDay {
					return d.With(h, value)
				})
			}
		},
		Commit: func(ctx context.Context) (models.HabitDay, error) {
			return t.client.ToggleHabit(ctx, req)
		},
		Reconcile: func(tx *cache.Tx, got models.HabitDay) {
			if got.Date.IsZero() {
				got.Date = day
			}
			for _, k := range tx.Keys(affects) {
				patchHabitDay(tx, k, day, func(models.HabitDay) models.HabitDay { return got })
			}
		},
		Revert: func(tx *cache.Tx, k cache.Key) bool {
			return patchHabitDay(tx, k, day, func(d models.HabitDay) models.HabitDay {
				return d.With(h, prior)
			})
		},
		Invalidate: t.covering(day, cache.NamespaceCalendar),
	})
}

// InjectionInput describes an injection to log. Zero fields take defaults:
// the suggested site, today, and the configured dosage.
type InjectionInput struct {
	Site     *models.Site
	Date     *models.LocalDate
	DosageMg *float64
	Notes    *string
	Golden   bool
}

// LogInjection records an injection. The status entry advances its dose
// cycle and the history gains a provisional record until the server
// confirms it.
func (t *Tracker) LogInjection(ctx context.Context, in InjectionInput) (models.Injection, error) {
	user := t.settings.UserID
	today := t.Today()
	date := today
	if in.Date != nil {
		date = *in.Date
	}
	dosage := in.DosageMg
	if dosage == nil {
		dosage = t.settings.DosageMg
	}

	status, err := t.InjectionStatus(ctx)
	if err != nil {
		return models.Injection{}, err
	}
	site := status.SuggestedSite
	if in.Site != nil {
		site = *in.Site
	}

	req := api.LogInjectionRequest{
		UserID:       user,
		Site:         site,
		Notes:        in.Notes,
		Date:         &date,
		DosageMg:     dosage,
		IsGoldenDose: in.Golden,
	}
	result := t.validator().ValidateInjection(req)
	if err := result.Err(); err != nil {
		return models.Injection{}, err
	}

	provisional := models.Injection{
		ClientID:     models.NewClientID(),
		Date:         date,
		Site:         site,
		DosageMg:     dosage,
		Notes:        in.Notes,
		IsGoldenDose: in.Golden,
	}
	statusKey := cache.InjectionStatusKey(user)
	lists := t.mine(cache.NamespaceInjectionHistory)
	months := t.covering(date, cache.NamespaceCalendar)
	affects := either(either(func(k cache.Key) bool { return k == statusKey }, lists), months)

	var prev models.InjectionStatus
	var hadStatus bool

	return mutation.Run(ctx, t.pipeline, mutation.Mutation[models.Injection]{
		Name:    "log_injection",
		Lane:    mutation.InjectionLane(user),
		Affects: affects,
		Apply: func(tx *cache.Tx) {
			if data, ok := tx.Data(statusKey); ok {
				prev, hadStatus = data.(models.InjectionStatus)
			}
			if !hadStatus {
				prev = status
			}
			provisional.DoseNumber = injection.DoseNumberFor(prev, in.Golden, t.cfg)
			if hadStatus {
				tx.Set(statusKey, injection.Advance(prev, provisional, today, t.cfg))
			}
			t.applyInjection(tx, lists, months, func(h []models.Injection, limit int) []models.Injection {
				return prependInjection(h, provisional, limit)
			})
		},
		Commit: func(ctx context.Context) (models.Injection, error) {
			return t.client.LogInjection(ctx, req)
		},
		Reconcile: func(tx *cache.Tx, created models.Injection) {
			if hadStatus {
				tx.Set(statusKey, injection.Advance(prev, created, today, t.cfg))
			}
			t.applyInjection(tx, lists, months, func(h []models.Injection, limit int) []models.Injection {
				out, ok := swapInjection(h, provisional.ClientID, created)
				if !ok {
					out = prependInjection(h, created, limit)
				}
				return out
			})
		},
		Revert: func(tx *cache.Tx, k cache.Key) bool {
			if k == statusKey {
				return false
			}
			return tx.Update(k, func(data any) any {
				switch v := data.(type) {
				case []models.Injection:
					return removeInjection(v, provisional.ClientID)
				case models.MonthAggregate:
					v.Injections = removeInjection(v.Injections, provisional.ClientID)
					return v
				}
				return data
			})
		},
		Invalidate: either(func(k cache.Key) bool { return k == statusKey }, months),
	})
}

func (t *Tracker) applyInjection(tx *cache.Tx, lists, months func(cache.Key) bool, fn func([]models.Injection, int) []models.Injection) {
	for _, k := range tx.Keys(lists) {
		limit := k.Limit
		tx.Update(k, func(data any) any {
			if h, ok := data.([]models.Injection); ok {
				return fn(h, limit)
			}
			return data
		})
	}
	for _, k := range tx.Keys(months) {
		tx.Update(k, func(data any) any {
			if agg, ok := data.(models.MonthAggregate); ok {
				agg.Injections = fn(agg.Injections, 0)
				return agg
			}
			return data
		})
	}
}

// LogWeighIn records a weight reading on date (today when nil).
func (t *Tracker) LogWeighIn(ctx context.Context, weight float64, date *models.LocalDate) (models.WeighIn, error) {
	user := t.settings.UserID
	today := t.Today()
	day := today
	if date != nil {
		day = *date
	}
	req := api.LogWeighInRequest{UserID: user, Weight: weight, Date: &day}
	result := t.validator().ValidateWeighIn(req)
	if err := result.Err(); err != nil {
		return models.WeighIn{}, err
	}

	provisional := models.WeighIn{ClientID: models.NewClientID(), Date: day, Weight: weight}
	latestKey := cache.WeighInLatestKey(user)
	isLatest := func(k cache.Key) bool { return k == latestKey }
	lists := t.mine(cache.NamespaceWeighInHistory)
	months := t.covering(day, cache.NamespaceCalendar)
	affects := either(either(isLatest, lists), months)

	return mutation.Run(ctx, t.pipeline, mutation.Mutation[models.WeighIn]{
		Name:    "log_weighin",
		Lane:    mutation.WeighInLane(user, day),
		Affects: affects,
		Apply: func(tx *cache.Tx) {
			tx.Update(latestKey, func(data any) any {
				prev, _ := data.(models.WeighInLatest)
				return projectLatest(prev, provisional, today)
			})
			t.applyWeighIn(tx, lists, months, func(h []models.WeighIn, limit int) []models.WeighIn {
				return prependWeighIn(h, provisional, limit)
			})
		},
		Commit: func(ctx context.Context) (models.WeighIn, error) {
			return t.client.LogWeighIn(ctx, req)
		},
		Reconcile: func(tx *cache.Tx, created models.WeighIn) {
			tx.Update(latestKey, func(data any) any {
				latest, ok := data.(models.WeighInLatest)
				if !ok || latest.WeighIn == nil || latest.WeighIn.ClientID != provisional.ClientID {
					return data
				}
				w := created
				latest.WeighIn = &w
				return latest
			})
			t.applyWeighIn(tx, lists, months, func(h []models.WeighIn, limit int) []models.WeighIn {
				out, ok := swapWeighIn(h, provisional.ClientID, created)
				if !ok {
					out = prependWeighIn(h, created, limit)
				}
				return out
			})
		},
		Revert: func(tx *cache.Tx, k cache.Key) bool {
			if k == latestKey {
				return false
			}
			return tx.Update(k, func(data any) any {
				switch v := data.(type) {
				case []models.WeighIn:
					return removeWeighIn(v, provisional.ClientID)
				case models.MonthAggregate:
					v.WeighIns = removeWeighIn(v.WeighIns, provisional.ClientID)
					return v
				}
				return data
			})
		},
		Invalidate: either(isLatest, months),
	})
}

func (t *Tracker) applyWeighIn(tx *cache.Tx, lists, months func(cache.Key) bool, fn func([]models.WeighIn, int) []models.WeighIn) {
	for _, k := range tx.Keys(lists) {
		limit := k.Limit
		tx.Update(k, func(data any) any {
			if h, ok := data.([]models.WeighIn); ok {
				return fn(h, limit)
			}
			return data
		})
	}
	for _, k := range tx.Keys(months) {
		tx.Update(k, func(data any) any {
			if agg, ok := data.(models.MonthAggregate); ok {
				agg.WeighIns = fn(agg.WeighIns, 0)
				return agg
			}
			return data
		})
	}
}
