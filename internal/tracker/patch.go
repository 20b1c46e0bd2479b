package tracker

import (
	"github.com/prompt2production/needled-mobile-sub000/internal/cache"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// Patch helpers never modify cached values in place: every write builds a
// new value so snapshots taken earlier stay intact.

// patchHabitDay applies fn to the record for date in whatever shape key holds.
// Ranges without a record for date gain one.
func patchHabitDay(tx *cache.Tx, key cache.Key, date models.LocalDate, fn func(models.HabitDay) models.HabitDay) bool {
	return tx.Update(key, func(data any) any {
		switch v := data.(type) {
		case models.HabitDay:
			if v.Date.IsZero() {
				v.Date = date
			}
			if v.Date != date {
				return v
			}
			return fn(v)
		case []models.HabitDay:
			return upsertHabitDay(v, date, fn)
		case models.MonthAggregate:
			v.Habits = upsertHabitDay(v.Habits, date, fn)
			return v
		default:
			return data
		}
	})
}

func upsertHabitDay(days []models.HabitDay, date models.LocalDate, fn func(models.HabitDay) models.HabitDay) []models.HabitDay {
	out := make([]models.HabitDay, 0, len(days)+1)
	found := false
	for _, d := range days {
		if d.Date == date {
			d = fn(d)
			found = true
		}
		out = append(out, d)
	}
	if !found {
		out = append(out, fn(models.HabitDay{Date: date}))
		sortHabitDays(out)
	}
	return out
}

// habitValue reads habit h for date from the first entry among keys holding it.
func habitValue(tx *cache.Tx, keys []cache.Key, date models.LocalDate, h models.Habit) bool {
	for _, k := range keys {
		data, ok := tx.Data(k)
		if !ok {
			continue
		}
		switch v := data.(type) {
		case models.HabitDay:
			if v.Date == date || v.Date.IsZero() {
				return v.Get(h)
			}
		case []models.HabitDay:
			for _, d := range v {
				if d.Date == date {
					return d.Get(h)
				}
			}
		case models.MonthAggregate:
			for _, d := range v.Habits {
				if d.Date == date {
					return d.Get(h)
				}
			}
		}
	}
	return false
}

// prependInjection adds inj to a history list, newest first, keeping at most limit.
func prependInjection(history []models.Injection, inj models.Injection, limit int) []models.Injection {
	out := make([]models.Injection, 0, len(history)+1)
	out = append(out, inj)
	out = append(out, history...)
	sortInjections(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// swapInjection replaces the provisional record carrying clientID with
// created. It reports false when no such record exists.
func swapInjection(history []models.Injection, clientID string, created models.Injection) ([]models.Injection, bool) {
	out := make([]models.Injection, len(history))
	copy(out, history)
	for i := range out {
		if out[i].ClientID == clientID && out[i].Provisional() {
			out[i] = created
			return out, true
		}
	}
	return out, false
}

func removeInjection(history []models.Injection, clientID string) []models.Injection {
	out := make([]models.Injection, 0, len(history))
	for _, inj := range history {
		if inj.ClientID == clientID && inj.Provisional() {
			continue
		}
		out = append(out, inj)
	}
	return out
}

func prependWeighIn(history []models.WeighIn, w models.WeighIn, limit int) []models.WeighIn {
	out := make([]models.WeighIn, 0, len(history)+1)
	out = append(out, w)
	out = append(out, history...)
	sortWeighIns(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func swapWeighIn(history []models.WeighIn, clientID string, created models.WeighIn) ([]models.WeighIn, bool) {
	out := make([]models.WeighIn, len(history))
	copy(out, history)
	for i := range out {
		if out[i].ClientID == clientID && out[i].Provisional() {
			out[i] = created
			return out, true
		}
	}
	return out, false
}

func removeWeighIn(history []models.WeighIn, clientID string) []models.WeighIn {
	out := make([]models.WeighIn, 0, len(history))
	for _, w := range history {
		if w.ClientID == clientID && w.Provisional() {
			continue
		}
		out = append(out, w)
	}
	return out
}

// projectLatest estimates the latest-weigh-in summary after logging w.
// Deltas are carried forward from prev; the server recomputes them.
func projectLatest(prev models.WeighInLatest, w models.WeighIn, today models.LocalDate) models.WeighInLatest {
	if prev.WeighIn != nil && prev.WeighIn.Date.After(w.Date) {
		return prev
	}
	next := models.WeighInLatest{
		WeighIn:            &w,
		CanWeighIn:         prev.CanWeighIn,
		HasWeighedThisWeek: prev.HasWeighedThisWeek,
	}
	if prev.WeighIn != nil {
		delta := w.Weight - prev.WeighIn.Weight
		week := delta
		next.WeekChange = &week
		total := delta
		if prev.TotalChange != nil {
			total += *prev.TotalChange
		}
		next.TotalChange = &total
	}
	if !w.Date.Before(today.StartOfWeek()) {
		next.HasWeighedThisWeek = true
		next.CanWeighIn = false
	}
	return next
}
