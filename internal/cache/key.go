package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// Namespace groups keys that hold the same kind of query result.
type Namespace string

const (
	NamespaceHabitsToday      Namespace = "habits-today"
	NamespaceHabitsRange      Namespace = "habits-range"
	NamespaceInjectionStatus  Namespace = "injection-status"
	NamespaceInjectionHistory Namespace = "injection-history"
	NamespaceWeighInLatest    Namespace = "weighin-latest"
	NamespaceWeighInHistory   Namespace = "weighin-history"
	NamespaceCalendar         Namespace = "calendar"
)

// DefaultStaleTimes is how long a result in each namespace is served without
// a fetch.
var DefaultStaleTimes = map[Namespace]time.Duration{
	NamespaceHabitsToday:      2 * time.Minute,
	NamespaceHabitsRange:      5 * time.Minute,
	NamespaceInjectionStatus:  5 * time.Minute,
	NamespaceInjectionHistory: 10 * time.Minute,
	NamespaceWeighInLatest:    5 * time.Minute,
	NamespaceWeighInHistory:   10 * time.Minute,
	NamespaceCalendar:         10 * time.Minute,
}

// Key identifies one query result. Range-bearing keys set From and To
// (inclusive); list keys set Limit. Keys are comparable and used directly as
// map keys.
type Key struct {
	Namespace Namespace
	UserID    string
	From      models.LocalDate
	To        models.LocalDate
	Limit     int
}

// TodayKey is the habit record for a single day.
func TodayKey(userID string, day models.LocalDate) Key {
	return Key{Namespace: NamespaceHabitsToday, UserID: userID, From: day, To: day}
}

// RangeKey is the habit records for [from, to].
func RangeKey(userID string, from, to models.LocalDate) Key {
	return Key{Namespace: NamespaceHabitsRange, UserID: userID, From: from, To: to}
}

// WeekKey is the seven days ending on end.
func WeekKey(userID string, end models.LocalDate) Key {
	return RangeKey(userID, end.AddDays(-6), end)
}

func InjectionStatusKey(userID string) Key {
	return Key{Namespace: NamespaceInjectionStatus, UserID: userID}
}

func InjectionHistoryKey(userID string, limit int) Key {
	return Key{Namespace: NamespaceInjectionHistory, UserID: userID, Limit: limit}
}

func WeighInLatestKey(userID string) Key {
	return Key{Namespace: NamespaceWeighInLatest, UserID: userID}
}

func WeighInHistoryKey(userID string, limit int) Key {
	return Key{Namespace: NamespaceWeighInHistory, UserID: userID, Limit: limit}
}

// CalendarKey is the month aggregate for year/month.
func CalendarKey(userID string, year int, month time.Month) Key {
	from, to := models.MonthBounds(year, month)
	return Key{Namespace: NamespaceCalendar, UserID: userID, From: from, To: to}
}

// Covers reports whether the key's date range includes d.
func (k Key) Covers(d models.LocalDate) bool {
	if k.From.IsZero() || k.To.IsZero() {
		return false
	}
	return d.Between(k.From, k.To)
}

func (k Key) String() string {
	parts := []string{string(k.Namespace), k.UserID}
	if !k.From.IsZero() {
		parts = append(parts, k.From.String()+".."+k.To.String())
	}
	if k.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit=%d", k.Limit))
	}
	return strings.Join(parts, "/")
}
