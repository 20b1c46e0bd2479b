package utils

import (
	"fmt"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// LoadLocation resolves an IANA name. Empty and "Local" mean the system zone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// TodayIn returns the user's local calendar day for the instant now.
// Every read and write normalizes through here so that streak and cadence
// arithmetic agree near midnight.
func TodayIn(loc *time.Location, now time.Time) models.LocalDate {
	if loc == nil {
		loc = time.Local
	}
	return models.DateOf(now.In(loc))
}

func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// ParseOptionalDate parses a --date flag. Empty means "today" and yields nil
// so the caller's clock decides.
func ParseOptionalDate(raw string) (*models.LocalDate, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", raw)
	}
	return &d, nil
}
