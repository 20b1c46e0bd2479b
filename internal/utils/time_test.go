package utils

import (
	"testing"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		want    string
		wantErr bool
	}{
		{"empty is local", "", time.Local.String(), false},
		{"Local", "Local", time.Local.String(), false},
		{"UTC", "UTC", "UTC", false},
		{"IANA", "Europe/London", "Europe/London", false},
		{"unknown", "Mars/Olympus", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.tz)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadLocation(%q) error = %v, wantErr %v", tt.tz, err, tt.wantErr)
			}
			if !tt.wantErr && loc.String() != tt.want {
				t.Errorf("LoadLocation(%q) = %s, want %s", tt.tz, loc, tt.want)
			}
		})
	}
}

func TestValidateTimezone(t *testing.T) {
	for tz, want := range map[string]bool{
		"":                 true,
		"Local":            true,
		"America/New_York": true,
		"Asia/Tokyo":       true,
		"Invalid/Zone":     false,
		"EST5EDT-bogus":    false,
	} {
		if got := ValidateTimezone(tz); got != want {
			t.Errorf("ValidateTimezone(%q) = %v, want %v", tz, got, want)
		}
	}
}

func TestTodayInAcrossMidnight(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 23:30 UTC on Jan 9 is already Jan 10 in Tokyo.
	instant := time.Date(2024, time.January, 9, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		loc  *time.Location
		want models.LocalDate
	}{
		{"utc", time.UTC, models.NewDate(2024, time.January, 9)},
		{"tokyo", tokyo, models.NewDate(2024, time.January, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TodayIn(tt.loc, instant); got != tt.want {
				t.Errorf("TodayIn() = %s, want %s", got, tt.want)
			}
		})
	}

	if got := TodayIn(nil, instant); got != models.DateOf(instant.In(time.Local)) {
		t.Errorf("TodayIn(nil) = %s, want local day", got)
	}
}

func TestParseOptionalDate(t *testing.T) {
	got, err := ParseOptionalDate("")
	if err != nil || got != nil {
		t.Errorf("ParseOptionalDate(\"\") = %v, %v; want nil, nil", got, err)
	}

	got, err = ParseOptionalDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseOptionalDate() error = %v", err)
	}
	if *got != models.NewDate(2024, time.February, 29) {
		t.Errorf("ParseOptionalDate() = %s", got)
	}

	for _, bad := range []string{"2024/02/29", "29-02-2024", "tomorrow"} {
		if _, err := ParseOptionalDate(bad); err == nil {
			t.Errorf("ParseOptionalDate(%q) expected error", bad)
		}
	}
}
