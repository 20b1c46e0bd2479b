package constants

import "time"

const (
	AppName          = "needled"
	DefaultConfigDir = "~/.config/needled"
	DefaultBackend   = "~/.config/needled/needled.db"
	Version          = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Injection cadence
	InjectionCadenceDays = 7
	InjectionDueOffset   = InjectionCadenceDays - 1
	DefaultDosesPerPen   = 4

	// Floating-point tolerance for dose arithmetic (mg)
	DoseEpsilon = 1e-6

	// Streak milestones and the minimum run length that counts as a streak
	MinStreakLength     = 7
	DefaultLookbackDays = 90

	// Query cache
	DefaultStaleTime     = 5 * time.Minute
	DefaultRetryAttempts = 2
	DefaultRetryDelay    = 250 * time.Millisecond

	// History limits
	DefaultInjectionHistoryLimit = 10
	DefaultWeighInHistoryLimit   = 12

	// Accepted weight range (kg)
	MinWeight = 20.0
	MaxWeight = 400.0

	// Server
	DefaultListenAddr = ":8080"
	ProvisionalPrefix = "tmp_"
)
