package models

// Milestone is a streak length worth celebrating.
type Milestone int

const (
	Milestone7  Milestone = 7
	Milestone14 Milestone = 14
	Milestone30 Milestone = 30
)

var Milestones = []Milestone{Milestone7, Milestone14, Milestone30}

// SegmentPosition places a day within a rendered streak bar.
type SegmentPosition string

const (
	SegmentNone     SegmentPosition = "none"
	SegmentSingle   SegmentPosition = "single"
	SegmentStart    SegmentPosition = "start"
	SegmentContinue SegmentPosition = "continue"
	SegmentEnd      SegmentPosition = "end"
)

// StreakData is recomputed from a HabitDay collection on demand.
type StreakData struct {
	CurrentStreak int                     `json:"currentStreak"`
	BestStreak    int                     `json:"bestStreak"`
	StreakDays    map[LocalDate]bool      `json:"streakDays"`
	MilestoneDays map[LocalDate]Milestone `json:"milestoneDays"`
}

func (s StreakData) InStreak(d LocalDate) bool {
	return s.StreakDays[d]
}
