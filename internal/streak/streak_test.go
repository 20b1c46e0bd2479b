package streak

import (
	"testing"

	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

var base = models.MustParseDate("2024-01-01")

// day returns the date n days after base, so day(1) is 2024-01-01.
func day(n int) models.LocalDate {
	return base.AddDays(n - 1)
}

func perfectOn(days ...int) []models.HabitDay {
	out := make([]models.HabitDay, 0, len(days))
	for _, n := range days {
		out = append(out, models.HabitDay{Date: day(n), Water: true, Nutrition: true, Exercise: true})
	}
	return out
}

func span(from, to int) []int {
	var out []int
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}

func TestComputeCurrentAndBest(t *testing.T) {
	days := perfectOn(1, 2, 3, 5, 6, 7, 8, 9, 10, 11)
	data := Compute(days, Options{Today: day(11)})

	if data.CurrentStreak != 7 {
		t.Errorf("CurrentStreak = %d, want 7", data.CurrentStreak)
	}
	if data.BestStreak < 7 {
		t.Errorf("BestStreak = %d, want >= 7", data.BestStreak)
	}
	for n := 5; n <= 11; n++ {
		if !data.InStreak(day(n)) {
			t.Errorf("day %d should be in streak", n)
		}
	}
	for _, n := range []int{1, 2, 3, 4} {
		if data.InStreak(day(n)) {
			t.Errorf("day %d belongs to a run shorter than 7 and must not be tagged", n)
		}
	}
	if m := data.MilestoneDays[day(11)]; m != models.Milestone7 {
		t.Errorf("milestone on day 11 = %d, want 7", m)
	}
}

func TestComputeMilestonesForFourteenDayRun(t *testing.T) {
	data := Compute(perfectOn(span(1, 14)...), Options{Today: day(14)})

	if len(data.MilestoneDays) != 2 {
		t.Fatalf("got %d milestones, want 2: %v", len(data.MilestoneDays), data.MilestoneDays)
	}
	if data.MilestoneDays[day(7)] != models.Milestone7 {
		t.Errorf("day 7 milestone = %d, want 7", data.MilestoneDays[day(7)])
	}
	if data.MilestoneDays[day(14)] != models.Milestone14 {
		t.Errorf("day 14 milestone = %d, want 14", data.MilestoneDays[day(14)])
	}
	if data.CurrentStreak != 14 || data.BestStreak != 14 {
		t.Errorf("current/best = %d/%d, want 14/14", data.CurrentStreak, data.BestStreak)
	}
}

func TestComputeThirtyDayMilestone(t *testing.T) {
	data := Compute(perfectOn(span(1, 31)...), Options{Today: day(31)})

	want := map[int]models.Milestone{7: 7, 14: 14, 30: 30}
	if len(data.MilestoneDays) != len(want) {
		t.Fatalf("milestones = %v", data.MilestoneDays)
	}
	for n, m := range want {
		if data.MilestoneDays[day(n)] != m {
			t.Errorf("day %d milestone = %d, want %d", n, data.MilestoneDays[day(n)], m)
		}
	}
}

func TestComputeLiveness(t *testing.T) {
	days := perfectOn(span(1, 8)...)

	tests := []struct {
		name  string
		today int
		want  int
	}{
		{name: "last perfect day is today", today: 8, want: 8},
		{name: "last perfect day is yesterday", today: 9, want: 8},
		{name: "gap of two days breaks the streak", today: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := Compute(days, Options{Today: day(tt.today)})
			if data.CurrentStreak != tt.want {
				t.Errorf("CurrentStreak = %d, want %d", data.CurrentStreak, tt.want)
			}
			if data.BestStreak != 8 {
				t.Errorf("BestStreak = %d, want 8", data.BestStreak)
			}
		})
	}
}

func TestComputeShortLiveRunCountsAsCurrent(t *testing.T) {
	data := Compute(perfectOn(10, 11, 12), Options{Today: day(12)})
	if data.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3", data.CurrentStreak)
	}
	if len(data.StreakDays) != 0 {
		t.Errorf("a 3-day run must not be tagged: %v", data.StreakDays)
	}
}

func TestComputeIgnoresImperfectAndFutureDays(t *testing.T) {
	days := perfectOn(1, 2, 3)
	days = append(days,
		models.HabitDay{Date: day(4), Water: true, Nutrition: true},
		models.HabitDay{Date: day(5), Water: true, Nutrition: true, Exercise: true},
	)
	data := Compute(days, Options{Today: day(4)})

	if data.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3 (day 4 imperfect, day 5 in the future)", data.CurrentStreak)
	}
}

func TestComputeNormalizesUnsortedDuplicates(t *testing.T) {
	days := perfectOn(3, 1, 2)
	// A later duplicate for day 2 that is no longer perfect wins.
	days = append(days, models.HabitDay{Date: day(2), Water: true})

	data := Compute(days, Options{Today: day(3)})
	if data.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", data.CurrentStreak)
	}
	if data.BestStreak != 1 {
		t.Errorf("BestStreak = %d, want 1", data.BestStreak)
	}
}

func TestComputeLookback(t *testing.T) {
	days := perfectOn(span(1, 20)...)

	unbounded := Compute(days, Options{Today: day(20)})
	if unbounded.CurrentStreak != 20 {
		t.Errorf("unbounded CurrentStreak = %d, want 20", unbounded.CurrentStreak)
	}

	bounded := Compute(days, Options{Today: day(20), LookbackDays: 10})
	if bounded.CurrentStreak != 10 {
		t.Errorf("bounded CurrentStreak = %d, want 10", bounded.CurrentStreak)
	}
	if bounded.InStreak(day(10)) {
		t.Error("days outside the lookback window must be ignored")
	}
}

func TestComputeEmpty(t *testing.T) {
	data := Compute(nil, Options{Today: day(1)})
	if data.CurrentStreak != 0 || data.BestStreak != 0 {
		t.Errorf("empty input = %+v", data)
	}
	if data.StreakDays == nil || data.MilestoneDays == nil {
		t.Error("maps should be initialized")
	}
}

func TestCompletionPercent(t *testing.T) {
	tests := []struct {
		name string
		day  *models.HabitDay
		want int
	}{
		{name: "no record", day: nil, want: 0},
		{name: "all false", day: &models.HabitDay{}, want: 0},
		{name: "water and exercise", day: &models.HabitDay{Water: true, Exercise: true}, want: 66},
		{name: "all true", day: &models.HabitDay{Water: true, Nutrition: true, Exercise: true}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompletionPercent(tt.day); got != tt.want {
				t.Errorf("CompletionPercent() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPosition(t *testing.T) {
	data := Compute(perfectOn(span(1, 7)...), Options{Today: day(7)})

	tests := []struct {
		n    int
		want models.SegmentPosition
	}{
		{0, models.SegmentNone},
		{1, models.SegmentStart},
		{4, models.SegmentContinue},
		{7, models.SegmentEnd},
		{8, models.SegmentNone},
	}

	for _, tt := range tests {
		if got := Position(data, day(tt.n)); got != tt.want {
			t.Errorf("Position(day %d) = %s, want %s", tt.n, got, tt.want)
		}
	}

	lone := models.StreakData{StreakDays: map[models.LocalDate]bool{day(3): true}}
	if got := Position(lone, day(3)); got != models.SegmentSingle {
		t.Errorf("Position(isolated) = %s, want single", got)
	}
}

func TestTimeline(t *testing.T) {
	days := perfectOn(span(1, 7)...)
	days = append(days, models.HabitDay{Date: day(8), Water: true})
	byDate := Normalize(days)
	data := ComputeMap(byDate, Options{Today: day(8)})

	cells := Timeline(byDate, data, day(6), day(9), day(8))
	if len(cells) != 4 {
		t.Fatalf("got %d cells, want 4", len(cells))
	}
	if cells[1].Milestone != models.Milestone7 || cells[1].Position != models.SegmentEnd {
		t.Errorf("day 7 cell = %+v", cells[1])
	}
	if cells[2].Completion != 33 || cells[2].Position != models.SegmentNone {
		t.Errorf("day 8 cell = %+v", cells[2])
	}
	if !cells[3].Future || cells[3].Completion != 0 {
		t.Errorf("day 9 cell = %+v", cells[3])
	}
	if Timeline(byDate, data, day(5), day(4), day(8)) != nil {
		t.Error("inverted range should return nil")
	}
}
