package models

import (
	"fmt"
	"strings"
)

// Habit identifies one of the three tracked daily habits. The zero value is
// not a habit.
type Habit int

const (
	HabitWater Habit = iota + 1
	HabitNutrition
	HabitExercise
)

// AllHabits lists habits in display order.
var AllHabits = []Habit{HabitWater, HabitNutrition, HabitExercise}

func (h Habit) String() string {
	switch h {
	case HabitWater:
		return "water"
	case HabitNutrition:
		return "nutrition"
	case HabitExercise:
		return "exercise"
	default:
		return fmt.Sprintf("habit(%d)", int(h))
	}
}

func (h Habit) Valid() bool {
	return h >= HabitWater && h <= HabitExercise
}

func ParseHabit(s string) (Habit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "water", "w":
		return HabitWater, nil
	case "nutrition", "n":
		return HabitNutrition, nil
	case "exercise", "e":
		return HabitExercise, nil
	default:
		return 0, fmt.Errorf("unknown habit %q (expected water, nutrition or exercise)", s)
	}
}

func (h Habit) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Habit) UnmarshalText(text []byte) error {
	parsed, err := ParseHabit(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HabitDay is one calendar day's three-habit completion record.
// Identity is the date.
type HabitDay struct {
	Date      LocalDate `json:"date"`
	Water     bool      `json:"water"`
	Nutrition bool      `json:"nutrition"`
	Exercise  bool      `json:"exercise"`
}

// Get returns the value of a single habit.
func (d HabitDay) Get(h Habit) bool {
	switch h {
	case HabitWater:
		return d.Water
	case HabitNutrition:
		return d.Nutrition
	case HabitExercise:
		return d.Exercise
	default:
		return false
	}
}

// With returns a copy of d with habit h set to value.
func (d HabitDay) With(h Habit, value bool) HabitDay {
	switch h {
	case HabitWater:
		d.Water = value
	case HabitNutrition:
		d.Nutrition = value
	case HabitExercise:
		d.Exercise = value
	}
	return d
}

// Completed returns how many of the three habits are done.
func (d HabitDay) Completed() int {
	n := 0
	for _, h := range AllHabits {
		if d.Get(h) {
			n++
		}
	}
	return n
}

// Perfect reports whether all three habits are done.
func (d HabitDay) Perfect() bool {
	return d.Completed() == len(AllHabits)
}

// Completion is the fixed-point completion percentage: 0, 33, 66 or 100.
func (d HabitDay) Completion() int {
	return completionSteps[d.Completed()]
}

var completionSteps = [...]int{0, 33, 66, 100}
