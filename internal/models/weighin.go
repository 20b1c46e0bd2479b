package models

import "time"

// WeighIn is a single body-weight reading.
type WeighIn struct {
	ID       string    `json:"id"`
	ClientID string    `json:"clientId,omitempty"`
	Date     LocalDate `json:"date"`
	Weight   float64   `json:"weight"`
}

func (w WeighIn) Provisional() bool {
	return w.ID == "" && w.ClientID != ""
}

// WeighInLatest is the most recent reading plus server-computed deltas.
// CanWeighIn and HasWeighedThisWeek are advisory.
type WeighInLatest struct {
	WeighIn            *WeighIn `json:"weighIn"`
	WeekChange         *float64 `json:"weekChange"`
	TotalChange        *float64 `json:"totalChange"`
	CanWeighIn         bool     `json:"canWeighIn"`
	HasWeighedThisWeek bool     `json:"hasWeighedThisWeek"`
}

// MonthAggregate is every record falling in one calendar month.
type MonthAggregate struct {
	Year       int         `json:"year"`
	Month      time.Month  `json:"month"`
	Habits     []HabitDay  `json:"habits"`
	WeighIns   []WeighIn   `json:"weighIns"`
	Injections []Injection `json:"injections"`
}
