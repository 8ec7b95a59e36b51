package model

import (
	"strings"
	"time"
)

type MealType string

const (
	MealBreakfast MealType = "BREAKFAST"
	MealLunch     MealType = "LUNCH"
	MealDinner    MealType = "DINNER"
)

func (t MealType) Valid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner:
		return true
	}
	return false
}

// DateLayout is the calendar-date format used for menu days.
const DateLayout = "2006-01-02"

var dateInputLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseDate accepts an ISO date or date-time and returns its calendar date
// in DateLayout. The time of day and any offset are dropped.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

type MenuDay struct {
	ID          *int64    `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	Meals       []Meal    `json:"meals"`
}

type Meal struct {
	ID         int64    `json:"id"`
	Type       MealType `json:"type"`
	MenuDayID  int64    `json:"menu_day_id"`
	DishID     *int64   `json:"dish_id"`
	CustomName *string  `json:"custom_name"`
	Dish       *Dish    `json:"dish,omitempty"`
}
