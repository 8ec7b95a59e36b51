package model

import "time"

type DishCategory string

const (
	CategoryBreakfast DishCategory = "breakfast"
	CategoryLunch     DishCategory = "lunch"
	CategoryDinner    DishCategory = "dinner"
	CategorySnack     DishCategory = "snack"
	CategoryDessert   DishCategory = "dessert"
	CategoryAny       DishCategory = "any"
)

// DishCategories lists every valid category in display order.
var DishCategories = []DishCategory{
	CategoryBreakfast, CategoryLunch, CategoryDinner, CategorySnack, CategoryDessert, CategoryAny,
}

func (c DishCategory) Valid() bool {
	for _, v := range DishCategories {
		if c == v {
			return true
		}
	}
	return false
}

type Dish struct {
	ID          int64         `json:"id"`
	HouseholdID int64         `json:"household_id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Ingredients []string      `json:"ingredients"`
	Category    *DishCategory `json:"category"`
	ImageURL    *string       `json:"image_url"`
	MealCount   int           `json:"meal_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
