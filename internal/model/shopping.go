package model

import "time"

type ShoppingItem struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	Quantity    *string   `json:"quantity"`
	Checked     bool      `json:"checked"`
	CreatedAt   time.Time `json:"created_at"`
}
