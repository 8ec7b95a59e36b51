package assistant

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/dish"
	"github.com/dukerupert/mealplan/internal/model"
)

const addDishToolName = "addDish"

var addDishTool = anthropic.ToolParam{
	Name:        addDishToolName,
	Description: anthropic.String("Add a dish to the user's household dish library. Use this when the user confirms they want to save a suggested dish."),
	InputSchema: anthropic.ToolInputSchemaParam{
		Properties: map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "The name of the dish",
				"minLength":   1,
				"maxLength":   100,
			},
			"description": map[string]any{
				"type":        "string",
				"description": "A brief description of the dish",
				"maxLength":   500,
			},
			"ingredients": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "List of main ingredients for the dish",
			},
			"category": map[string]any{
				"type":        "string",
				"enum":        categoryNames(),
				"description": "The meal category: breakfast, lunch, dinner, snack, dessert, or any",
			},
		},
		Required: []string{"name", "ingredients", "category"},
	},
}

func categoryNames() []string {
	names := make([]string, len(model.DishCategories))
	for i, c := range model.DishCategories {
		names[i] = string(c)
	}
	return names
}

type addDishInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Category    string   `json:"category"`
}

// ToolResult is what the assistant reports back to the model, and to the
// caller, for one tool call.
type ToolResult struct {
	Success bool        `json:"success"`
	Dish    *model.Dish `json:"dish,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// addDish saves a dish through the same validation as the dish API.
// Failures become unsuccessful results, never errors.
func (a *Assistant) addDish(ctx context.Context, householdID int64, raw json.RawMessage) ToolResult {
	var in addDishInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return ToolResult{Error: "Invalid dish details."}
	}
	if !model.DishCategory(in.Category).Valid() {
		return ToolResult{Error: "category must be one of: breakfast, lunch, dinner, snack, dessert, any"}
	}

	d, err := a.dishes.Create(ctx, householdID, dish.Input{
		Name:        in.Name,
		Description: in.Description,
		Ingredients: in.Ingredients,
		Category:    in.Category,
	})
	if err != nil {
		var e *apperr.Error
		if errors.As(err, &e) && (e.Kind == apperr.Validation || e.Kind == apperr.Conflict) {
			return ToolResult{Error: e.Message}
		}
		a.logger.Error("assistant add dish", "household_id", householdID, "error", err)
		return ToolResult{Error: "Failed to add dish to library. Please try again."}
	}
	return ToolResult{Success: true, Dish: d}
}
