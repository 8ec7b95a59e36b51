package shopping

import "github.com/dukerupert/mealplan/internal/model"

// Aggregate flattens the ingredients of every dish planned on days, in day,
// meal and ingredient order. Meals without a dish contribute nothing and
// duplicates are kept.
func Aggregate(days []model.MenuDay) []string {
	var out []string
	for _, day := range days {
		for _, meal := range day.Meals {
			if meal.Dish == nil {
				continue
			}
			out = append(out, meal.Dish.Ingredients...)
		}
	}
	return out
}
