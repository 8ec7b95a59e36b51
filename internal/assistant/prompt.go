package assistant

import (
	"strings"

	"github.com/dukerupert/mealplan/internal/model"
)

// contextDishLimit caps how many library dishes are listed in the prompt.
const contextDishLimit = 50

const basePrompt = `You are a helpful meal planning assistant for a household. You help users discover new dishes, get recipe ideas, and plan their meals.

Your capabilities:
1. Suggest dishes based on ingredients the user has available
2. Provide random dish ideas for inspiration
3. Help plan meals for different times of day (breakfast, lunch, dinner, snacks, desserts)
4. Add dishes to the user's household dish library when they confirm

When suggesting a dish, always format it clearly with:
- **Name**: [dish name]
- **Category**: [breakfast/lunch/dinner/snack/dessert/any]
- **Description**: [brief description of the dish]
- **Ingredients**: [comma-separated list of main ingredients]

If the user wants to add a dish to their library, use the addDish tool with the dish details. Only use the tool when the user explicitly confirms they want to add it.

Be conversational and friendly. Ask about dietary preferences, available ingredients, cuisine preferences and cooking time when it helps.

Keep responses concise but helpful. Focus on practical, achievable meal suggestions.`

// systemPrompt appends the household's library to the base prompt so the
// model can avoid suggesting dishes the household already has.
func systemPrompt(dishes []model.Dish) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if len(dishes) == 0 {
		b.WriteString("\n\nThe user's dish library is currently empty. Encourage them to add dishes they like!")
		return b.String()
	}

	b.WriteString("\n\nThe user's household already has these dishes in their library:\n")
	for _, d := range dishes {
		b.WriteString("- ")
		b.WriteString(d.Name)
		if d.Category != nil {
			b.WriteString(" (" + string(*d.Category) + ")")
		}
		if n := len(d.Ingredients); n > 0 {
			b.WriteString(": ")
			b.WriteString(strings.Join(d.Ingredients[:min(n, 5)], ", "))
			if n > 5 {
				b.WriteString("...")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\nConsider these when making suggestions - avoid suggesting duplicates unless the user specifically asks.")
	return b.String()
}
