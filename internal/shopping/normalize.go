// Package shopping turns planned meals into shopping-list entries and manages
// a household's shopping list.
package shopping

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Unit words recognised after a leading amount. Each must end on a word
// boundary so "2 grams sugar" is not read as "2 g" + "rams sugar".
var amountPattern = regexp.MustCompile(`(?i)^[\d\s./]+\s*(?:(?:` + strings.Join([]string{
	`cups?`, `tbsps?`, `tsps?`, `tablespoons?`, `teaspoons?`,
	`oz`, `ounces?`, `lbs?`, `pounds?`, `g`, `grams?`, `kg`, `kilograms?`,
	`ml`, `milliliters?`, `l`, `liters?`, `litres?`,
	`pieces?`, `slices?`, `cloves?`, `heads?`, `bunch(?:es)?`, `cans?`, `jars?`,
	`small`, `medium`, `extra-large`, `large`,
}, "|") + `)\b)?\s*(?:of\s+)?`)

// Normalize strips a leading amount and unit from a free-text ingredient and
// capitalises what remains. If that would leave fewer than two characters the
// trimmed input is returned unchanged.
//
//	Normalize("2 cups flour")   == "Flour"
//	Normalize("1/2 lb chicken") == "Chicken"
func Normalize(raw string) string {
	stripped := strings.TrimSpace(amountPattern.ReplaceAllString(raw, ""))
	if utf8.RuneCountInString(stripped) < 2 {
		return strings.TrimSpace(raw)
	}
	r, size := utf8.DecodeRuneInString(stripped)
	return string(unicode.ToUpper(r)) + stripped[size:]
}

// Key is the deduplication key of a shopping entry.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
