package shopping

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2 cups flour", "Flour"},
		{"1/2 lb chicken", "Chicken"},
		{"eggs", "Eggs"},
		{"3 large eggs", "Eggs"},
		{"1 tbsp olive oil", "Olive oil"},
		{"2 cloves of garlic", "Garlic"},
		{"1.5 KG potatoes", "Potatoes"},
		{"2 extra-large onions", "Onions"},
		{"1 bunch cilantro", "Cilantro"},
		{"2 bunches kale", "Kale"},
		{"  salt  ", "Salt"},
		{"2 grams sugar", "Sugar"},
		{"1 lemon", "Lemon"},
		{"2 lemons", "Lemons"},
		{"4 limes", "Limes"},
		{"2 gala apples", "Gala apples"},
		{"1 small onion", "Onion"},
		{"2 smoked sausages", "Smoked sausages"},
		{"3 eggs", "Eggs"},
		{"ägg", "Ägg"},
	}
	for _, tt := range tests {
		got := Normalize(tt.input)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeShortRemainderKeepsOriginal(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{" 2 cups ", "2 cups"},
		{"3 g", "3 g"},
		{"1 x", "1 x"},
		{"", ""},
	}
	for _, tt := range tests {
		got := Normalize(tt.input)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	for _, in := range []string{"2 cups flour", "eggs", "1/2 lb chicken"} {
		if a, b := Normalize(in), Normalize(in); a != b {
			t.Errorf("Normalize(%q) gave %q then %q", in, a, b)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key("  FLOUR "); got != "flour" {
		t.Errorf("Key = %q, want %q", got, "flour")
	}
}
