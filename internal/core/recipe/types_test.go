package recipe

import "testing"

func TestRecipeIsValid(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		ingredients int
		steps       int
		want        bool
	}{
		{"complete", "עוגת שוקולד", 5, 4, true},
		{"minimum viable", "Soup", 2, 1, true},
		{"one step two ingredients", "Salad", 2, 1, true},
		{"no title", "", 5, 4, false},
		{"no ingredients", "Cake", 0, 4, false},
		{"no steps", "Cake", 5, 0, false},
		{"exactly one of each", "Cake", 1, 1, false},
		{"one ingredient two steps", "Tea", 1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Recipe{Title: tt.title}
			for i := 0; i < tt.ingredients; i++ {
				r.Ingredients = append(r.Ingredients, Ingredient{Original: "x", Item: "x"})
			}
			for i := 0; i < tt.steps; i++ {
				r.Steps = append(r.Steps, "do something")
			}
			if got := r.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecipeIsValidNil(t *testing.T) {
	var r *Recipe
	if r.IsValid() {
		t.Error("nil recipe reported valid")
	}
}

func TestIsValidUnit(t *testing.T) {
	for _, code := range []UnitCode{UnitCup, UnitTbsp, UnitToTaste, UnitUnknown} {
		if !IsValidUnit(code) {
			t.Errorf("IsValidUnit(%q) = false", code)
		}
	}
	for _, code := range []UnitCode{"", "cups", "glass", "CUP"} {
		if IsValidUnit(code) {
			t.Errorf("IsValidUnit(%q) = true", code)
		}
	}
}
