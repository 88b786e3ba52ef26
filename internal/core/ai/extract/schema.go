package extract

import (
	"fmt"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"
)

// aiRecipe is the declared output schema for generation calls. The model
// response must conform exactly; violations are a hard failure of the call.
type aiRecipe struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Language    string         `json:"language"`
	ImageURL    string         `json:"image_url"`
	Author      string         `json:"author"`
	Ingredients []aiIngredient `json:"ingredients"`
	Steps       []string       `json:"steps"`
	Tips        []string       `json:"tips"`
	Kashrut     string         `json:"kashrut"`
	Meta        aiMeta         `json:"meta"`
	Nutrition   *aiNutrition   `json:"nutrition"`
}

type aiIngredient struct {
	Original string   `json:"original"`
	Item     string   `json:"item"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Comment  *string  `json:"comment"`
}

type aiMeta struct {
	PrepMinutes  *int     `json:"prep_minutes"`
	CookMinutes  *int     `json:"cook_minutes"`
	TotalMinutes *int     `json:"total_minutes"`
	Servings     *int     `json:"servings"`
	Difficulty   string   `json:"difficulty"`
	Cuisine      string   `json:"cuisine"`
	Category     string   `json:"category"`
	DietaryTags  []string `json:"dietary_tags"`
}

type aiNutrition struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein_g"`
	Fat      *float64 `json:"fat_g"`
	Carbs    *float64 `json:"carbs_g"`
	Sodium   *float64 `json:"sodium_mg"`
}

// decodeRecipe parses model output into the schema, strictly. Markdown fences
// and prose around the JSON object are tolerated; anything inside it is not.
func decodeRecipe(content string) (*aiRecipe, error) {
	body := common.ExtractJSONObject(content)

	var out aiRecipe
	if err := common.ParseJSONStrict(body, &out); err != nil {
		// Retry with bare object keys quoted. The rewrite cannot tell keys
		// from string contents, so it only runs on output that failed to
		// parse as-is.
		out = aiRecipe{}
		if err := common.ParseJSONStrict(common.QuoteJSONKeys(body), &out); err != nil {
			return nil, common.ErrAISchemaViolation.WithCause(err)
		}
	}
	if err := out.validate(); err != nil {
		return nil, common.ErrAISchemaViolation.WithCause(err)
	}
	return &out, nil
}

var kashrutValues = map[string]recipe.Kashrut{
	"parve":      recipe.KashrutParve,
	"dairy":      recipe.KashrutDairy,
	"meat":       recipe.KashrutMeat,
	"not_kosher": recipe.KashrutNotKosher,
	"unknown":    recipe.KashrutUnknown,
	"":           recipe.KashrutUnknown,
}

var difficultyValues = map[string]recipe.Difficulty{
	"easy":    recipe.DifficultyEasy,
	"medium":  recipe.DifficultyMedium,
	"hard":    recipe.DifficultyHard,
	"unknown": recipe.DifficultyUnknown,
	"":        recipe.DifficultyUnknown,
}

func (a *aiRecipe) validate() error {
	if a.Title == "" {
		return fmt.Errorf("missing title")
	}
	if len(a.Ingredients) == 0 {
		return fmt.Errorf("empty ingredients")
	}
	if len(a.Steps) == 0 {
		return fmt.Errorf("empty steps")
	}
	if _, ok := kashrutValues[a.Kashrut]; !ok {
		return fmt.Errorf("kashrut %q outside enum", a.Kashrut)
	}
	if _, ok := difficultyValues[a.Meta.Difficulty]; !ok {
		return fmt.Errorf("difficulty %q outside enum", a.Meta.Difficulty)
	}
	for i, ing := range a.Ingredients {
		if ing.Unit != nil && !recipe.IsValidUnit(recipe.UnitCode(*ing.Unit)) {
			return fmt.Errorf("ingredient %d: unit %q outside unit set", i, *ing.Unit)
		}
	}
	return nil
}

// toRecipe converts validated schema output to the canonical form. Method and
// confidence are set by the caller per entry point.
func (a *aiRecipe) toRecipe(sourceURL string, method recipe.Method, confidence float64) *recipe.Recipe {
	r := &recipe.Recipe{
		Title:       a.Title,
		Description: a.Description,
		Language:    language(a.Language, a.Title),
		SourceURL:   sourceURL,
		ImageURL:    a.ImageURL,
		Author:      a.Author,
		Steps:       a.Steps,
		Tips:        a.Tips,
		Method:      method,
		Confidence:  confidence,
		Kashrut:     kashrutValues[a.Kashrut],
		Meta: recipe.Meta{
			PrepMinutes:  a.Meta.PrepMinutes,
			CookMinutes:  a.Meta.CookMinutes,
			TotalMinutes: a.Meta.TotalMinutes,
			Servings:     a.Meta.Servings,
			Difficulty:   difficultyValues[a.Meta.Difficulty],
			Cuisine:      a.Meta.Cuisine,
			Category:     a.Meta.Category,
			DietaryTags:  a.Meta.DietaryTags,
		},
	}

	for _, ing := range a.Ingredients {
		item := ing.Item
		if item == "" {
			// Item never stays empty when the original line is non-empty.
			item = ing.Original
		}
		var unit recipe.UnitCode
		if ing.Unit != nil {
			unit = recipe.UnitCode(*ing.Unit)
		}
		comment := ""
		if ing.Comment != nil {
			comment = *ing.Comment
		}
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Original: ing.Original,
			Item:     item,
			Quantity: ing.Quantity,
			Unit:     unit,
			Comment:  comment,
		})
	}

	if a.Nutrition != nil {
		r.Nutrition = &recipe.Nutrition{
			Calories: a.Nutrition.Calories,
			Protein:  a.Nutrition.Protein,
			Fat:      a.Nutrition.Fat,
			Carbs:    a.Nutrition.Carbs,
			Sodium:   a.Nutrition.Sodium,
		}
	}

	return r
}

func language(declared, title string) recipe.Language {
	switch declared {
	case "he":
		return recipe.LanguageHebrew
	case "en":
		return recipe.LanguageEnglish
	case "mixed":
		return recipe.LanguageMixed
	}
	// Fall back to the same title heuristic the structured path uses.
	hebrew, latin := 0, 0
	for _, r := range title {
		switch {
		case r >= 0x0590 && r <= 0x05FF:
			hebrew++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}
	if hebrew > latin {
		return recipe.LanguageHebrew
	}
	return recipe.LanguageEnglish
}
