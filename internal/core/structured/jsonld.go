// Package structured extracts schema.org Recipe markup (JSON-LD) embedded in
// HTML. This is the cheap, deterministic extraction path; a result carries a
// fixed high confidence because the markup is publisher-authored.
package structured

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"recipe-extractor/internal/core/ingredient"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"
)

// Parse scans all JSON-LD blocks in the document for a schema.org Recipe
// object, including @graph containers, and maps the first match onto a
// partial Recipe. Returns nil when no block matches; per-block parse errors
// are swallowed, never fatal to the page.
func Parse(html, sourceURL string) *recipe.Recipe {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		common.LogDebug("structured: html parse failed", zap.Error(err))
		return nil
	}

	var found *recipe.Recipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw interface{}
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true // skip malformed block, keep scanning
		}
		if obj := findRecipeObject(raw); obj != nil {
			found = mapRecipe(obj, sourceURL)
			return false
		}
		return true
	})

	return found
}

// findRecipeObject walks a decoded JSON-LD value looking for an object whose
// @type is (or contains) "Recipe".
func findRecipeObject(raw interface{}) map[string]interface{} {
	switch v := raw.(type) {
	case map[string]interface{}:
		if isRecipeType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, item := range graph {
				if obj := findRecipeObject(item); obj != nil {
					return obj
				}
			}
		}
	case []interface{}:
		for _, item := range v {
			if obj := findRecipeObject(item); obj != nil {
				return obj
			}
		}
	}
	return nil
}

// isRecipeType matches @type values that are a string or a list of strings,
// case-insensitively.
func isRecipeType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Recipe")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

func mapRecipe(obj map[string]interface{}, sourceURL string) *recipe.Recipe {
	title := stringValue(obj["name"])

	r := &recipe.Recipe{
		Title:       title,
		Description: stringValue(obj["description"]),
		Language:    InferLanguage(title),
		SourceURL:   sourceURL,
		ImageURL:    firstURL(obj["image"]),
		Author:      firstName(obj["author"]),
		PublishedAt: stringValue(obj["datePublished"]),
		Method:      recipe.MethodStructured,
		Confidence:  recipe.ConfidenceStructured,
		Meta: recipe.Meta{
			PrepMinutes:  ParseISODuration(stringValue(obj["prepTime"])),
			CookMinutes:  ParseISODuration(stringValue(obj["cookTime"])),
			TotalMinutes: ParseISODuration(stringValue(obj["totalTime"])),
			Servings:     firstNumeral(obj["recipeYield"]),
			Difficulty:   recipe.DifficultyUnknown,
			Cuisine:      firstString(obj["recipeCuisine"]),
			Category:     firstString(obj["recipeCategory"]),
		},
	}

	if lines, ok := obj["recipeIngredient"].([]interface{}); ok {
		for _, line := range lines {
			text := strings.TrimSpace(stringValue(line))
			if text == "" {
				continue
			}
			r.Ingredients = append(r.Ingredients, ingredient.ParseLine(text))
		}
	}

	r.Steps = flattenInstructions(obj["recipeInstructions"])
	r.Nutrition = mapNutrition(obj["nutrition"])

	return r
}

// InferLanguage classifies a title: Hebrew when Hebrew-range code points
// outnumber Latin letters, English otherwise.
func InferLanguage(title string) recipe.Language {
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

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

// firstString accepts a string or a list and returns the first non-empty
// string value.
func firstString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		for _, item := range t {
			if s := firstString(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstURL resolves image-like values: a plain string, an object with a url
// property, or a list of either. First resolvable value wins.
func firstURL(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		return stringValue(t["url"])
	case []interface{}:
		for _, item := range t {
			if u := firstURL(item); u != "" {
				return u
			}
		}
	}
	return ""
}

// firstName resolves author-like values: a plain string, an object with a
// name property, or a list of either.
func firstName(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		return stringValue(t["name"])
	case []interface{}:
		for _, item := range t {
			if n := firstName(item); n != "" {
				return n
			}
		}
	}
	return ""
}

var numeralPattern = regexp.MustCompile(`\d+`)

// firstNumeral pulls the first numeral out of a yield value, which may be a
// number, a numeral-containing string, or a list.
func firstNumeral(v interface{}) *int {
	switch t := v.(type) {
	case float64:
		n := int(t)
		return &n
	case json.Number:
		if f, err := t.Float64(); err == nil {
			n := int(f)
			return &n
		}
	case string:
		if m := numeralPattern.FindString(t); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				return &n
			}
		}
	case []interface{}:
		for _, item := range t {
			if n := firstNumeral(item); n != nil {
				return n
			}
		}
	}
	return nil
}

var leadingOrdinal = regexp.MustCompile(`^\s*(?:\d+\s*[.)\-:]|step\s+\d+[.:]?)\s*`)

// flattenInstructions normalizes every instruction shape to a flat ordered
// list of non-empty step strings: newline-delimited string (leading ordinals
// stripped), flat string list, HowToStep objects, or nested sections.
func flattenInstructions(v interface{}) []string {
	var steps []string
	switch t := v.(type) {
	case string:
		for _, line := range strings.Split(t, "\n") {
			line = strings.TrimSpace(leadingOrdinal.ReplaceAllString(line, ""))
			if line != "" {
				steps = append(steps, line)
			}
		}
	case []interface{}:
		for _, item := range t {
			steps = append(steps, flattenItem(item)...)
		}
	}
	return steps
}

func flattenItem(item interface{}) []string {
	switch t := item.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case map[string]interface{}:
		// HowToSection nests steps under itemListElement.
		if nested, ok := t["itemListElement"].([]interface{}); ok {
			var steps []string
			for _, n := range nested {
				steps = append(steps, flattenItem(n)...)
			}
			return steps
		}
		if s := strings.TrimSpace(stringValue(t["text"])); s != "" {
			return []string{s}
		}
		if s := strings.TrimSpace(stringValue(t["name"])); s != "" {
			return []string{s}
		}
	case []interface{}:
		var steps []string
		for _, n := range t {
			steps = append(steps, flattenItem(n)...)
		}
		return steps
	}
	return nil
}

var trailingNumber = regexp.MustCompile(`[\d.]+`)

// mapNutrition extracts numeric values from a schema.org NutritionInformation
// object, where values arrive as strings like "240 calories".
func mapNutrition(v interface{}) *recipe.Nutrition {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	parse := func(key string) *float64 {
		s := stringValue(obj[key])
		if s == "" {
			if f, ok := obj[key].(float64); ok {
				return &f
			}
			return nil
		}
		if m := trailingNumber.FindString(s); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return &f
			}
		}
		return nil
	}

	n := &recipe.Nutrition{
		Calories: parse("calories"),
		Protein:  parse("proteinContent"),
		Fat:      parse("fatContent"),
		Carbs:    parse("carbohydrateContent"),
		Sodium:   parse("sodiumContent"),
	}
	if n.Calories == nil && n.Protein == nil && n.Fat == nil && n.Carbs == nil && n.Sodium == nil {
		return nil
	}
	return n
}
