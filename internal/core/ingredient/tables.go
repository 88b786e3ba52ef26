package ingredient

import (
	"fmt"
	"sort"
	"strings"

	"recipe-extractor/internal/core/recipe"
)

// The vocabulary below is the single quantity/unit grammar. The deterministic
// parser consumes it directly and PromptVocabulary renders the same tables
// into the generative-model instructions, so the two paths cannot drift.

type fractionWord struct {
	Word  string
	Value float64
}

// hebrewFractions is ordered longest-first so a multiword fraction wins over
// its own suffix at the same position.
var hebrewFractions = []fractionWord{
	{"שלושה רבעים", 0.75},
	{"שלושת רבעי", 0.75},
	{"שני שלישים", 0.667},
	{"שני שליש", 0.667},
	{"שמינית", 0.125},
	{"שליש", 0.333},
	{"רבע", 0.25},
	{"חצי", 0.5},
}

// hebrewNumbers maps Hebrew number words (both genders) to decimals.
var hebrewNumbers = map[string]float64{
	"אחד":    1,
	"אחת":    1,
	"שניים":  2,
	"שתיים":  2,
	"שני":    2,
	"שתי":    2,
	"שלושה":  3,
	"שלוש":   3,
	"ארבעה":  4,
	"ארבע":   4,
	"חמישה":  5,
	"חמש":    5,
	"שישה":   6,
	"שש":     6,
	"שבעה":   7,
	"שבע":    7,
	"שמונה":  8,
	"תשעה":   9,
	"תשע":    9,
	"עשרה":   10,
	"עשר":    10,
	"תריסר":  12,
	"עשרים":  20,
}

// hebrewUnits maps Hebrew unit tokens (singular and plural) to unit codes.
var hebrewUnits = map[string]recipe.UnitCode{
	"כוס":      recipe.UnitCup,
	"כוסות":    recipe.UnitCup,
	"כף":       recipe.UnitTbsp,
	"כפות":     recipe.UnitTbsp,
	"כפית":     recipe.UnitTsp,
	"כפיות":    recipe.UnitTsp,
	"מ\"ל":     recipe.UnitMl,
	"מל":       recipe.UnitMl,
	"ליטר":     recipe.UnitL,
	"ליטרים":   recipe.UnitL,
	"גרם":      recipe.UnitG,
	"גר'":      recipe.UnitG,
	"ק\"ג":     recipe.UnitKg,
	"קילו":     recipe.UnitKg,
	"קילוגרם":  recipe.UnitKg,
	"יחידה":    recipe.UnitPiece,
	"יחידות":   recipe.UnitPiece,
	"פרוסה":    recipe.UnitSlice,
	"פרוסות":   recipe.UnitSlice,
	"שן":       recipe.UnitClove,
	"שיניים":   recipe.UnitClove,
	"שיני":     recipe.UnitClove,
	"צרור":     recipe.UnitBunch,
	"צרורות":   recipe.UnitBunch,
	"חבילה":    recipe.UnitPackage,
	"חבילות":   recipe.UnitPackage,
	"קופסה":    recipe.UnitCan,
	"קופסא":    recipe.UnitCan,
	"קופסת":    recipe.UnitCan,
	"פחית":     recipe.UnitCan,
	"צנצנת":    recipe.UnitJar,
	"שקית":     recipe.UnitBag,
	"שקיות":    recipe.UnitBag,
	"קורט":     recipe.UnitPinch,
	"קמצוץ":    recipe.UnitPinch,
}

// hebrewUnitPhrases are multiword Hebrew qualitative units, matched before
// single tokens.
var hebrewUnitPhrases = []struct {
	Phrase string
	Code   recipe.UnitCode
}{
	{"לפי הטעם", recipe.UnitToTaste},
	{"לפי טעם", recipe.UnitToTaste},
	{"לפי הצורך", recipe.UnitAsNeeded},
}

// englishUnits maps lowercase English unit tokens to unit codes. Plural forms
// are folded to the singular code by the parser.
var englishUnits = map[string]recipe.UnitCode{
	"cup":        recipe.UnitCup,
	"tablespoon": recipe.UnitTbsp,
	"tbsp":       recipe.UnitTbsp,
	"tbs":        recipe.UnitTbsp,
	"teaspoon":   recipe.UnitTsp,
	"tsp":        recipe.UnitTsp,
	"ml":         recipe.UnitMl,
	"milliliter": recipe.UnitMl,
	"millilitre": recipe.UnitMl,
	"l":          recipe.UnitL,
	"liter":      recipe.UnitL,
	"litre":      recipe.UnitL,
	"g":          recipe.UnitG,
	"gr":         recipe.UnitG,
	"gram":       recipe.UnitG,
	"kg":         recipe.UnitKg,
	"kilogram":   recipe.UnitKg,
	"oz":         recipe.UnitOz,
	"ounce":      recipe.UnitOz,
	"lb":         recipe.UnitLb,
	"pound":      recipe.UnitLb,
	"piece":      recipe.UnitPiece,
	"pc":         recipe.UnitPiece,
	"slice":      recipe.UnitSlice,
	"clove":      recipe.UnitClove,
	"bunch":      recipe.UnitBunch,
	"package":    recipe.UnitPackage,
	"pkg":        recipe.UnitPackage,
	"can":        recipe.UnitCan,
	"jar":        recipe.UnitJar,
	"bag":        recipe.UnitBag,
	"pinch":      recipe.UnitPinch,
	"dash":       recipe.UnitDash,
}

// englishUnitPhrases are multiword English qualitative units.
var englishUnitPhrases = []struct {
	Phrase string
	Code   recipe.UnitCode
}{
	{"to taste", recipe.UnitToTaste},
	{"as needed", recipe.UnitAsNeeded},
}

// fractionGlyphs maps vulgar fraction code points to decimals.
var fractionGlyphs = map[rune]float64{
	'¼': 0.25,
	'⅓': 0.333,
	'½': 0.5,
	'⅔': 0.667,
	'¾': 0.75,
	'⅛': 0.125,
}

// PromptVocabulary renders the unit and fraction tables as model
// instructions. Both extraction paths honor the same vocabulary because both
// read it from here.
func PromptVocabulary() string {
	var sb strings.Builder

	sb.WriteString("Allowed unit codes (use exactly these, or null when no unit applies):\n")
	codes := make([]string, 0, len(englishUnits))
	seen := map[recipe.UnitCode]bool{}
	for _, code := range englishUnits {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, string(code))
		}
	}
	for _, p := range englishUnitPhrases {
		if !seen[p.Code] {
			seen[p.Code] = true
			codes = append(codes, string(p.Code))
		}
	}
	sort.Strings(codes)
	sb.WriteString(strings.Join(codes, ", "))
	sb.WriteString("\n\nHebrew unit words and their codes:\n")

	hebrewWords := make([]string, 0, len(hebrewUnits))
	for word := range hebrewUnits {
		hebrewWords = append(hebrewWords, word)
	}
	sort.Strings(hebrewWords)
	for _, word := range hebrewWords {
		fmt.Fprintf(&sb, "- %s = %s\n", word, hebrewUnits[word])
	}
	for _, p := range hebrewUnitPhrases {
		fmt.Fprintf(&sb, "- %s = %s\n", p.Phrase, p.Code)
	}

	sb.WriteString("\nHebrew fraction words and their decimal values:\n")
	for _, f := range hebrewFractions {
		fmt.Fprintf(&sb, "- %s = %g\n", f.Word, f.Value)
	}

	sb.WriteString("\nHebrew number words resolve to decimals (e.g. שתי = 2, חמש = 5). ")
	sb.WriteString("Quantities are always decimals: resolve ½, 1/2 and חצי to 0.5.")

	return sb.String()
}
