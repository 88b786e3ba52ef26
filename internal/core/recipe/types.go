// Package recipe defines the canonical recipe record produced by the
// extraction pipeline. A Recipe is built once per extraction attempt and is
// immutable afterwards; persistence may attach an ID.
package recipe

// Language of the recipe text.
type Language string

const (
	LanguageHebrew  Language = "he"
	LanguageEnglish Language = "en"
	LanguageMixed   Language = "mixed"
)

// Method tags how a recipe was obtained. It is a permanent audit field;
// consumers must never recompute it.
type Method string

const (
	MethodStructured Method = "structured"
	MethodAI         Method = "ai"
	MethodHybrid     Method = "hybrid"
	MethodImage      Method = "image"
)

// Fixed confidence per extraction method. These are deliberate constants, not
// computed from evidence.
const (
	ConfidenceStructured = 0.90
	ConfidenceHybrid     = 0.85
	ConfidenceAI         = 0.75
	ConfidenceImage      = 0.70
)

// Kashrut classification inferred from ingredient composition.
type Kashrut string

const (
	KashrutParve     Kashrut = "parve"
	KashrutDairy     Kashrut = "dairy"
	KashrutMeat      Kashrut = "meat"
	KashrutNotKosher Kashrut = "not_kosher"
	KashrutUnknown   Kashrut = "unknown"
)

// Difficulty of preparation.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = "unknown"
)

// UnitCode is the closed unit vocabulary. Every parser maps onto this set or
// leaves the unit empty; arbitrary strings never reach the canonical form.
type UnitCode string

const (
	UnitCup      UnitCode = "cup"
	UnitTbsp     UnitCode = "tbsp"
	UnitTsp      UnitCode = "tsp"
	UnitMl       UnitCode = "ml"
	UnitL        UnitCode = "l"
	UnitG        UnitCode = "g"
	UnitKg       UnitCode = "kg"
	UnitOz       UnitCode = "oz"
	UnitLb       UnitCode = "lb"
	UnitPiece    UnitCode = "piece"
	UnitSlice    UnitCode = "slice"
	UnitClove    UnitCode = "clove"
	UnitBunch    UnitCode = "bunch"
	UnitPackage  UnitCode = "package"
	UnitCan      UnitCode = "can"
	UnitJar      UnitCode = "jar"
	UnitBag      UnitCode = "bag"
	UnitPinch    UnitCode = "pinch"
	UnitDash     UnitCode = "dash"
	UnitToTaste  UnitCode = "to_taste"
	UnitAsNeeded UnitCode = "as_needed"
	UnitUnknown  UnitCode = "unknown"
)

var unitCodes = map[UnitCode]bool{
	UnitCup: true, UnitTbsp: true, UnitTsp: true, UnitMl: true, UnitL: true,
	UnitG: true, UnitKg: true, UnitOz: true, UnitLb: true, UnitPiece: true,
	UnitSlice: true, UnitClove: true, UnitBunch: true, UnitPackage: true,
	UnitCan: true, UnitJar: true, UnitBag: true, UnitPinch: true,
	UnitDash: true, UnitToTaste: true, UnitAsNeeded: true, UnitUnknown: true,
}

// IsValidUnit reports whether code belongs to the closed unit set.
func IsValidUnit(code UnitCode) bool {
	return unitCodes[code]
}

// Ingredient is one normalized ingredient line. Quantity is always a decimal;
// fractions and number words are resolved at parse time. Unit is empty when no
// unit was recognized.
type Ingredient struct {
	Original string   `json:"original"`
	Item     string   `json:"item"`
	Quantity *float64 `json:"quantity"`
	Unit     UnitCode `json:"unit,omitempty"`
	Comment  string   `json:"comment,omitempty"`
}

// Meta holds timing and serving metadata. Times are minutes.
type Meta struct {
	PrepMinutes  *int       `json:"prep_minutes"`
	CookMinutes  *int       `json:"cook_minutes"`
	TotalMinutes *int       `json:"total_minutes"`
	Servings     *int       `json:"servings"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
	Cuisine      string     `json:"cuisine,omitempty"`
	Category     string     `json:"category,omitempty"`
	DietaryTags  []string   `json:"dietary_tags,omitempty"`
}

// Nutrition holds per-serving nutrition values when the source provides them.
type Nutrition struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein_g,omitempty"`
	Fat      *float64 `json:"fat_g,omitempty"`
	Carbs    *float64 `json:"carbs_g,omitempty"`
	Sodium   *float64 `json:"sodium_mg,omitempty"`
}

// Recipe is the canonical output of the extraction pipeline.
type Recipe struct {
	ID          string       `json:"id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Language    Language     `json:"language"`
	SourceURL   string       `json:"source_url"`
	ImageURL    string       `json:"image_url,omitempty"`
	Author      string       `json:"author,omitempty"`
	PublishedAt string       `json:"published_at,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	Tips        []string     `json:"tips,omitempty"`
	Meta        Meta         `json:"meta"`
	Nutrition   *Nutrition   `json:"nutrition,omitempty"`
	Method      Method       `json:"extraction_method"`
	Confidence  float64      `json:"confidence"`
	Kashrut     Kashrut      `json:"kashrut,omitempty"`
	RawText     string       `json:"raw_text,omitempty"`
}

// IsValid reports whether the record has enough content to stand on its own:
// a title plus at least one ingredient and one step. A record with exactly
// one of each is presumed a parse artifact and rejected.
func (r *Recipe) IsValid() bool {
	if r == nil || r.Title == "" {
		return false
	}
	if len(r.Ingredients) == 0 || len(r.Steps) == 0 {
		return false
	}
	if len(r.Ingredients) == 1 && len(r.Steps) == 1 {
		return false
	}
	return true
}

// ExtractionResult is the value returned to callers. A failed extraction
// carries a nil Recipe and a populated error; warnings are non-fatal.
// DurationMS is wall-clock milliseconds, matching its wire name.
type ExtractionResult struct {
	Success    bool     `json:"success"`
	Recipe     *Recipe  `json:"recipe,omitempty"`
	Error      string   `json:"error,omitempty"`
	Code       string   `json:"code,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}
