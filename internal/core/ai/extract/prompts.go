package extract

import (
	"strings"

	"recipe-extractor/internal/core/ingredient"
)

// maxInputChars bounds the page text sent to the model. Inputs past the bound
// are cut at the limit with a visible marker so the model knows the tail is
// missing.
const maxInputChars = 15000

const truncationMarker = "\n...[INPUT TRUNCATED]"

func truncateInput(text string) (string, bool) {
	if len(text) <= maxInputChars {
		return text, false
	}
	cut := maxInputChars
	// Do not cut inside a multi-byte rune.
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut] + truncationMarker, true
}

const outputSchema = `{
  "title": "string",
  "description": "string",
  "language": "he | en | mixed",
  "image_url": "string, empty if unknown",
  "author": "string, empty if unknown",
  "ingredients": [
    {
      "original": "the ingredient line exactly as written in the source",
      "item": "the ingredient name, cleaned",
      "quantity": "decimal number or null",
      "unit": "one of the allowed unit codes, or null",
      "comment": "preparation note such as chopped or softened, or null"
    }
  ],
  "steps": ["one instruction per entry, numbering stripped"],
  "tips": ["optional notes and variations"],
  "kashrut": "parve | dairy | meat | not_kosher | unknown",
  "meta": {
    "prep_minutes": "integer or null",
    "cook_minutes": "integer or null",
    "total_minutes": "integer or null",
    "servings": "integer or null",
    "difficulty": "easy | medium | hard | unknown",
    "cuisine": "string, empty if unknown",
    "category": "string, empty if unknown",
    "dietary_tags": ["strings"]
  },
  "nutrition": "object with calories, protein_g, fat_g, carbs_g, sodium_mg (numbers or null), or null when the source gives none"
}`

func writeRules(sb *strings.Builder) {
	sb.WriteString("Rules:\n")
	sb.WriteString("- Keep each ingredient's source line verbatim in \"original\".\n")
	sb.WriteString("- Resolve quantities to decimals: fraction words, fraction glyphs and mixed numbers included.\n")
	sb.WriteString("- Normalize units to the allowed codes below; use null when the line has no unit.\n")
	sb.WriteString("- Strip leading numbering from steps.\n")
	sb.WriteString("- Infer kashrut from the ingredients when the source does not state it.\n")
	sb.WriteString("- All times are whole minutes.\n")
	sb.WriteString("- Recipes may be in Hebrew, English or both. Keep titles, items and steps in the source language.\n")
	sb.WriteString("- Answer with a single JSON object matching the schema. No markdown fences, no commentary.\n\n")
	sb.WriteString(ingredient.PromptVocabulary())
	sb.WriteString("\nOutput schema:\n")
	sb.WriteString(outputSchema)
}

func buildFullPrompt(text, sourceURL string) string {
	var sb strings.Builder
	sb.WriteString("Extract the recipe from the page text below into structured JSON.\n\n")
	writeRules(&sb)
	sb.WriteString("\n\nSource URL: ")
	sb.WriteString(sourceURL)
	sb.WriteString("\n\nPage text:\n")
	sb.WriteString(text)
	return sb.String()
}

func buildRefinePrompt(partialJSON, text, sourceURL string) string {
	var sb strings.Builder
	sb.WriteString("The page below was parsed into the partial recipe JSON that follows. ")
	sb.WriteString("Fill in fields the parse left empty (tips, kashrut, difficulty, cuisine, dietary tags, nutrition) ")
	sb.WriteString("and correct obvious parse mistakes. Do not drop or invent ingredients or steps.\n\n")
	writeRules(&sb)
	sb.WriteString("\n\nSource URL: ")
	sb.WriteString(sourceURL)
	sb.WriteString("\n\nPartial recipe:\n")
	sb.WriteString(partialJSON)
	sb.WriteString("\n\nPage text:\n")
	sb.WriteString(text)
	return sb.String()
}

func buildImagePrompt() string {
	var sb strings.Builder
	sb.WriteString("The attached image shows a recipe: a photographed cookbook page, a screenshot or a handwritten card. ")
	sb.WriteString("Read it and extract the recipe into structured JSON.\n\n")
	writeRules(&sb)
	return sb.String()
}
