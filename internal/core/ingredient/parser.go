// Package ingredient normalizes Hebrew and English ingredient lines into
// (item, quantity, unit, comment) tuples. Pure functions, no I/O.
package ingredient

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"recipe-extractor/internal/core/recipe"
)

var (
	commentPattern       = regexp.MustCompile(`\(([^)]*)\)`)
	leadingNumberPattern = regexp.MustCompile(`^[0-9][0-9 ./,]*`)
	slashFraction        = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)
	mixedNumber          = regexp.MustCompile(`^(\d+)\s+(\d+)\s*/\s*(\d+)$`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

// ParseLine normalizes one ingredient line. Each step narrows the remaining
// text: parenthesized comment, fraction word, leading numeral, unit token,
// connector cleanup. Whatever remains is the item; unmatched text is never
// dropped.
func ParseLine(text string) recipe.Ingredient {
	original := strings.TrimSpace(text)
	working := original

	// 1. Parenthesized comment.
	comment := ""
	if m := commentPattern.FindStringSubmatchIndex(working); m != nil {
		comment = strings.TrimSpace(working[m[2]:m[3]])
		working = working[:m[0]] + working[m[1]:]
	}

	// 2. Hebrew fraction word, earliest whole-word match.
	var quantity *float64
	if word, value, idx := findFractionWord(working); idx >= 0 {
		quantity = &value
		working = working[:idx] + working[idx+len(word):]
	}

	// 3. Leading numeral run, when no fraction word matched.
	if quantity == nil {
		quantity, working = extractLeadingNumber(working)
	}

	// 4. Unit token: Hebrew table first, then English with plural folding.
	var unit recipe.UnitCode
	unit, working = extractUnit(working)

	// 5. Connector words, dashes, whitespace.
	item := cleanItem(working)
	if item == "" {
		item = original
	}

	return recipe.Ingredient{
		Original: original,
		Item:     item,
		Quantity: quantity,
		Unit:     unit,
		Comment:  comment,
	}
}

// FormatQuantity renders a decimal back into a fraction glyph when one of the
// common tabled values matches, otherwise a plain decimal.
func FormatQuantity(q float64) string {
	for glyph, value := range fractionGlyphs {
		if abs(q-value) < 0.001 {
			return string(glyph)
		}
	}
	// Mixed numbers like 1.5 render as "1½".
	whole := float64(int(q))
	if frac := q - whole; whole >= 1 && frac > 0 {
		for glyph, value := range fractionGlyphs {
			if abs(frac-value) < 0.001 {
				return strconv.Itoa(int(whole)) + string(glyph)
			}
		}
	}
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// findFractionWord returns the earliest whole-word fraction match. The table
// is ordered longest-first so ties at the same index prefer the longer word.
func findFractionWord(text string) (string, float64, int) {
	best := -1
	var bestWord string
	var bestValue float64
	for _, f := range hebrewFractions {
		if idx := indexWord(text, f.Word); idx >= 0 && (best == -1 || idx < best) {
			best = idx
			bestWord = f.Word
			bestValue = f.Value
		}
	}
	return bestWord, bestValue, best
}

// indexWord finds the first occurrence of word in text bounded by non-letter
// runes. Needed because fraction words can prefix item names (חצי vs חציל).
func indexWord(text, word string) int {
	start := 0
	for {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return -1
		}
		idx += start
		if boundaryBefore(text, idx) && boundaryAfter(text, idx+len(word)) {
			return idx
		}
		start = idx + len(word)
	}
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// extractLeadingNumber consumes a quantity from the head of the text: a
// numeral run (decimal, slash fraction, mixed number), a vulgar fraction
// glyph, or a Hebrew number word.
func extractLeadingNumber(text string) (*float64, string) {
	trimmed := strings.TrimSpace(text)

	if run := leadingNumberPattern.FindString(trimmed); run != "" {
		if v, ok := resolveNumber(strings.TrimSpace(strings.Trim(run, ","))); ok {
			return &v, trimmed[len(run):]
		}
	}

	if r, size := utf8.DecodeRuneInString(trimmed); size > 0 {
		if v, ok := fractionGlyphs[r]; ok {
			return &v, trimmed[size:]
		}
	}

	if tok, rest := firstToken(trimmed); tok != "" {
		if v, ok := hebrewNumbers[tok]; ok {
			return &v, rest
		}
	}

	return nil, text
}

// resolveNumber applies the numeral rules in order: plain decimal, slash
// fraction, mixed number. First success wins.
func resolveNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", ".")

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}

	if m := slashFraction.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den != 0 {
			return num / den, true
		}
	}

	if m := mixedNumber.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den != 0 {
			return whole + num/den, true
		}
	}

	return 0, false
}

func firstToken(text string) (string, string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", text
	}
	tok := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), tok))
	return tok, rest
}

// extractUnit removes the first recognized unit token from the text. Hebrew
// phrases and tokens are checked before the English table.
func extractUnit(text string) (recipe.UnitCode, string) {
	for _, p := range hebrewUnitPhrases {
		if idx := indexWord(text, p.Phrase); idx >= 0 {
			return p.Code, text[:idx] + text[idx+len(p.Phrase):]
		}
	}

	fields := strings.Fields(text)
	for i, tok := range fields {
		clean := strings.Trim(tok, ",.;:")
		if code, ok := hebrewUnits[clean]; ok {
			return code, removeField(fields, i)
		}
	}

	lower := lowerASCII(text)
	for _, p := range englishUnitPhrases {
		if idx := indexWord(lower, p.Phrase); idx >= 0 {
			return p.Code, text[:idx] + text[idx+len(p.Phrase):]
		}
	}

	for i, tok := range fields {
		clean := strings.ToLower(strings.Trim(tok, ",.;:"))
		if code, ok := englishUnits[clean]; ok {
			return code, removeField(fields, i)
		}
		// Fold plurals: cups -> cup, tomatoes stays untouched (not a unit).
		if singular := strings.TrimSuffix(clean, "s"); singular != clean {
			if code, ok := englishUnits[singular]; ok {
				return code, removeField(fields, i)
			}
		}
		if singular := strings.TrimSuffix(clean, "es"); singular != clean {
			if code, ok := englishUnits[singular]; ok {
				return code, removeField(fields, i)
			}
		}
	}

	return "", text
}

// lowerASCII lowercases ASCII letters only. Unlike strings.ToLower it always
// preserves byte offsets, so an index found in the copy slices the original
// correctly. The phrase tables it serves are plain ASCII.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func removeField(fields []string, i int) string {
	rest := make([]string, 0, len(fields)-1)
	rest = append(rest, fields[:i]...)
	rest = append(rest, fields[i+1:]...)
	return strings.Join(rest, " ")
}

// cleanItem strips connector words, leading dashes and bullets, and collapses
// whitespace.
func cleanItem(text string) string {
	fields := strings.Fields(text)
	kept := make([]string, 0, len(fields))
	for _, tok := range fields {
		if tok == "של" || strings.EqualFold(tok, "of") {
			continue
		}
		kept = append(kept, tok)
	}
	item := strings.Join(kept, " ")
	item = strings.TrimLeft(item, "-–—• \t")
	item = strings.Trim(item, " ,")
	return whitespaceRun.ReplaceAllString(item, " ")
}
