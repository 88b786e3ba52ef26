package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"recipe-extractor/internal/core/fetch"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"
)

const structuredPage = `<html><head>
<meta property="og:image" content="https://example.com/og.jpg">
<script type="application/ld+json">{
	"@type": "Recipe",
	"name": "עוגת שוקולד",
	"recipeIngredient": ["2 כוסות קמח", "חצי כוס סוכר", "3 ביצים"],
	"recipeInstructions": ["לערבב", "לאפות"]
}</script>
</head><body></body></html>`

const plainPage = `<html><head></head><body><article><p>Chocolate cake. Mix flour and sugar, add eggs, bake.</p></article></body></html>`

type stubFetcher struct {
	result *fetch.Result
	err    error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (*fetch.Result, error) {
	return s.result, s.err
}

type stubExtractor struct {
	enabled bool
	hasKey  bool

	fullRecipe   *recipe.Recipe
	fullErr      error
	refineRecipe *recipe.Recipe
	refineErr    error
	imageRecipe  *recipe.Recipe
	imageErr     error

	fullCalls   int
	refineCalls int
	imageCalls  int
}

func (s *stubExtractor) Enabled() bool   { return s.enabled }
func (s *stubExtractor) HasAPIKey() bool { return s.hasKey }

func (s *stubExtractor) ExtractFull(_ context.Context, _, _ string) (*recipe.Recipe, []string, error) {
	s.fullCalls++
	return s.fullRecipe, nil, s.fullErr
}

func (s *stubExtractor) Refine(_ context.Context, _ *recipe.Recipe, _, _ string) (*recipe.Recipe, []string, error) {
	s.refineCalls++
	return s.refineRecipe, nil, s.refineErr
}

func (s *stubExtractor) ExtractImage(_ context.Context, _ string) (*recipe.Recipe, []string, error) {
	s.imageCalls++
	return s.imageRecipe, nil, s.imageErr
}

type stubPreparer struct {
	out string
	err error
}

func (s *stubPreparer) Prepare(_ string) (string, error) { return s.out, s.err }

func aiRecipe(method recipe.Method, confidence float64) *recipe.Recipe {
	return &recipe.Recipe{
		Title: "Chocolate Cake",
		Ingredients: []recipe.Ingredient{
			{Original: "2 cups flour", Item: "flour"},
			{Original: "3 eggs", Item: "eggs"},
		},
		Steps:      []string{"Mix", "Bake"},
		Method:     method,
		Confidence: confidence,
	}
}

func TestStructuredPathWithAIDisabled(t *testing.T) {
	ai := &stubExtractor{enabled: false}
	orch := New(&stubFetcher{result: &fetch.Result{RawHTML: structuredPage, Text: "some text"}}, ai, &stubPreparer{})

	result := orch.ExtractFromURL(context.Background(), "https://example.com/cake", Options{})

	if !result.Success {
		t.Fatalf("Success = false: %s (%s)", result.Error, result.Code)
	}
	if result.Recipe.Method != recipe.MethodStructured {
		t.Errorf("Method = %q, want structured", result.Recipe.Method)
	}
	if result.Recipe.Confidence != recipe.ConfidenceStructured {
		t.Errorf("Confidence = %v, want %v", result.Recipe.Confidence, recipe.ConfidenceStructured)
	}
	if ai.fullCalls+ai.refineCalls+ai.imageCalls != 0 {
		t.Errorf("model was called on a structured-only run")
	}
	// The page metadata fills the missing image.
	if result.Recipe.ImageURL != "https://example.com/og.jpg" {
		t.Errorf("ImageURL = %q, want og:image fallback", result.Recipe.ImageURL)
	}
}

func TestStructuredPathRefined(t *testing.T) {
	ai := &stubExtractor{
		enabled:      true,
		hasKey:       true,
		refineRecipe: aiRecipe(recipe.MethodHybrid, recipe.ConfidenceHybrid),
	}
	orch := New(&stubFetcher{result: &fetch.Result{RawHTML: structuredPage, Text: "some text"}}, ai, &stubPreparer{})

	result := orch.ExtractFromURL(context.Background(), "https://example.com/cake", Options{})

	if !result.Success {
		t.Fatalf("Success = false: %s", result.Error)
	}
	if ai.refineCalls != 1 || ai.fullCalls != 0 {
		t.Errorf("calls: refine=%d full=%d, want refine only", ai.refineCalls, ai.fullCalls)
	}
	if result.Recipe.Method != recipe.MethodHybrid {
		t.Errorf("Method = %q, want hybrid", result.Recipe.Method)
	}
	if result.Recipe.Confidence != recipe.ConfidenceHybrid {
		t.Errorf("Confidence = %v, want %v", result.Recipe.Confidence, recipe.ConfidenceHybrid)
	}
}

// A refinement failure must not fail a run whose structured result already
// stands on its own.
func TestRefinementFailureDegrades(t *testing.T) {
	ai := &stubExtractor{
		enabled:   true,
		hasKey:    true,
		refineErr: common.ErrAISchemaViolation,
	}
	orch := New(&stubFetcher{result: &fetch.Result{RawHTML: structuredPage, Text: "some text"}}, ai, &stubPreparer{})

	result := orch.ExtractFromURL(context.Background(), "https://example.com/cake", Options{})

	if !result.Success {
		t.Fatalf("Success = false after refinement failure: %s", result.Error)
	}
	if result.Recipe.Method != recipe.MethodStructured {
		t.Errorf("Method = %q, want structured after degradation", result.Recipe.Method)
	}
	if result.Recipe.Confidence != recipe.ConfidenceStructured {
		t.Errorf("Confidence = %v, want %v", result.Recipe.Confidence, recipe.ConfidenceStructured)
	}

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "refinement failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want refinement failure noted", result.Warnings)
	}
}

func TestAIPathWithoutStructuredData(t *testing.T) {
	ai := &stubExtractor{
		enabled:    true,
		hasKey:     true,
		fullRecipe: aiRecipe(recipe.MethodAI, recipe.ConfidenceAI),
	}
	orch := New(&stubFetcher{result: &fetch.Result{RawHTML: plainPage, Text: "Chocolate cake. Mix flour and sugar."}}, ai, &stubPreparer{})

	result := orch.ExtractFromURL(context.Background(), "https://example.com/cake", Options{})

	if !result.Success {
		t.Fatalf("Success = false: %s (%s)", result.Error, result.Code)
	}
	if ai.fullCalls != 1 || ai.refineCalls != 0 {
		t.Errorf("calls: full=%d refine=%d, want full only", ai.fullCalls, ai.refineCalls)
	}
	if result.Recipe.Method != recipe.MethodAI {
		t.Errorf("Method = %q, want ai", result.Recipe.Method)
	}
	if result.Recipe.Confidence != recipe.ConfidenceAI {
		t.Errorf("Confidence = %v, want %v", result.Recipe.Confidence, recipe.ConfidenceAI)
	}
}

// The two AI preconditions fail with distinct codes: a deliberate deployment
// choice is not a misconfiguration.
func TestAIPreconditionCodes(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		hasKey   bool
		wantCode string
	}{
		{"disabled", false, true, common.ErrCodeAIDisabled},
		{"key missing", true, false, common.ErrCodeAIKeyMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &stubExtractor{enabled: tt.enabled, hasKey: tt.hasKey}
			orch := New(&stubFetcher{result: &fetch.Result{RawHTML: plainPage, Text: "text"}}, ai, &stubPreparer{})

			result := orch.ExtractFromURL(context.Background(), "https://example.com/x", Options{})

			if result.Success {
				t.Fatal("Success = true, want failure")
			}
			if result.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", result.Code, tt.wantCode)
			}
		})
	}
}

func TestSkipAIWithoutStructuredData(t *testing.T) {
	ai := &stubExtractor{enabled: true, hasKey: true, fullRecipe: aiRecipe(recipe.MethodAI, recipe.ConfidenceAI)}
	orch := New(&stubFetcher{result: &fetch.Result{RawHTML: plainPage, Text: "text"}}, ai, &stubPreparer{})

	result := orch.ExtractFromURL(context.Background(), "https://example.com/x", Options{SkipAI: true})

	if result.Success {
		t.Fatal("Success = true, want NO_RECIPE_DATA failure")
	}
	if result.Code != common.ErrCodeNoRecipeData {
		t.Errorf("Code = %q, want %q", result.Code, common.ErrCodeNoRecipeData)
	}
	if ai.fullCalls+ai.refineCalls != 0 {
		t.Error("model was called despite SkipAI")
	}
}

func TestInvalidURL(t *testing.T) {
	orch := New(&stubFetcher{}, &stubExtractor{}, &stubPreparer{})

	for _, url := range []string{"", "not-a-url", "ftp://example.com/x", "http://"} {
		result := orch.ExtractFromURL(context.Background(), url, Options{})
		if result.Success {
			t.Errorf("ExtractFromURL(%q): Success = true, want failure", url)
			continue
		}
		if result.Code != common.ErrCodeInvalidURL {
			t.Errorf("ExtractFromURL(%q): Code = %q, want %q", url, result.Code, common.ErrCodeInvalidURL)
		}
	}
}

func TestFetchFailure(t *testing.T) {
	orch := New(&stubFetcher{err: common.ErrFetchFailed.WithCause(errors.New("connection refused"))}, &stubExtractor{}, &stubPreparer{})

	result := orch.ExtractFromURL(context.Background(), "https://example.com/x", Options{})

	if result.Success {
		t.Fatal("Success = true, want failure")
	}
	if result.Code != common.ErrCodeFetchFailed {
		t.Errorf("Code = %q, want %q", result.Code, common.ErrCodeFetchFailed)
	}
}

func TestImagePath(t *testing.T) {
	ai := &stubExtractor{
		enabled:     true,
		hasKey:      true,
		imageRecipe: aiRecipe(recipe.MethodImage, recipe.ConfidenceImage),
	}
	orch := New(&stubFetcher{}, ai, &stubPreparer{out: "data:image/jpeg;base64,AAAA"})

	result := orch.ExtractFromImage(context.Background(), "AAAA")

	if !result.Success {
		t.Fatalf("Success = false: %s (%s)", result.Error, result.Code)
	}
	if ai.imageCalls != 1 {
		t.Errorf("imageCalls = %d, want 1", ai.imageCalls)
	}
	if result.Recipe.Method != recipe.MethodImage {
		t.Errorf("Method = %q, want image", result.Recipe.Method)
	}
	if result.Recipe.Confidence != recipe.ConfidenceImage {
		t.Errorf("Confidence = %v, want %v", result.Recipe.Confidence, recipe.ConfidenceImage)
	}
}

func TestImagePathPreconditions(t *testing.T) {
	ai := &stubExtractor{enabled: false}
	orch := New(&stubFetcher{}, ai, &stubPreparer{out: "data:image/jpeg;base64,AAAA"})

	result := orch.ExtractFromImage(context.Background(), "AAAA")
	if result.Success || result.Code != common.ErrCodeAIDisabled {
		t.Errorf("Code = %q, want %q", result.Code, common.ErrCodeAIDisabled)
	}
}

func TestImagePathRejectsBadPayload(t *testing.T) {
	ai := &stubExtractor{enabled: true, hasKey: true, imageRecipe: aiRecipe(recipe.MethodImage, recipe.ConfidenceImage)}
	orch := New(&stubFetcher{}, ai, &stubPreparer{err: common.ErrInvalidImageFormat})

	result := orch.ExtractFromImage(context.Background(), "not base64!!!")

	if result.Success {
		t.Fatal("Success = true, want failure")
	}
	if result.Code != "INVALID_IMAGE_FORMAT" {
		t.Errorf("Code = %q, want INVALID_IMAGE_FORMAT", result.Code)
	}
	if ai.imageCalls != 0 {
		t.Error("model was called with an invalid image")
	}
}

func TestImageMetaFallbackOrder(t *testing.T) {
	html := `<html><head>
		<meta name="twitter:image" content="https://example.com/tw.jpg">
		<meta property="og:image" content="https://example.com/og.jpg">
	</head><body></body></html>`
	if got := imageFromMeta(html); got != "https://example.com/og.jpg" {
		t.Errorf("imageFromMeta = %q, want og:image first", got)
	}

	if got := imageFromMeta("<html><body></body></html>"); got != "" {
		t.Errorf("imageFromMeta = %q, want empty", got)
	}
}

func TestResultDurationIsMilliseconds(t *testing.T) {
	start := time.Now().Add(-2 * time.Second)
	result := fail(start, nil, common.ErrNoRecipeData)

	if result.DurationMS < 2000 || result.DurationMS > 3000 {
		t.Errorf("DurationMS = %d, want ~2000 for a 2s run", result.DurationMS)
	}
}
