package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"recipe-extractor/internal/core/fetch"
	"recipe-extractor/internal/core/pipeline"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/infrastructure/config"
	storagecache "recipe-extractor/internal/storage/cache"
	"recipe-extractor/internal/storage/sqlite"
)

type stubFetcher struct {
	result *fetch.Result
	err    error
}

func (s *stubFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Result, error) {
	return s.result, s.err
}

type stubExtractor struct {
	enabled bool
	hasKey  bool
	recipe  *recipe.Recipe
	err     error
}

func (s *stubExtractor) Enabled() bool   { return s.enabled }
func (s *stubExtractor) HasAPIKey() bool { return s.hasKey }

func (s *stubExtractor) ExtractFull(ctx context.Context, rawText, sourceURL string) (*recipe.Recipe, []string, error) {
	return s.recipe, nil, s.err
}

func (s *stubExtractor) Refine(ctx context.Context, partial *recipe.Recipe, rawText, sourceURL string) (*recipe.Recipe, []string, error) {
	return s.recipe, nil, s.err
}

func (s *stubExtractor) ExtractImage(ctx context.Context, imageData string) (*recipe.Recipe, []string, error) {
	return s.recipe, nil, s.err
}

type stubPreparer struct{}

func (stubPreparer) Prepare(input string) (string, error) { return input, nil }

const structuredPage = `<html><head><script type="application/ld+json">
{"@type":"Recipe","name":"Shakshuka","recipeIngredient":["4 eggs","2 cups tomato sauce"],
"recipeInstructions":["Simmer the sauce.","Crack in the eggs and cover."]}
</script></head><body></body></html>`

func newTestServer(t *testing.T, fetcher pipeline.Fetcher, ai pipeline.Extractor) (*gin.Engine, *sqlite.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "recipes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	recipes, err := storagecache.NewService(&config.StorageConfig{RedisEnabled: false})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	h := NewHandler(pipeline.New(fetcher, ai, stubPreparer{}), store, recipes)

	r := gin.New()
	r.POST("/api/v1/extract", h.HandleExtract)
	r.POST("/api/v1/extract/image", h.HandleExtractImage)
	r.GET("/api/v1/recipes/:id", h.HandleGetRecipe)
	r.GET("/api/v1/recipes", h.HandleListRecipes)
	r.DELETE("/api/v1/recipes/:id", h.HandleDeleteRecipe)
	return r, store
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleExtractStructuredSuccess(t *testing.T) {
	fetcher := &stubFetcher{result: &fetch.Result{RawHTML: structuredPage}}
	r, _ := newTestServer(t, fetcher, &stubExtractor{})

	w := postJSON(t, r, "/api/v1/extract", gin.H{"url": "https://example.com/shakshuka"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var result recipe.ExtractionResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %s", result.Error)
	}
	if result.Recipe.Title != "Shakshuka" {
		t.Errorf("Title = %q", result.Recipe.Title)
	}
	if result.Recipe.Method != recipe.MethodStructured {
		t.Errorf("Method = %q, want structured", result.Recipe.Method)
	}
}

func TestHandleExtractPersistsForOwner(t *testing.T) {
	fetcher := &stubFetcher{result: &fetch.Result{RawHTML: structuredPage}}
	r, store := newTestServer(t, fetcher, &stubExtractor{})

	w := postJSON(t, r, "/api/v1/extract", gin.H{
		"url":   "https://example.com/shakshuka",
		"owner": "dana",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var result recipe.ExtractionResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if result.Recipe.ID == "" {
		t.Fatal("persisted recipe has no ID in the response")
	}

	stored, err := store.Get(context.Background(), result.Recipe.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored == nil {
		t.Fatal("recipe not found in store after extraction")
	}
	if stored.Title != "Shakshuka" {
		t.Errorf("stored Title = %q", stored.Title)
	}
}

func TestHandleExtractMissingURL(t *testing.T) {
	r, _ := newTestServer(t, &stubFetcher{}, &stubExtractor{})

	w := postJSON(t, r, "/api/v1/extract", gin.H{"owner": "dana"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleExtractRejectsUnknownFields(t *testing.T) {
	r, _ := newTestServer(t, &stubFetcher{}, &stubExtractor{})

	w := postJSON(t, r, "/api/v1/extract", gin.H{
		"url":  "https://example.com/shakshuka",
		"urll": "typo",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown field", w.Code)
	}
}

func TestHandleExtractFailureStatusByCode(t *testing.T) {
	// No structured data and the AI path disabled: the handler must map the
	// result code onto the matching HTTP status.
	fetcher := &stubFetcher{result: &fetch.Result{RawHTML: "<html><body>nothing here</body></html>"}}
	r, _ := newTestServer(t, fetcher, &stubExtractor{enabled: false})

	w := postJSON(t, r, "/api/v1/extract", gin.H{"url": "https://example.com/empty"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body %s", w.Code, w.Body.String())
	}

	var result recipe.ExtractionResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if result.Code != "AI_DISABLED" {
		t.Errorf("Code = %q, want AI_DISABLED", result.Code)
	}
}

func TestHandleExtractInvalidURL(t *testing.T) {
	r, _ := newTestServer(t, &stubFetcher{}, &stubExtractor{})

	w := postJSON(t, r, "/api/v1/extract", gin.H{"url": "ftp://example.com/recipe"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
}

func TestHandleExtractImageMissingBody(t *testing.T) {
	r, _ := newTestServer(t, &stubFetcher{}, &stubExtractor{})

	w := postJSON(t, r, "/api/v1/extract/image", gin.H{"owner": "dana"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleGetRecipe(t *testing.T) {
	r, store := newTestServer(t, &stubFetcher{}, &stubExtractor{})

	id, err := store.Save(context.Background(), "dana", &recipe.Recipe{
		Title:       "מרק עדשים",
		Language:    recipe.LanguageHebrew,
		SourceURL:   "https://example.com/soup",
		Ingredients: []recipe.Ingredient{{Original: "עדשים"}, {Original: "מים"}},
		Steps:       []string{"לבשל", "להגיש"},
		Method:      recipe.MethodStructured,
		Confidence:  recipe.ConfidenceStructured,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/"+id, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var got recipe.Recipe
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Title != "מרק עדשים" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestHandleGetRecipeNotFound(t *testing.T) {
	r, _ := newTestServer(t, &stubFetcher{}, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/no-such-id", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleDeleteRecipe(t *testing.T) {
	r, store := newTestServer(t, &stubFetcher{}, &stubExtractor{})

	id, err := store.Save(context.Background(), "dana", &recipe.Recipe{
		Title:       "Recipe",
		SourceURL:   "https://example.com/soup",
		Ingredients: []recipe.Ingredient{{Original: "x"}, {Original: "y"}},
		Steps:       []string{"one", "two"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Wrong owner must not delete.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/recipes/"+id+"?owner=lior", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("wrong owner: status = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/recipes/"+id+"?owner=dana", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204, body %s", w.Code, w.Body.String())
	}

	stored, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored != nil {
		t.Error("recipe still in store after delete")
	}

	// Deleting again is a 404, and a missing owner is a client error.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/recipes/"+id+"?owner=dana", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: status = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/recipes/"+id, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing owner: status = %d, want 400", w.Code)
	}
}

func TestHandleListRecipes(t *testing.T) {
	r, store := newTestServer(t, &stubFetcher{}, &stubExtractor{})

	for _, url := range []string{"https://example.com/a", "https://example.com/b"} {
		_, err := store.Save(context.Background(), "dana", &recipe.Recipe{
			Title:       "Recipe",
			SourceURL:   url,
			Ingredients: []recipe.Ingredient{{Original: "x"}, {Original: "y"}},
			Steps:       []string{"one", "two"},
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes?owner=dana", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing owner: status = %d, want 400", w.Code)
	}
}
