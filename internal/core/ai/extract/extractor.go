package extract

import (
	"context"

	"go.uber.org/zap"

	"recipe-extractor/internal/core/ai/cache"
	"recipe-extractor/internal/core/ai/openrouter"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
)

// Service runs schema-constrained generation through a Generator. It owns the
// prompts and the response contract; transport and caching live elsewhere.
type Service struct {
	cfg   *config.Config
	gen   openrouter.Generator
	cache *cache.Manager
}

func NewService(cfg *config.Config, gen openrouter.Generator, cacheManager *cache.Manager) *Service {
	return &Service{cfg: cfg, gen: gen, cache: cacheManager}
}

func (s *Service) Enabled() bool {
	return s.cfg.OpenRouter.Enabled
}

func (s *Service) HasAPIKey() bool {
	return s.gen.HasAPIKey()
}

// ExtractFull builds a recipe from page text alone. Warnings are non-fatal
// notes for the caller, currently only input truncation.
func (s *Service) ExtractFull(ctx context.Context, rawText, sourceURL string) (*recipe.Recipe, []string, error) {
	text, truncated := truncateInput(rawText)
	var warnings []string
	if truncated {
		warnings = append(warnings, "page text truncated before AI extraction")
	}

	content, err := s.generate(ctx, buildFullPrompt(text, sourceURL), "")
	if err != nil {
		return nil, warnings, err
	}
	parsed, err := decodeRecipe(content)
	if err != nil {
		return nil, warnings, err
	}

	r := parsed.toRecipe(sourceURL, recipe.MethodAI, recipe.ConfidenceAI)
	r.RawText = text
	return r, warnings, nil
}

// Refine asks the model to complete a structured-data parse without changing
// its substance. The refined record keeps the partial's source URL and image
// when the model omits them.
func (s *Service) Refine(ctx context.Context, partial *recipe.Recipe, rawText, sourceURL string) (*recipe.Recipe, []string, error) {
	text, truncated := truncateInput(rawText)
	var warnings []string
	if truncated {
		warnings = append(warnings, "page text truncated before AI refinement")
	}

	partialJSON, err := common.ToJSON(partial)
	if err != nil {
		return nil, warnings, err
	}

	content, err := s.generate(ctx, buildRefinePrompt(partialJSON, text, sourceURL), "")
	if err != nil {
		return nil, warnings, err
	}
	parsed, err := decodeRecipe(content)
	if err != nil {
		return nil, warnings, err
	}

	r := parsed.toRecipe(sourceURL, recipe.MethodHybrid, recipe.ConfidenceHybrid)
	if r.ImageURL == "" {
		r.ImageURL = partial.ImageURL
	}
	if r.Author == "" {
		r.Author = partial.Author
	}
	r.PublishedAt = partial.PublishedAt
	r.RawText = text
	return r, warnings, nil
}

// ExtractImage builds a recipe from an uploaded image. imageData is a data
// URI ready for a multimodal message. There is no page, so the source URL is
// a synthetic upload token.
func (s *Service) ExtractImage(ctx context.Context, imageData string) (*recipe.Recipe, []string, error) {
	content, err := s.generate(ctx, buildImagePrompt(), imageData)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := decodeRecipe(content)
	if err != nil {
		return nil, nil, err
	}

	source := "image-upload:" + common.GenerateUUID()
	return parsed.toRecipe(source, recipe.MethodImage, recipe.ConfidenceImage), nil, nil
}

func (s *Service) generate(ctx context.Context, prompt, imageData string) (string, error) {
	if cached, err := s.cache.Get(ctx, prompt, imageData); err == nil && cached != "" {
		common.LogDebug("ai cache hit", zap.Int("response_len", len(cached)))
		return cached, nil
	}

	content, err := s.gen.Generate(ctx, prompt, imageData)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, prompt, imageData, content); err != nil {
		common.LogWarn("ai cache set failed", zap.Error(err))
	}
	return content, nil
}
