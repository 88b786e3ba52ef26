// Package pipeline runs the extraction state machine: fetch the page, try the
// structured-data path, and fall through to (or refine with) the AI path.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"recipe-extractor/internal/core/fetch"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/structured"
	"recipe-extractor/internal/pkg/common"
)

// Fetcher is the page source the orchestrator drives.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Extractor is the model-backed path. The orchestrator depends only on this
// surface; which vendor sits behind it is an assembly concern.
type Extractor interface {
	Enabled() bool
	HasAPIKey() bool
	ExtractFull(ctx context.Context, rawText, sourceURL string) (*recipe.Recipe, []string, error)
	Refine(ctx context.Context, partial *recipe.Recipe, rawText, sourceURL string) (*recipe.Recipe, []string, error)
	ExtractImage(ctx context.Context, imageData string) (*recipe.Recipe, []string, error)
}

// ImagePreparer validates an uploaded image and normalizes it to a data URI.
type ImagePreparer interface {
	Prepare(input string) (string, error)
}

// Options tune a single extraction run.
type Options struct {
	// SkipAI keeps the run on the structured path only. A page with no
	// usable structured data then fails instead of falling through to the
	// model.
	SkipAI bool
}

type Orchestrator struct {
	fetcher Fetcher
	ai      Extractor
	images  ImagePreparer
}

func New(fetcher Fetcher, ai Extractor, images ImagePreparer) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, ai: ai, images: images}
}

// ExtractFromURL runs the full pipeline for one page. It always returns a
// result value; failures are reported inside it, never as a panic or a nil.
func (o *Orchestrator) ExtractFromURL(ctx context.Context, rawURL string, opts Options) *recipe.ExtractionResult {
	start := time.Now()

	if _, err := fetch.ValidateURL(rawURL); err != nil {
		return fail(start, nil, err)
	}

	page, err := o.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return fail(start, nil, err)
	}

	var warnings []string

	partial := structured.Parse(page.RawHTML, rawURL)
	if partial.IsValid() {
		return o.fromStructured(ctx, start, page, partial, rawURL, opts, warnings)
	}
	if partial != nil {
		warnings = append(warnings, "structured data present but incomplete")
		common.LogDebug("structured data rejected",
			zap.String("url", rawURL),
			zap.Int("ingredients", len(partial.Ingredients)),
			zap.Int("steps", len(partial.Steps)))
	}

	if opts.SkipAI {
		return fail(start, warnings, common.ErrNoRecipeData)
	}
	if err := o.aiAvailable(); err != nil {
		return fail(start, warnings, err)
	}

	text := page.Text
	if text == "" {
		text = page.RawHTML
	}
	r, aiWarnings, err := o.ai.ExtractFull(ctx, text, rawURL)
	warnings = append(warnings, aiWarnings...)
	if err != nil {
		return fail(start, warnings, err)
	}

	return succeed(start, finalize(r, page), warnings)
}

// fromStructured finishes a run whose structured parse stands on its own. The
// model, when available, only refines; a refinement failure degrades to the
// structured record with a warning instead of failing the run.
func (o *Orchestrator) fromStructured(ctx context.Context, start time.Time, page *fetch.Result, partial *recipe.Recipe, rawURL string, opts Options, warnings []string) *recipe.ExtractionResult {
	partial.RawText = page.Text

	if opts.SkipAI || o.aiAvailable() != nil {
		return succeed(start, finalize(partial, page), warnings)
	}

	refined, aiWarnings, err := o.ai.Refine(ctx, partial, page.Text, rawURL)
	warnings = append(warnings, aiWarnings...)
	if err != nil {
		common.LogWarn("AI refinement failed, keeping structured result",
			zap.String("url", rawURL), zap.Error(err))
		warnings = append(warnings, "AI refinement failed; returning structured-data result")
		return succeed(start, finalize(partial, page), warnings)
	}

	return succeed(start, finalize(refined, page), warnings)
}

// ExtractFromImage runs the image path. There is no page to fetch and no
// structured fallback, so an unavailable model is an immediate failure.
func (o *Orchestrator) ExtractFromImage(ctx context.Context, imageData string) *recipe.ExtractionResult {
	start := time.Now()

	if err := o.aiAvailable(); err != nil {
		return fail(start, nil, err)
	}

	dataURI, err := o.images.Prepare(imageData)
	if err != nil {
		return fail(start, nil, err)
	}

	r, warnings, err := o.ai.ExtractImage(ctx, dataURI)
	if err != nil {
		return fail(start, warnings, err)
	}

	return succeed(start, finalize(r, nil), warnings)
}

// aiAvailable distinguishes the two preconditions so callers can tell a
// deliberate deployment choice from a misconfiguration.
func (o *Orchestrator) aiAvailable() error {
	if !o.ai.Enabled() {
		return common.ErrAIDisabled
	}
	if !o.ai.HasAPIKey() {
		return common.ErrAIKeyMissing
	}
	return nil
}

func finalize(r *recipe.Recipe, page *fetch.Result) *recipe.Recipe {
	if page != nil {
		if r.ImageURL == "" {
			r.ImageURL = imageFromMeta(page.RawHTML)
		}
		if r.Author == "" {
			r.Author = page.Byline
		}
	}
	if r.Kashrut == "" {
		r.Kashrut = recipe.KashrutUnknown
	}
	if r.Meta.Difficulty == "" {
		r.Meta.Difficulty = recipe.DifficultyUnknown
	}
	return r
}

func succeed(start time.Time, r *recipe.Recipe, warnings []string) *recipe.ExtractionResult {
	if r.Nutrition == nil {
		warnings = append(warnings, "source provides no nutrition information")
	}
	return &recipe.ExtractionResult{
		Success:    true,
		Recipe:     r,
		Warnings:   warnings,
		DurationMS: time.Since(start).Milliseconds(),
	}
}

func fail(start time.Time, warnings []string, err error) *recipe.ExtractionResult {
	return &recipe.ExtractionResult{
		Success:    false,
		Error:      err.Error(),
		Code:       common.CodeOf(err),
		Warnings:   warnings,
		DurationMS: time.Since(start).Milliseconds(),
	}
}
