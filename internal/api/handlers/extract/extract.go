// Package extract exposes the extraction pipeline over HTTP.
package extract

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-extractor/internal/core/pipeline"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"
	storagecache "recipe-extractor/internal/storage/cache"
	"recipe-extractor/internal/storage/sqlite"
)

type Handler struct {
	orch    *pipeline.Orchestrator
	store   *sqlite.Store
	recipes *storagecache.Service
}

func NewHandler(orch *pipeline.Orchestrator, store *sqlite.Store, recipes *storagecache.Service) *Handler {
	return &Handler{orch: orch, store: store, recipes: recipes}
}

type extractRequest struct {
	URL    string `json:"url"`
	Owner  string `json:"owner"`
	SkipAI bool   `json:"skip_ai"`
}

type imageRequest struct {
	Image string `json:"image"`
	Owner string `json:"owner"`
}

// HandleExtract runs the URL pipeline. The result is persisted only when the
// request names an owner. Bodies are decoded strictly: unknown fields are a
// client error, not silently dropped input.
func (h *Handler) HandleExtract(c *gin.Context) {
	var req extractRequest
	if err := common.DecodeJSONStrict(c.Request.Body, &req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "request body must carry a url field",
		})
		return
	}

	result := h.orch.ExtractFromURL(c.Request.Context(), req.URL, pipeline.Options{SkipAI: req.SkipAI})
	h.respond(c, result, req.Owner)
}

// HandleExtractImage runs the image pipeline on a base64 payload.
func (h *Handler) HandleExtractImage(c *gin.Context) {
	var req imageRequest
	if err := common.DecodeJSONStrict(c.Request.Body, &req); err != nil || req.Image == "" {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "request body must carry an image field",
		})
		return
	}

	result := h.orch.ExtractFromImage(c.Request.Context(), req.Image)
	h.respond(c, result, req.Owner)
}

func (h *Handler) respond(c *gin.Context, result *recipe.ExtractionResult, owner string) {
	if !result.Success {
		c.JSON(common.StatusForCode(result.Code), result)
		return
	}

	if owner != "" {
		h.persist(c.Request.Context(), owner, result.Recipe)
	}

	c.JSON(http.StatusOK, result)
}

// persist saves best-effort: a storage failure does not fail an extraction
// that already succeeded.
func (h *Handler) persist(ctx context.Context, owner string, r *recipe.Recipe) {
	id, err := h.store.Save(ctx, owner, r)
	if err != nil {
		common.LogError("failed to persist recipe",
			zap.String("owner", owner),
			zap.String("source_url", r.SourceURL),
			zap.Error(err))
		return
	}
	r.ID = id

	if err := h.recipes.Set(ctx, r); err != nil {
		common.LogWarn("failed to cache recipe", zap.String("id", id), zap.Error(err))
	}
}

// HandleGetRecipe serves a stored recipe by ID, read-through cached.
func (h *Handler) HandleGetRecipe(c *gin.Context) {
	id := c.Param("id")

	if r, err := h.recipes.Get(c.Request.Context(), id); err == nil && r != nil {
		c.JSON(http.StatusOK, r)
		return
	}

	r, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{
			Code:    common.ErrCodeInternalError,
			Message: "failed to load recipe",
		})
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: "recipe not found",
		})
		return
	}

	if err := h.recipes.Set(c.Request.Context(), r); err != nil {
		common.LogWarn("failed to cache recipe", zap.String("id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, r)
}

// HandleDeleteRecipe removes an owner's stored recipe and drops it from the
// cache. Deleting another owner's recipe looks the same as deleting a missing
// one.
func (h *Handler) HandleDeleteRecipe(c *gin.Context) {
	id := c.Param("id")
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "owner query parameter is required",
		})
		return
	}

	deleted, err := h.store.Delete(c.Request.Context(), owner, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{
			Code:    common.ErrCodeInternalError,
			Message: "failed to delete recipe",
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: "recipe not found",
		})
		return
	}

	if err := h.recipes.Invalidate(c.Request.Context(), id); err != nil {
		common.LogWarn("failed to invalidate cached recipe", zap.String("id", id), zap.Error(err))
	}

	c.Status(http.StatusNoContent)
}

// HandleListRecipes serves an owner's stored recipes.
func (h *Handler) HandleListRecipes(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "owner query parameter is required",
		})
		return
	}

	recipes, err := h.store.ListByOwner(c.Request.Context(), owner, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{
			Code:    common.ErrCodeInternalError,
			Message: "failed to list recipes",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes, "count": len(recipes)})
}
