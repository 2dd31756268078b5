package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/news-publishing-api/internal/middleware"
	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/service"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(services *service.Services, log zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{
		services: services,
		log:      log.With().Str("handler", "category").Logger(),
	}
}

// List handles GET /v1/categories
func (h *CategoryHandler) List(c *gin.Context) {
	result, err := h.services.Category.List(c.Request.Context(), listPage(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newPageView(result, newCategoryView))
}

// Get handles GET /v1/categories/:slug
// Returns the category with a page of its published articles.
func (h *CategoryHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	category, err := h.services.Category.Get(ctx, c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	articles, err := h.services.Article.CategoryFeed(ctx, category.ID, listPage(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": newCategoryView(category),
		"articles": newPageView(articles, func(a *models.Article) ArticleView {
			return newArticleView(a, h.services.Blobs)
		}),
	})
}

// Create handles POST /v1/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var in models.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidRequest(c, "body", "request body must be a JSON object")
		return
	}

	category, err := h.services.Category.Create(c.Request.Context(), middleware.GetActor(c), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, newCategoryView(category))
}

// Update handles PUT /v1/categories/:slug
func (h *CategoryHandler) Update(c *gin.Context) {
	var in models.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		invalidRequest(c, "body", "request body must be a JSON object")
		return
	}

	category, err := h.services.Category.Update(c.Request.Context(), middleware.GetActor(c), c.Param("slug"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newCategoryView(category))
}

// Delete handles DELETE /v1/categories/:slug
// Categories that still have articles cannot be deleted.
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.services.Category.Delete(c.Request.Context(), middleware.GetActor(c), c.Param("slug")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
