package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/news-publishing-api/internal/middleware"
	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/service"
)

// Page sizes
const (
	homePerPage     = 12
	defaultPerPage  = 10
	maxPerPage      = 50
	moreNewsLimit   = 5
	maxRequestBytes = 64 << 20
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// Home handles GET /v1/home
func (h *ArticleHandler) Home(c *gin.Context) {
	page := models.NewPageRequest(queryInt(c, "page"), homePerPage, homePerPage, homePerPage)

	result, err := h.services.Article.Home(c.Request.Context(), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.pageView(result))
}

// List handles GET /v1/articles
// Anonymous callers see published articles, authenticated callers also see
// their own drafts.
func (h *ArticleHandler) List(c *gin.Context) {
	page := listPage(c)

	result, err := h.services.Article.List(c.Request.Context(), middleware.GetActor(c), page, c.Query("category_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.pageView(result))
}

// Get handles GET /v1/articles/:slug
func (h *ArticleHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	article, err := h.services.Article.Get(ctx, middleware.GetActor(c), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	more, err := h.services.Article.MoreNews(ctx, article, moreNewsLimit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article":   newArticleView(article, h.services.Blobs),
		"more_news": newArticleViews(more, h.services.Blobs),
	})
}

// Create handles POST /v1/articles
// Accepts a multipart form (with image files) or a JSON body
func (h *ArticleHandler) Create(c *gin.Context) {
	in, files, ok := h.bind(c)
	if !ok {
		return
	}
	defer files.Close()

	article, err := h.services.Article.Create(c.Request.Context(), middleware.GetActor(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, newArticleView(article, h.services.Blobs))
}

// Update handles PUT /v1/articles/:slug
// The submitted content blocks replace the stored list entirely.
func (h *ArticleHandler) Update(c *gin.Context) {
	in, files, ok := h.bind(c)
	if !ok {
		return
	}
	defer files.Close()

	article, err := h.services.Article.Update(c.Request.Context(), middleware.GetActor(c), c.Param("slug"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newArticleView(article, h.services.Blobs))
}

// Delete handles DELETE /v1/articles/:slug
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.services.Article.Delete(c.Request.Context(), middleware.GetActor(c), c.Param("slug")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ArticleHandler) bind(c *gin.Context) (*models.ArticleInput, uploads, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)

	in, files, err := bindArticleInput(c)
	if err != nil {
		var ferr *formError
		if errors.As(err, &ferr) {
			invalidRequest(c, ferr.field, ferr.message)
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return nil, nil, false
	}
	return in, files, true
}

func (h *ArticleHandler) pageView(page *models.Page[*models.Article]) PageView[ArticleView] {
	return newPageView(page, func(a *models.Article) ArticleView {
		return newArticleView(a, h.services.Blobs)
	})
}

func listPage(c *gin.Context) models.PageRequest {
	return models.NewPageRequest(queryInt(c, "page"), queryInt(c, "per_page"), defaultPerPage, maxPerPage)
}

// queryInt returns a query parameter as an int, or 0 when absent or invalid
func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
