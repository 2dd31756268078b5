package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/news-publishing-api/internal/middleware"
	"github.com/news-publishing-api/internal/service"
	"github.com/news-publishing-api/internal/storage"
	"github.com/news-publishing-api/internal/validation"
)

// respondError maps service errors onto HTTP responses
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var verr *service.ValidationError
	var conflict *service.ConflictError
	var storeErr *storage.Error

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not own this article"})
	case errors.As(err, &conflict):
		body := gin.H{"error": conflict.Message, "retryable": conflict.Retryable}
		if conflict.Field != "" {
			body["fields"] = validation.FieldErrors{conflict.Field: conflict.Message}
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &storeErr):
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("Blob store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is unavailable, please retry"})
	default:
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// invalidRequest responds with a single field error
func invalidRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":  "validation failed",
		"fields": validation.FieldErrors{field: message},
	})
}
