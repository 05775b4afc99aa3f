// Package handler exposes the cake fund over HTTP with gin.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mvsouza/cakefund/internal/evidence"
	"github.com/mvsouza/cakefund/internal/middleware"
	"github.com/mvsouza/cakefund/internal/service"
	"github.com/mvsouza/cakefund/internal/storage"
)

var validate = validator.New()

// Handler holds the services behind the HTTP surface.
type Handler struct {
	store         storage.Store
	contributions *service.ContributionService
	recompute     *service.RecomputeService
	stats         *service.StatsService
	uploader      evidence.Uploader
}

// New creates a Handler. The uploader may be nil, in which case evidence file
// uploads are rejected while link attachments keep working.
func New(store storage.Store, uploader evidence.Uploader) *Handler {
	return &Handler{
		store:         store,
		contributions: service.NewContributionService(store),
		recompute:     service.NewRecomputeService(store),
		stats:         service.NewStatsService(store),
		uploader:      uploader,
	}
}

// RegisterRoutes attaches all fund routes to the engine. Every /api route
// requires an identified caller; admin routes additionally require the admin
// flag.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api", middleware.RequireIdentity(h.store))

	api.GET("/users", h.ListUsers)
	api.PATCH("/users/me", h.UpdateProfile)
	api.POST("/users/me/photo", h.UploadUserPhoto)

	api.POST("/contributions", h.CreateContribution)
	api.GET("/contributions", h.ListContributions)
	api.GET("/contributions/:id", h.GetContribution)
	api.GET("/contributions/:id/shares", h.GetContributionShares)
	api.POST("/contributions/:id/evidence", h.AttachEvidence)

	api.GET("/compensations", h.ListCompensations)
	api.GET("/config", h.GetConfiguration)
	api.GET("/stats", h.GetStats)

	admin := api.Group("", middleware.RequireAdmin())
	admin.POST("/users", h.CreateUser)
	admin.PATCH("/users/:id/active", h.SetUserActive)
	admin.PUT("/config/price", h.SetCakeUnitPrice)
	admin.POST("/admin/recompute", h.Recompute)
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "write conflict, please retry"})
	case errors.Is(err, storage.ErrMaintenance):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fund is under maintenance"})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
