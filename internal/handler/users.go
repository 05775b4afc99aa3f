package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvsouza/cakefund/internal/middleware"
	"github.com/mvsouza/cakefund/internal/models"
)

// ListUsers returns active fund members; ?all=true includes deactivated ones.
func (h *Handler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		users []*models.User
		err   error
	)
	if c.Query("all") == "true" {
		users, err = h.store.ListUsers(ctx)
	} else {
		users, err = h.store.ListActiveUsers(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type createUserRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	IsAdmin bool   `json:"isAdmin"`
}

// CreateUser registers a fund member. Admin only.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		IsActive: true,
		IsAdmin:  req.IsAdmin,
	}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type updateProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	PhotoURL string `json:"photoUrl" validate:"omitempty,url"`
}

// UpdateProfile updates the calling user's own name and photo URL. Balances
// and flags are never editable through this endpoint.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)
	if err := h.store.UpdateUserProfile(ctx, userID, req.Name, req.PhotoURL); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UploadUserPhoto uploads a profile picture (multipart field "file") and
// stores its URL on the calling user.
func (h *Handler) UploadUserPhoto(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage is not configured"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart file field required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	url, err := h.uploader.Upload(ctx, file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
		return
	}

	userID := middleware.GetUserID(c)
	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.UpdateUserProfile(ctx, userID, user.Name, url); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photoUrl": url})
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// SetUserActive activates or deactivates a member. Admin only. A deactivated
// user keeps their history and balance but stops counting toward round
// closure.
func (h *Handler) SetUserActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isActive boolean required"})
		return
	}

	if err := h.store.SetUserActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
