package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/evidence"
	"github.com/mvsouza/cakefund/internal/middleware"
	"github.com/mvsouza/cakefund/internal/service"
)

const purchaseDateLayout = "2006-01-02"

type createContributionRequest struct {
	PurchaseDate       string   `json:"purchaseDate" validate:"required"`
	Value              string   `json:"value" validate:"required"`
	IsDivided          bool     `json:"isDivided"`
	ParticipantUserIDs []string `json:"participantUserIds"`
	EvidenceURL        string   `json:"purchaseEvidenceUrl"`
}

type contributionResponse struct {
	ContributionID      string `json:"contributionId"`
	QuantityCakes       string `json:"quantityCakes"`
	RoundID             int64  `json:"roundId"`
	CompensationCreated bool   `json:"compensationCreated"`
	EvidenceAttached    bool   `json:"evidenceAttached"`
}

// CreateContribution commits a contribution for the calling user. An optional
// evidence link is attached after the commit; a failure there is reported but
// never undoes the contribution.
func (h *Handler) CreateContribution(c *gin.Context) {
	var req createContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purchaseDate, err := time.ParseInLocation(purchaseDateLayout, req.PurchaseDate, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purchaseDate must be YYYY-MM-DD"})
		return
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a decimal number"})
		return
	}
	if req.EvidenceURL != "" {
		if err := evidence.ValidateLink(req.EvidenceURL); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.contributions.CreateContribution(c.Request.Context(), service.CreateContributionInput{
		PayerUserID:        middleware.GetUserID(c),
		PurchaseDate:       purchaseDate,
		Value:              value,
		IsDivided:          req.IsDivided,
		ParticipantUserIDs: req.ParticipantUserIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := contributionResponse{
		ContributionID:      result.ContributionID,
		QuantityCakes:       result.QuantityCakes.String(),
		RoundID:             result.RoundID,
		CompensationCreated: result.CompensationCreated,
	}
	if req.EvidenceURL != "" {
		if err := h.contributions.UpdateContributionEvidence(c.Request.Context(), result.ContributionID, req.EvidenceURL); err != nil {
			slog.Warn("evidence attachment failed after commit",
				"contribution_id", result.ContributionID, "error", err)
		} else {
			resp.EvidenceAttached = true
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// ListContributions returns the full history, oldest first. An optional
// userId query narrows it to one payer.
func (h *Handler) ListContributions(c *gin.Context) {
	ctx := c.Request.Context()
	if userID := c.Query("userId"); userID != "" {
		contributions, err := h.store.ListContributionsByUser(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, contributions)
		return
	}

	contributions, err := h.store.ListContributions(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contributions)
}

// GetContribution returns one contribution by ID.
func (h *Handler) GetContribution(c *gin.Context) {
	contribution, err := h.store.GetContribution(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contribution)
}

// GetContributionShares returns the per-user split of a divided contribution.
func (h *Handler) GetContributionShares(c *gin.Context) {
	shares, err := h.contributions.GetContributionDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shares)
}

type attachLinkRequest struct {
	EvidenceURL string `json:"purchaseEvidenceUrl" validate:"required"`
}

// AttachEvidence attaches a receipt to an existing contribution, either as an
// uploaded file (multipart field "file") or as a caller-supplied link.
func (h *Handler) AttachEvidence(c *gin.Context) {
	contributionID := c.Param("id")
	ctx := c.Request.Context()

	if fileHeader, err := c.FormFile("file"); err == nil {
		if h.uploader == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "evidence storage is not configured"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
			return
		}
		defer file.Close()

		url, err := h.uploader.Upload(ctx, file, fileHeader.Filename)
		if err != nil {
			slog.Warn("evidence upload failed", "contribution_id", contributionID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "evidence upload failed"})
			return
		}
		if err := h.contributions.UpdateContributionEvidence(ctx, contributionID, url); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"purchaseEvidenceUrl": url})
		return
	}

	var req attachLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide a multipart file or a purchaseEvidenceUrl"})
		return
	}
	if err := evidence.ValidateLink(req.EvidenceURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.contributions.UpdateContributionEvidence(ctx, contributionID, req.EvidenceURL); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchaseEvidenceUrl": req.EvidenceURL})
}
