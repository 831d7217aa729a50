package mailsync

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invoice-backend/internal/shared/server/middleware"
	"invoice-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches mail sync routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/mail/sync", h.sync)
}

const defaultLookbackDays = 7

type syncRequest struct {
	WorkspaceID string `json:"workspace_id"`
	// Pointer so an explicit 0 is distinguishable from an absent field
	// and rejected by the window bounds check instead of defaulted.
	LookbackDays *int `json:"lookback_days"`
}

func (h *Handler) sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.WorkspaceID = strings.TrimSpace(req.WorkspaceID)
	if req.WorkspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}
	middleware.SetWorkspaceID(c, req.WorkspaceID)
	lookbackDays := defaultLookbackDays
	if req.LookbackDays != nil {
		lookbackDays = *req.LookbackDays
	}

	stats, err := h.Svc.Sync(c.Request.Context(), req.WorkspaceID, lookbackDays)
	if err != nil {
		switch {
		case errors.Is(err, ErrWindowOutOfRange):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrCredentialExpired):
			respond.ErrorWithSuggestion(c, http.StatusUnauthorized, "credential_expired",
				"mailbox credential expired", "reconnect the mailbox account for this workspace",
				gin.H{"partial_stats": stats})
		default:
			respond.Error(c, http.StatusBadGateway, "mailbox_error", "mailbox sync failed", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, stats)
}
