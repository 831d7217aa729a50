package invoices

import (
	"errors"
	"net/http"

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

// RegisterRoutes attaches invoice routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/invoices", h.list)
	rg.GET("/invoices/:id", h.get)
}

func (h *Handler) list(c *gin.Context) {
	workspaceID := middleware.WorkspaceIDFromContext(c)
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}

	out, err := h.Svc.List(c.Request.Context(), workspaceID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list invoices", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"invoices": out})
}

func (h *Handler) get(c *gin.Context) {
	workspaceID := middleware.WorkspaceIDFromContext(c)
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}

	invoice, err := h.Svc.Get(c.Request.Context(), workspaceID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "invoice not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load invoice", nil)
		return
	}
	respond.JSON(c, http.StatusOK, invoice)
}
