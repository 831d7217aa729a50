package suppliers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

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

// RegisterRoutes attaches supplier routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/suppliers", h.create)
	rg.GET("/suppliers", h.list)
	rg.GET("/suppliers/:id", h.get)
	rg.PATCH("/suppliers/:id", h.update)
}

type supplierRequest struct {
	WorkspaceID string          `json:"workspaceId"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	MarkupRate  decimal.Decimal `json:"markupRate"`
}

func (h *Handler) create(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.WorkspaceID = strings.TrimSpace(req.WorkspaceID)
	if req.WorkspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspaceId is required", nil)
		return
	}
	middleware.SetWorkspaceID(c, req.WorkspaceID)

	supplier, err := h.Svc.Create(c.Request.Context(), req.WorkspaceID, CreateInput{
		Name:       req.Name,
		Email:      req.Email,
		MarkupRate: req.MarkupRate,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create supplier", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, supplier)
}

func (h *Handler) list(c *gin.Context) {
	workspaceID := middleware.WorkspaceIDFromContext(c)
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}

	out, err := h.Svc.List(c.Request.Context(), workspaceID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list suppliers", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"suppliers": out})
}

func (h *Handler) get(c *gin.Context) {
	workspaceID := middleware.WorkspaceIDFromContext(c)
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}

	supplier, err := h.Svc.Get(c.Request.Context(), workspaceID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "supplier not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load supplier", nil)
		return
	}
	respond.JSON(c, http.StatusOK, supplier)
}

func (h *Handler) update(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	workspaceID := strings.TrimSpace(req.WorkspaceID)
	if workspaceID == "" {
		workspaceID = middleware.WorkspaceIDFromContext(c)
	}
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspaceId is required", nil)
		return
	}
	middleware.SetWorkspaceID(c, workspaceID)

	supplier, err := h.Svc.Update(c.Request.Context(), workspaceID, c.Param("id"), CreateInput{
		Name:       req.Name,
		Email:      req.Email,
		MarkupRate: req.MarkupRate,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "supplier not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update supplier", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, supplier)
}
