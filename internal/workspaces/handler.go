package workspaces

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches workspace routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/workspaces", h.create)
	rg.GET("/workspaces", h.list)
	rg.GET("/workspaces/:id", h.get)
}

type createRequest struct {
	Name string `json:"name"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ws, err := h.Svc.Create(c.Request.Context(), req.Name)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create workspace", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, ws)
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list workspaces", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"workspaces": out})
}

func (h *Handler) get(c *gin.Context) {
	ws, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "workspace not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load workspace", nil)
		return
	}
	respond.JSON(c, http.StatusOK, ws)
}
