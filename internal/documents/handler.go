package documents

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"invoice-backend/internal/extraction"
	"invoice-backend/internal/shared/server/middleware"
	"invoice-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/upload", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.POST("/documents/:id/process", h.process)
	rg.POST("/documents/:id/process-manual", h.processManual)
	rg.POST("/documents/:id/reject", h.reject)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	workspaceID := strings.TrimSpace(c.PostForm("workspace_id"))
	if workspaceID == "" {
		workspaceID = middleware.WorkspaceIDFromContext(c)
	}
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}
	middleware.SetWorkspaceID(c, workspaceID)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), workspaceID, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusCreated, doc)
}

func (h *Handler) list(c *gin.Context) {
	workspaceID := middleware.WorkspaceIDFromContext(c)
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}

	out, err := h.Svc.List(c.Request.Context(), workspaceID, strings.TrimSpace(c.Query("status")))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"documents": out})
}

func (h *Handler) get(c *gin.Context) {
	workspaceID := middleware.WorkspaceIDFromContext(c)
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}

	doc, err := h.Svc.Get(c.Request.Context(), workspaceID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}
	respond.JSON(c, http.StatusOK, doc)
}

func (h *Handler) process(c *gin.Context) {
	workspaceID := middleware.WorkspaceIDFromContext(c)
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}
	c.Set("documentId", c.Param("id"))

	invoice, err := h.Svc.Process(c.Request.Context(), workspaceID, c.Param("id"))
	if err != nil {
		h.respondProcessError(c, err)
		return
	}

	c.Set("invoiceId", invoice.ID)
	c.Set("statusTransition", StatusPending+"->"+StatusProcessed)
	respond.JSON(c, http.StatusCreated, invoice)
}

type processManualRequest struct {
	SupplierID  string          `json:"supplierId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	InvoiceDate string          `json:"invoiceDate"`
}

func (h *Handler) processManual(c *gin.Context) {
	workspaceID := middleware.WorkspaceIDFromContext(c)
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}
	c.Set("documentId", c.Param("id"))

	var req processManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	in := ManualInput{
		SupplierID:  req.SupplierID,
		TotalAmount: req.TotalAmount,
	}
	if s := strings.TrimSpace(req.InvoiceDate); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invoiceDate must be YYYY-MM-DD", nil)
			return
		}
		in.InvoiceDate = parsed
	}

	invoice, err := h.Svc.ProcessManual(c.Request.Context(), workspaceID, c.Param("id"), in)
	if err != nil {
		h.respondProcessError(c, err)
		return
	}

	c.Set("invoiceId", invoice.ID)
	c.Set("statusTransition", StatusPending+"->"+StatusProcessed)
	respond.JSON(c, http.StatusCreated, invoice)
}

func (h *Handler) reject(c *gin.Context) {
	workspaceID := middleware.WorkspaceIDFromContext(c)
	if workspaceID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "workspace_id is required", nil)
		return
	}
	c.Set("documentId", c.Param("id"))

	doc, err := h.Svc.Reject(c.Request.Context(), workspaceID, c.Param("id"))
	if err != nil {
		h.respondProcessError(c, err)
		return
	}

	c.Set("statusTransition", StatusPending+"->"+StatusRejected)
	respond.JSON(c, http.StatusOK, doc)
}

func (h *Handler) respondProcessError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}

	var pe *ProcessError
	if !errors.As(err, &pe) {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", nil)
		return
	}

	var details any
	if len(pe.MissingFields) > 0 {
		details = gin.H{"missingFields": pe.MissingFields}
	}

	switch pe.Kind {
	case KindValidationError:
		respond.ErrorWithSuggestion(c, http.StatusBadRequest, pe.Kind, pe.Reason, pe.Suggestion, details)
	case KindInvalidTransition:
		respond.Error(c, http.StatusConflict, pe.Kind, pe.Reason, nil)
	case KindStructuredFailed:
		if pe.Reason == extraction.ReasonServiceUnavailable {
			respond.Error(c, http.StatusBadGateway, pe.Kind, "invoice extraction service unavailable", nil)
			return
		}
		respond.ErrorWithSuggestion(c, http.StatusUnprocessableEntity, pe.Kind, pe.Reason, pe.Suggestion, details)
	case KindExtractionFailed:
		respond.ErrorWithSuggestion(c, http.StatusUnprocessableEntity, pe.Kind,
			"no readable text in document", pe.Suggestion, gin.H{"reason": pe.Reason})
	case KindSupplierNotFound:
		respond.ErrorWithSuggestion(c, http.StatusUnprocessableEntity, pe.Kind, pe.Reason, pe.Suggestion, details)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", nil)
	}
}
