package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-backend/internal/documents"
	"invoice-backend/internal/invoices"
	"invoice-backend/internal/mailsync"
	"invoice-backend/internal/shared/config"
	"invoice-backend/internal/shared/server/middleware"
	"invoice-backend/internal/shared/server/respond"
	"invoice-backend/internal/suppliers"
	"invoice-backend/internal/workspaces"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config           config.Config
	WorkspaceHandler *workspaces.Handler
	SupplierHandler  *suppliers.Handler
	DocumentHandler  *documents.Handler
	InvoiceHandler   *invoices.Handler
	MailSyncHandler  *mailsync.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Workspace(),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.WorkspaceHandler != nil {
		deps.WorkspaceHandler.RegisterRoutes(api)
	}
	if deps.SupplierHandler != nil {
		deps.SupplierHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.InvoiceHandler != nil {
		deps.InvoiceHandler.RegisterRoutes(api)
	}
	if deps.MailSyncHandler != nil {
		deps.MailSyncHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
