package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"invoice-backend/internal/documents"
	"invoice-backend/internal/extract"
	"invoice-backend/internal/extraction"
	"invoice-backend/internal/invoices"
	"invoice-backend/internal/llm"
	"invoice-backend/internal/llm/anthropic"
	"invoice-backend/internal/mailsync"
	"invoice-backend/internal/shared/config"
	"invoice-backend/internal/shared/server"
	"invoice-backend/internal/shared/storage/db"
	"invoice-backend/internal/shared/storage/object"
	localstore "invoice-backend/internal/shared/storage/object/local"
	s3store "invoice-backend/internal/shared/storage/object/s3"
	"invoice-backend/internal/suppliers"
	"invoice-backend/internal/workspaces"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	WorkspacesRepo workspaces.Repo
	SuppliersRepo  suppliers.Repo
	DocumentsRepo  documents.Repo
	InvoicesRepo   invoices.Repo
	ProcessedRepo  mailsync.ProcessedMessages

	WorkspacesService *workspaces.Service
	SuppliersService  *suppliers.Service
	DocumentsService  *documents.Service
	InvoicesService   *invoices.Service
	MailSyncService   *mailsync.Service

	WorkspaceHandler *workspaces.Handler
	SupplierHandler  *suppliers.Handler
	DocumentHandler  *documents.Handler
	InvoiceHandler   *invoices.Handler
	MailSyncHandler  *mailsync.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		WorkspaceHandler: app.WorkspaceHandler,
		SupplierHandler:  app.SupplierHandler,
		DocumentHandler:  app.DocumentHandler,
		InvoiceHandler:   app.InvoiceHandler,
		MailSyncHandler:  app.MailSyncHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(ctx context.Context, app *App) error {
	if app.DB != nil {
		app.WorkspacesRepo = &workspaces.PGRepo{DB: app.DB}
		app.SuppliersRepo = &suppliers.PGRepo{DB: app.DB}
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.InvoicesRepo = &invoices.PGRepo{DB: app.DB}
		app.ProcessedRepo = &mailsync.PGProcessed{DB: app.DB}
	} else {
		app.WorkspacesRepo = workspaces.NewMemoryRepo()
		app.SuppliersRepo = suppliers.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.InvoicesRepo = invoices.NewMemoryRepo()
		app.ProcessedRepo = mailsync.NewMemoryProcessed()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if app.Config.LLMProvider == "anthropic" {
		if apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); apiKey != "" {
			anthropicClient, err := anthropic.NewClient(apiKey, app.Config.LLMModel)
			if err != nil {
				return err
			}
			llmClient = anthropicClient
		} else if !isDevLike(app.Config.Env) {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	}

	app.WorkspacesService = &workspaces.Service{Repo: app.WorkspacesRepo}
	app.SuppliersService = &suppliers.Service{Repo: app.SuppliersRepo}
	app.InvoicesService = &invoices.Service{Repo: app.InvoicesRepo}
	app.DocumentsService = &documents.Service{
		Store:     app.Store,
		Repo:      app.DocumentsRepo,
		Text:      extract.New(),
		Extractor: extraction.New(llmClient),
		Suppliers: app.SuppliersService,
		Invoices:  app.InvoicesService,
	}

	mailbox, err := buildMailbox(ctx, app.Config)
	if err != nil {
		return err
	}
	app.MailSyncService = mailsync.NewService(mailbox, app.ProcessedRepo, app.DocumentsService, app.SuppliersService)

	app.WorkspaceHandler = workspaces.NewHandler(app.WorkspacesService)
	app.SupplierHandler = suppliers.NewHandler(app.SuppliersService)
	app.DocumentHandler = documents.NewHandler(app.DocumentsService)
	app.InvoiceHandler = invoices.NewHandler(app.InvoicesService)
	app.MailSyncHandler = mailsync.NewHandler(app.MailSyncService)
	return nil
}

func buildMailbox(ctx context.Context, cfg config.Config) (mailsync.Mailbox, error) {
	if strings.TrimSpace(cfg.GmailRefreshToken) == "" {
		log.Printf("bootstrap: GMAIL_REFRESH_TOKEN empty; mail sync disabled")
		return nil, nil
	}
	return mailsync.NewGmailMailbox(ctx, mailsync.GmailConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GmailRefreshToken,
	})
}
