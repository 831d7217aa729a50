package mailsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"invoice-backend/internal/documents"
	"invoice-backend/internal/shared/telemetry"
	"invoice-backend/internal/suppliers"
)

// invoiceKeywords mark a message as an invoice candidate when any of them
// appears in the subject.
var invoiceKeywords = []string{
	"invoice",
	"bill",
	"payment",
	"receipt",
	"statement",
	"balance due",
	"amount due",
}

// Lookback window bounds, in days.
const (
	MinLookbackDays = 1
	MaxLookbackDays = 90
)

const maxConcurrentDownloads = 4

// ErrWindowOutOfRange indicates the requested lookback window is outside
// the allowed bounds.
var ErrWindowOutOfRange = fmt.Errorf("lookback days must be between %d and %d", MinLookbackDays, MaxLookbackDays)

// Stats summarizes one sync run.
type Stats struct {
	EmailsScanned     int `json:"emails_scanned"`
	InvoicesDetected  int `json:"invoices_detected"`
	DocumentsCreated  int `json:"documents_created"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
}

// DocumentCreator records pending documents from downloaded attachments.
type DocumentCreator interface {
	CreateFromMail(ctx context.Context, workspaceID, fileName, messageID string, r io.Reader) (documents.Document, error)
	Delete(ctx context.Context, workspaceID, documentID string) error
}

// SenderResolver reports whether a sender address belongs to a supplier
// registered in the workspace.
type SenderResolver interface {
	Resolve(ctx context.Context, workspaceID, email string) (suppliers.Supplier, error)
}

// Service scans a mailbox for invoice messages and turns their
// attachments into pending documents.
type Service struct {
	Mailbox   Mailbox
	Processed ProcessedMessages
	Documents DocumentCreator
	Suppliers SenderResolver

	now func() time.Time
}

// NewService constructs a Service.
func NewService(mailbox Mailbox, processed ProcessedMessages, docs DocumentCreator, sup SenderResolver) *Service {
	return &Service{
		Mailbox:   mailbox,
		Processed: processed,
		Documents: docs,
		Suppliers: sup,
		now:       time.Now,
	}
}

// Sync scans the mailbox for invoice candidates within the lookback
// window. Messages already recorded for the workspace are skipped, and a
// message is only recorded after its documents are created, so an
// interrupted run retries the message on the next sync. Errors on one
// message do not stop the run, except an expired credential which
// aborts immediately with the partial stats.
func (s *Service) Sync(ctx context.Context, workspaceID string, lookbackDays int) (Stats, error) {
	var stats Stats
	if workspaceID == "" {
		return stats, errors.New("workspace id required")
	}
	if lookbackDays < MinLookbackDays || lookbackDays > MaxLookbackDays {
		return stats, ErrWindowOutOfRange
	}
	if s.Mailbox == nil {
		return stats, errors.New("mailbox not configured")
	}

	after := s.now().UTC().AddDate(0, 0, -lookbackDays)
	messages, err := s.Mailbox.Search(ctx, Query{Keywords: invoiceKeywords, After: after})
	if err != nil {
		return stats, err
	}
	stats.EmailsScanned = len(messages)

	for _, msg := range messages {
		if !s.isInvoiceCandidate(ctx, workspaceID, msg) {
			continue
		}
		stats.InvoicesDetected++

		seen, err := s.Processed.Seen(ctx, workspaceID, msg.ID)
		if err != nil {
			return stats, err
		}
		if seen {
			stats.DuplicatesSkipped++
			continue
		}

		created, err := s.importMessage(ctx, workspaceID, msg)
		if err != nil {
			if errors.Is(err, ErrCredentialExpired) {
				return stats, err
			}
			if errors.Is(err, ErrDuplicate) {
				stats.DuplicatesSkipped++
				continue
			}
			telemetry.Error("mailsync.message_failed", map[string]any{
				"workspace_id": workspaceID,
				"message_id":   msg.ID,
				"error":        err.Error(),
			})
			continue
		}
		stats.DocumentsCreated += created
	}

	telemetry.Info("mailsync.completed", map[string]any{
		"workspace_id":       workspaceID,
		"lookback_days":      lookbackDays,
		"emails_scanned":     stats.EmailsScanned,
		"invoices_detected":  stats.InvoicesDetected,
		"documents_created":  stats.DocumentsCreated,
		"duplicates_skipped": stats.DuplicatesSkipped,
	})
	return stats, nil
}

// importMessage downloads the message's attachments, creates pending
// documents for them and records the message as processed. When another
// sync recorded the message first, the documents created here are
// deleted and ErrDuplicate is returned.
func (s *Service) importMessage(ctx context.Context, workspaceID string, msg Message) (int, error) {
	type download struct {
		fileName string
		data     []byte
	}

	var mu sync.Mutex
	downloads := make([]download, 0, len(msg.Attachments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)
	for _, att := range msg.Attachments {
		if !supportedAttachment(att.FileName) {
			continue
		}
		att := att
		g.Go(func() error {
			data, err := s.Mailbox.Download(gctx, msg.ID, att.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			downloads = append(downloads, download{fileName: att.FileName, data: data})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if len(downloads) == 0 {
		return 0, nil
	}

	createdIDs := make([]string, 0, len(downloads))
	for _, d := range downloads {
		doc, err := s.Documents.CreateFromMail(ctx, workspaceID, d.fileName, msg.ID, bytes.NewReader(d.data))
		if err != nil {
			return 0, err
		}
		createdIDs = append(createdIDs, doc.ID)
	}

	if err := s.Processed.Record(ctx, workspaceID, msg.ID); err != nil {
		if errors.Is(err, ErrDuplicate) {
			for _, id := range createdIDs {
				if delErr := s.Documents.Delete(ctx, workspaceID, id); delErr != nil {
					telemetry.Error("mailsync.duplicate_cleanup_failed", map[string]any{
						"workspace_id": workspaceID,
						"document_id":  id,
						"error":        delErr.Error(),
					})
				}
			}
		}
		return 0, err
	}
	return len(createdIDs), nil
}

// isInvoiceCandidate requires an attachment of an accepted document
// type plus either signal: the sender is a registered supplier, or the
// subject contains an invoice keyword. Either alone qualifies, favoring
// recall over precision.
func (s *Service) isInvoiceCandidate(ctx context.Context, workspaceID string, msg Message) bool {
	if !hasSupportedAttachment(msg) {
		return false
	}
	subject := strings.ToLower(msg.Subject)
	for _, kw := range invoiceKeywords {
		if strings.Contains(subject, kw) {
			return true
		}
	}
	if s.Suppliers != nil {
		if email := senderAddress(msg.From); email != "" {
			if _, err := s.Suppliers.Resolve(ctx, workspaceID, email); err == nil {
				return true
			}
		}
	}
	return false
}

// senderAddress pulls the bare address out of a From header like
// "ABC Electric <billing@abc.com>".
func senderAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(from))
	}
	return strings.ToLower(addr.Address)
}

func hasSupportedAttachment(msg Message) bool {
	for _, att := range msg.Attachments {
		if supportedAttachment(att.FileName) {
			return true
		}
	}
	return false
}

func supportedAttachment(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf", ".png", ".jpg", ".jpeg", ".webp", ".docx":
		return true
	}
	return false
}
