package mailsync

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoice-backend/internal/documents"
	"invoice-backend/internal/suppliers"
)

type fakeMailbox struct {
	messages    []Message
	searchErr   error
	downloadErr map[string]error
	downloads   int
}

func (m *fakeMailbox) Search(ctx context.Context, q Query) ([]Message, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.messages, nil
}

func (m *fakeMailbox) Download(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	m.downloads++
	if err := m.downloadErr[attachmentID]; err != nil {
		return nil, err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type fakeDocs struct {
	created map[string]documents.Document
	err     error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{created: make(map[string]documents.Document)}
}

func (d *fakeDocs) CreateFromMail(ctx context.Context, workspaceID, fileName, messageID string, r io.Reader) (documents.Document, error) {
	if d.err != nil {
		return documents.Document{}, d.err
	}
	doc := documents.Document{
		ID:              uuid.NewString(),
		WorkspaceID:     workspaceID,
		FileName:        fileName,
		Status:          documents.StatusPending,
		SourceMessageID: messageID,
	}
	d.created[doc.ID] = doc
	return doc, nil
}

func (d *fakeDocs) Delete(ctx context.Context, workspaceID, documentID string) error {
	if _, ok := d.created[documentID]; !ok {
		return documents.ErrNotFound
	}
	delete(d.created, documentID)
	return nil
}

func message(id, from, subject string, attachments ...Attachment) Message {
	return Message{
		ID:          id,
		From:        from,
		Subject:     subject,
		ReceivedAt:  time.Now().UTC(),
		Attachments: attachments,
	}
}

func newSyncService(t *testing.T, mailbox Mailbox, docs DocumentCreator) *Service {
	t.Helper()
	supplierSvc := &suppliers.Service{Repo: suppliers.NewMemoryRepo()}
	if _, err := supplierSvc.Create(context.Background(), "ws-1", suppliers.CreateInput{
		Name:       "ABC Electric",
		Email:      "billing@abc.com",
		MarkupRate: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return NewService(mailbox, NewMemoryProcessed(), docs, supplierSvc)
}

func TestSyncCountsAndCreatesDocuments(t *testing.T) {
	mailbox := &fakeMailbox{messages: []Message{
		message("m1", "noreply@power.co", "Your invoice for December", Attachment{ID: "a1", FileName: "dec.pdf"}),
		message("m2", "friend@example.com", "Holiday photos", Attachment{ID: "a2", FileName: "photo.jpg"}),
		message("m3", "ABC Electric <billing@abc.com>", "Monthly summary", Attachment{ID: "a3", FileName: "summary.pdf"}),
		message("m4", "noreply@power.co", "Balance due reminder"),
	}}
	docs := newFakeDocs()
	svc := newSyncService(t, mailbox, docs)

	stats, err := svc.Sync(context.Background(), "ws-1", 7)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.EmailsScanned != 4 {
		t.Fatalf("emails scanned = %d, want 4", stats.EmailsScanned)
	}
	// m1 by keyword, m3 by registered sender. m2 matches neither signal
	// and m4 has no attachment.
	if stats.InvoicesDetected != 2 {
		t.Fatalf("invoices detected = %d, want 2", stats.InvoicesDetected)
	}
	if stats.DocumentsCreated != 2 {
		t.Fatalf("documents created = %d, want 2", stats.DocumentsCreated)
	}
	if stats.DuplicatesSkipped != 0 {
		t.Fatalf("duplicates skipped = %d, want 0", stats.DuplicatesSkipped)
	}
	if len(docs.created) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs.created))
	}
}

func TestSyncSecondRunSkipsDuplicates(t *testing.T) {
	mailbox := &fakeMailbox{messages: []Message{
		message("m1", "noreply@power.co", "Invoice attached", Attachment{ID: "a1", FileName: "inv.pdf"}),
	}}
	docs := newFakeDocs()
	svc := newSyncService(t, mailbox, docs)

	if _, err := svc.Sync(context.Background(), "ws-1", 7); err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	stats, err := svc.Sync(context.Background(), "ws-1", 7)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if stats.DuplicatesSkipped != 1 {
		t.Fatalf("duplicates skipped = %d, want 1", stats.DuplicatesSkipped)
	}
	if stats.DocumentsCreated != 0 {
		t.Fatalf("documents created = %d, want 0", stats.DocumentsCreated)
	}
	if len(docs.created) != 1 {
		t.Fatalf("expected 1 document total, got %d", len(docs.created))
	}
}

func TestSyncDownloadFailureRetriesNextRun(t *testing.T) {
	mailbox := &fakeMailbox{
		messages: []Message{
			message("m1", "noreply@power.co", "Invoice attached", Attachment{ID: "a1", FileName: "inv.pdf"}),
		},
		downloadErr: map[string]error{"a1": errors.New("connection reset")},
	}
	docs := newFakeDocs()
	svc := newSyncService(t, mailbox, docs)

	stats, err := svc.Sync(context.Background(), "ws-1", 7)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.DocumentsCreated != 0 {
		t.Fatalf("documents created = %d, want 0", stats.DocumentsCreated)
	}

	// The message was not recorded, so the next run imports it.
	mailbox.downloadErr = nil
	stats, err = svc.Sync(context.Background(), "ws-1", 7)
	if err != nil {
		t.Fatalf("retry Sync: %v", err)
	}
	if stats.DocumentsCreated != 1 {
		t.Fatalf("documents created on retry = %d, want 1", stats.DocumentsCreated)
	}
}

func TestSyncCredentialExpiredAborts(t *testing.T) {
	mailbox := &fakeMailbox{searchErr: ErrCredentialExpired}
	svc := newSyncService(t, mailbox, newFakeDocs())

	_, err := svc.Sync(context.Background(), "ws-1", 7)
	if !errors.Is(err, ErrCredentialExpired) {
		t.Fatalf("expected ErrCredentialExpired, got %v", err)
	}
}

func TestSyncWindowBounds(t *testing.T) {
	svc := newSyncService(t, &fakeMailbox{}, newFakeDocs())

	for _, days := range []int{0, -1, 91} {
		if _, err := svc.Sync(context.Background(), "ws-1", days); !errors.Is(err, ErrWindowOutOfRange) {
			t.Fatalf("lookback %d: expected ErrWindowOutOfRange, got %v", days, err)
		}
	}
}

func TestSyncConcurrentRecordCleansUpOwnDocuments(t *testing.T) {
	mailbox := &fakeMailbox{messages: []Message{
		message("m1", "noreply@power.co", "Invoice attached", Attachment{ID: "a1", FileName: "inv.pdf"}),
	}}
	docs := newFakeDocs()
	svc := newSyncService(t, mailbox, docs)

	// Another sync recorded the message between the Seen check and the
	// Record call.
	svc.Processed = &recordConflict{}

	stats, err := svc.Sync(context.Background(), "ws-1", 7)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.DuplicatesSkipped != 1 {
		t.Fatalf("duplicates skipped = %d, want 1", stats.DuplicatesSkipped)
	}
	if stats.DocumentsCreated != 0 {
		t.Fatalf("documents created = %d, want 0", stats.DocumentsCreated)
	}
	if len(docs.created) != 0 {
		t.Fatalf("expected cleanup of created documents, got %d", len(docs.created))
	}
}

// recordConflict reports not-seen but fails every Record as a duplicate,
// simulating a concurrent sync winning the insert.
type recordConflict struct{}

func (r *recordConflict) Seen(ctx context.Context, workspaceID, messageID string) (bool, error) {
	return false, nil
}

func (r *recordConflict) Record(ctx context.Context, workspaceID, messageID string) error {
	return ErrDuplicate
}

func TestSyncSkipsUnsupportedAttachments(t *testing.T) {
	mailbox := &fakeMailbox{messages: []Message{
		message("m1", "noreply@power.co", "Invoice attached",
			Attachment{ID: "a1", FileName: "inv.pdf"},
			Attachment{ID: "a2", FileName: "signature.exe"},
		),
	}}
	docs := newFakeDocs()
	svc := newSyncService(t, mailbox, docs)

	stats, err := svc.Sync(context.Background(), "ws-1", 7)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.DocumentsCreated != 1 {
		t.Fatalf("documents created = %d, want 1", stats.DocumentsCreated)
	}
	if mailbox.downloads != 1 {
		t.Fatalf("downloads = %d, want 1", mailbox.downloads)
	}
}

func TestSyncIgnoresMessagesWithOnlyUnsupportedAttachments(t *testing.T) {
	mailbox := &fakeMailbox{messages: []Message{
		message("m1", "noreply@power.co", "Invoice attached",
			Attachment{ID: "a1", FileName: "setup.exe"},
		),
	}}
	docs := newFakeDocs()
	svc := newSyncService(t, mailbox, docs)

	for run := 0; run < 2; run++ {
		stats, err := svc.Sync(context.Background(), "ws-1", 7)
		if err != nil {
			t.Fatalf("Sync run %d: %v", run, err)
		}
		if stats.InvoicesDetected != 0 {
			t.Fatalf("run %d: invoices detected = %d, want 0", run, stats.InvoicesDetected)
		}
		if stats.DuplicatesSkipped != 0 {
			t.Fatalf("run %d: duplicates skipped = %d, want 0", run, stats.DuplicatesSkipped)
		}
	}
	if mailbox.downloads != 0 {
		t.Fatalf("downloads = %d, want 0", mailbox.downloads)
	}
	if len(docs.created) != 0 {
		t.Fatalf("documents created = %d, want 0", len(docs.created))
	}
}
