package mailsync

import (
	"context"
	"errors"
	"time"
)

// ErrCredentialExpired indicates the mailbox credential was rejected and
// the workspace owner has to reconnect the account.
var ErrCredentialExpired = errors.New("mailbox credential expired")

// Attachment identifies a downloadable file on a message.
type Attachment struct {
	ID       string
	FileName string
}

// Message is a mailbox message candidate returned by a search.
type Message struct {
	ID          string
	From        string
	Subject     string
	ReceivedAt  time.Time
	Attachments []Attachment
}

// Query describes a mailbox search for invoice-bearing messages.
type Query struct {
	Keywords []string
	After    time.Time
}

// Mailbox abstracts the mail provider. Search returns messages with
// attachments matching the query; Download fetches one attachment's bytes.
type Mailbox interface {
	Search(ctx context.Context, q Query) ([]Message, error)
	Download(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}
