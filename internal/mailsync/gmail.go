package mailsync

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"invoice-backend/internal/shared/telemetry"
)

const gmailBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

const maxSearchResults = 100

// GmailConfig carries the OAuth credential for a connected mailbox.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// GmailMailbox implements Mailbox against the Gmail REST API using a
// long-lived refresh token.
type GmailMailbox struct {
	httpClient *http.Client
	baseURL    string
}

// NewGmailMailbox constructs a GmailMailbox.
func NewGmailMailbox(ctx context.Context, cfg GmailConfig) (*GmailMailbox, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("gmail config incomplete")
	}
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"https://www.googleapis.com/auth/gmail.readonly"},
	}
	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	client := oauth2.NewClient(ctx, ts)
	client.Timeout = 60 * time.Second
	return &GmailMailbox{httpClient: client, baseURL: gmailBaseURL}, nil
}

// Search lists messages with attachments matching the query keywords
// since the After date, then loads each message's headers and
// attachment metadata.
func (g *GmailMailbox) Search(ctx context.Context, q Query) ([]Message, error) {
	params := url.Values{}
	params.Set("q", buildQuery(q))
	params.Set("maxResults", strconv.Itoa(maxSearchResults))

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := g.getJSON(ctx, "/messages?"+params.Encode(), &list); err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := g.getMessage(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, ErrCredentialExpired) {
				return nil, err
			}
			telemetry.Error("mailsync.message_load_failed", map[string]any{
				"message_id": ref.ID,
				"error":      err.Error(),
			})
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Download fetches one attachment's bytes.
func (g *GmailMailbox) Download(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	var body struct {
		Data string `json:"data"`
	}
	path := fmt.Sprintf("/messages/%s/attachments/%s", messageID, attachmentID)
	if err := g.getJSON(ctx, path, &body); err != nil {
		return nil, err
	}
	return decodeBody(body.Data)
}

func buildQuery(q Query) string {
	parts := []string{"has:attachment"}
	if !q.After.IsZero() {
		parts = append(parts, "after:"+q.After.UTC().Format("2006/01/02"))
	}
	if len(q.Keywords) > 0 {
		quoted := make([]string, 0, len(q.Keywords))
		for _, kw := range q.Keywords {
			quoted = append(quoted, `"`+kw+`"`)
		}
		parts = append(parts, "("+strings.Join(quoted, " OR ")+")")
	}
	return strings.Join(parts, " ")
}

type gmailPart struct {
	FileName string `json:"filename"`
	Body     struct {
		AttachmentID string `json:"attachmentId"`
	} `json:"body"`
	Parts []gmailPart `json:"parts"`
}

func (g *GmailMailbox) getMessage(ctx context.Context, id string) (Message, error) {
	var raw struct {
		ID           string `json:"id"`
		InternalDate string `json:"internalDate"`
		Payload      struct {
			Headers []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"headers"`
			Parts []gmailPart `json:"parts"`
		} `json:"payload"`
	}
	if err := g.getJSON(ctx, "/messages/"+id+"?format=full", &raw); err != nil {
		return Message{}, err
	}

	msg := Message{ID: raw.ID}
	for _, h := range raw.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			msg.From = h.Value
		case "subject":
			msg.Subject = h.Value
		}
	}
	if ms, err := strconv.ParseInt(raw.InternalDate, 10, 64); err == nil {
		msg.ReceivedAt = time.UnixMilli(ms).UTC()
	}
	collectAttachments(raw.Payload.Parts, &msg.Attachments)
	return msg, nil
}

func collectAttachments(parts []gmailPart, out *[]Attachment) {
	for _, p := range parts {
		if p.FileName != "" && p.Body.AttachmentID != "" {
			*out = append(*out, Attachment{ID: p.Body.AttachmentID, FileName: p.FileName})
		}
		collectAttachments(p.Parts, out)
	}
}

func (g *GmailMailbox) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if isCredentialError(err) {
			return ErrCredentialExpired
		}
		return fmt.Errorf("gmail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrCredentialExpired
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gmail http status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// isCredentialError catches refresh failures from the token source, which
// surface as transport errors rather than HTTP statuses.
func isCredentialError(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return false
	}
	switch re.ErrorCode {
	case "invalid_grant", "invalid_client":
		return true
	}
	return re.Response != nil &&
		(re.Response.StatusCode == http.StatusUnauthorized || re.Response.StatusCode == http.StatusForbidden)
}

// decodeBody handles Gmail's web-safe base64, with or without padding.
func decodeBody(data string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
}
