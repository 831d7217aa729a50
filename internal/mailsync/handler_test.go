package mailsync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newSyncRouter(t *testing.T, mailbox Mailbox) (*gin.Engine, *fakeDocs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	docs := newFakeDocs()
	svc := newSyncService(t, mailbox, docs)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, docs
}

func postSync(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mail/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSyncHandlerRejectsExplicitZeroLookback(t *testing.T) {
	router, _ := newSyncRouter(t, &fakeMailbox{})

	rec := postSync(router, `{"workspace_id": "ws-1", "lookback_days": 0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "validation_error" {
		t.Fatalf("error code = %q, want validation_error", body.Error.Code)
	}
}

func TestSyncHandlerDefaultsAbsentLookback(t *testing.T) {
	mailbox := &fakeMailbox{messages: []Message{
		message("m1", "noreply@power.co", "Your invoice", Attachment{ID: "a1", FileName: "inv.pdf"}),
	}}
	router, docs := newSyncRouter(t, mailbox)

	rec := postSync(router, `{"workspace_id": "ws-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var stats Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.DocumentsCreated != 1 {
		t.Fatalf("documents created = %d, want 1", stats.DocumentsCreated)
	}
	if len(docs.created) != 1 {
		t.Fatalf("pending documents = %d, want 1", len(docs.created))
	}
}
