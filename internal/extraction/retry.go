package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"invoice-backend/internal/llm"
	"invoice-backend/internal/shared/telemetry"
)

const retryDelay = 300 * time.Millisecond

// callWithRetry invokes the provider, retrying once on transport-level
// failures. Anything else surfaces immediately; a systematically absent
// field will not appear on a second attempt.
func callWithRetry(ctx context.Context, client llm.Client, input llm.ExtractInput) (json.RawMessage, error) {
	resp, err := client.ExtractInvoice(ctx, input)
	if err == nil || !isTransient(err) {
		return resp, err
	}

	telemetry.Info("extraction.retry", map[string]any{"error": err.Error()})
	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return client.ExtractInvoice(ctx, input)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "overloaded") {
		return true
	}
	if strings.Contains(msg, "timeout") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
