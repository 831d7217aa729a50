package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"invoice-backend/internal/shared/storage/object"
	"invoice-backend/internal/shared/telemetry"
)

// minTextLength is the minimum number of characters a strategy must yield
// for its output to count as usable text.
const minTextLength = 10

// ErrNoText is returned when every extraction strategy yields empty or
// too-short text. The caller falls back to manual entry.
var ErrNoText = errors.New("no text extracted from document")

// ErrUnsupportedFormat is returned for file types with no extraction strategy.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Strategy is one way of pulling text out of a document payload.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, data []byte) (string, error)
}

// Extractor converts document blobs into plain text by trying an ordered
// list of strategies per media family.
type Extractor struct {
	runner Runner
}

// New constructs an Extractor using the host tesseract binary for OCR.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner constructs an Extractor with a custom command runner.
func NewWithRunner(r Runner) *Extractor {
	return &Extractor{runner: r}
}

// Text pulls text from a stored object.
func (e *Extractor) Text(ctx context.Context, store object.ObjectStore, storageKey string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", storageKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: read: %w", storageKey, err)
	}

	return e.TextFromBytes(ctx, raw, fileName)
}

// TextFromBytes extracts text from an in-memory payload.
func (e *Extractor) TextFromBytes(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	strategies, err := e.strategiesFor(fileName)
	if err != nil {
		return "", err
	}
	return runStrategies(ctx, strategies, data)
}

// runStrategies tries each strategy in order and accepts the first result
// with enough non-whitespace text. Strategy errors are logged and skipped.
func runStrategies(ctx context.Context, strategies []Strategy, data []byte) (string, error) {
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := attempt(ctx, s, data)
		if err != nil {
			telemetry.Info("extract.strategy_failed", map[string]any{
				"strategy": s.Name(),
				"error":    err.Error(),
			})
			continue
		}

		trimmed := strings.TrimSpace(text)
		if len(trimmed) >= minTextLength {
			telemetry.Info("extract.strategy_ok", map[string]any{
				"strategy": s.Name(),
				"chars":    len(trimmed),
			})
			return trimmed, nil
		}
	}
	return "", ErrNoText
}

// attempt runs a single strategy, converting a panic inside a parsing
// library into an error so the chain can continue.
func attempt(ctx context.Context, s Strategy, data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), rec)
		}
	}()
	return s.Attempt(ctx, data)
}

func (e *Extractor) strategiesFor(fileName string) ([]Strategy, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return []Strategy{pdfPlainText{}, pdfByRows{}}, nil
	case ".png", ".jpg", ".jpeg", ".webp":
		return []Strategy{imageOCR{runner: e.runner}}, nil
	case ".docx":
		return []Strategy{docxDocument{}}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

func readerLen(data []byte) (*bytes.Reader, int64) {
	return bytes.NewReader(data), int64(len(data))
}
