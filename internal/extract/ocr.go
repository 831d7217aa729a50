package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// imageOCR shells out to tesseract for image attachments (scanned invoices,
// photos of paper bills).
type imageOCR struct {
	runner Runner
}

func (imageOCR) Name() string { return "image_ocr" }

func (s imageOCR) Attempt(ctx context.Context, data []byte) (string, error) {
	f, err := os.CreateTemp("", "invoice-ocr-*")
	if err != nil {
		return "", fmt.Errorf("ocr temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("ocr temp write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("ocr temp close: %w", err)
	}

	stdout, stderr, err := s.runner.Run(ctx, "tesseract", f.Name(), "stdout", "-l", "eng")
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(stderr), 512))
	}
	return string(stdout), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
