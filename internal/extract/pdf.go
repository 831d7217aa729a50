package extract

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfPlainText walks the content streams in document order. Fast, and good
// enough for most machine-generated invoices.
type pdfPlainText struct{}

func (pdfPlainText) Name() string { return "pdf_plain_text" }

func (pdfPlainText) Attempt(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, size := readerLen(data)
	pdfReader, err := pdf.NewReader(reader, size)
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// pdfByRows reassembles text row by row from glyph positions. Slower, but
// recovers text from layouts where the stream order is scrambled.
type pdfByRows struct{}

func (pdfByRows) Name() string { return "pdf_by_rows" }

func (pdfByRows) Attempt(ctx context.Context, data []byte) (string, error) {
	reader, size := readerLen(data)
	pdfReader, err := pdf.NewReader(reader, size)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
