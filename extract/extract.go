// Package extract turns uploaded tender files into plain text. Extraction is
// best-effort: any failure yields empty text, never an error to the pipeline.
package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Format enumerates the supported payload formats.
type Format string

const (
	FormatUnknown Format = ""
	FormatPDF     Format = "pdf"
	FormatCSV     Format = "csv"
	FormatText    Format = "text"
)

// DetectFormat infers the format from the path's extension. Unknown
// extensions fall back to plain-text reading.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".csv":
		return FormatCSV
	case ".txt", ".md", ".text":
		return FormatText
	default:
		return FormatUnknown
	}
}

// Extractor reads file content per format.
type Extractor struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{logger: logger}
}

// Extract returns the plain text of the file at path, or empty text when the
// file cannot be read or parsed.
func (e *Extractor) Extract(path string) string {
	var (
		text string
		err  error
	)

	switch DetectFormat(path) {
	case FormatPDF:
		text, err = extractPDF(path)
	case FormatCSV:
		text, err = extractCSV(path)
	default:
		text, err = extractText(path)
	}

	if err != nil {
		e.logger.Printf("extraction %s: %v", filepath.Base(path), err)
		return ""
	}
	return text
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return normalize(buf.String()), nil
}

func extractCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]
	var sb strings.Builder
	for idx, row := range records[1:] {
		if idx > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(formatRow(headers, row, idx))
	}
	return sb.String(), nil
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return normalize(string(data)), nil
}

func formatRow(headers, row []string, idx int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Ligne %d", idx+1)

	limit := len(headers)
	if len(row) < limit {
		limit = len(row)
	}

	for i := 0; i < limit; i++ {
		header := strings.TrimSpace(headers[i])
		if header == "" {
			header = fmt.Sprintf("Colonne %d", i+1)
		}
		fmt.Fprintf(&sb, "\n%s: %s", header, strings.TrimSpace(row[i]))
	}

	for i := len(headers); i < len(row); i++ {
		fmt.Fprintf(&sb, "\nColonne %d: %s", i+1, strings.TrimSpace(row[i]))
	}

	return sb.String()
}

func normalize(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
