// Package document extracts text from uploaded reference files and stores
// the results for reuse across conversations.
package document

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// UnsupportedFormatError is returned for a file extension no parser handles.
// The upload must be rejected; there is no fallback extraction.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: .%s", e.Ext)
}

// supportedExtensions lists the recognized file types in display order.
var supportedExtensions = []string{"txt", "pdf", "docx", "doc", "md", "markdown", "html", "htm", "csv", "json", "jsonl"}

// SupportedExtensions returns the recognized file extensions.
func SupportedExtensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

// Parse extracts plain text from a file based on its extension.
func Parse(filename string, content []byte) (string, error) {
	parts := strings.Split(strings.ToLower(filename), ".")
	ext := parts[len(parts)-1]

	var text string
	var err error
	switch ext {
	case "txt", "jsonl":
		text = string(content)
	case "pdf":
		text, err = parsePDF(content)
	case "docx", "doc":
		text, err = parseDocx(content)
	case "md", "markdown":
		text, err = parseMarkdown(content)
	case "html", "htm":
		text, err = parseHTML(content)
	case "csv":
		text, err = parseCSV(content)
	case "json":
		text, err = parseJSON(content)
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
	if err != nil {
		return "", fmt.Errorf("error parsing %s file: %w", ext, err)
	}
	return text, nil
}

// parsePDF extracts text page by page, labeling each page and skipping pages
// with no text. The pdf package panics on some malformed inputs, so those are
// turned into errors here.
func parsePDF(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", i, pageText))
	}
	return strings.Join(parts, "\n\n"), nil
}

// parseDocx extracts paragraph and table text from a Word document.
func parseDocx(content []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var parts []string
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			if text := strings.TrimSpace(fmt.Sprint(item)); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// parseMarkdown renders markdown to HTML and strips the markup, so headings
// and emphasis come out as plain text.
func parseMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(content, &buf); err != nil {
		return "", err
	}
	return parseHTML(buf.Bytes())
}

// parseHTML extracts the visible text of an HTML document, dropping script
// and style subtrees.
func parseHTML(content []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(lines, "\n"), nil
}

// parseCSV renders each record as a pipe-separated line.
func parseCSV(content []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, strings.Join(record, " | "))
	}
	return strings.Join(lines, "\n"), nil
}

// parseJSON validates and pretty-prints a JSON document.
func parseJSON(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, content, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
