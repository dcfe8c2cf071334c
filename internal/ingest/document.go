package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Kind is the document format derived from the file name.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindText    Kind = "txt"
	KindDocx    Kind = "docx"
	KindUnknown Kind = ""
)

var (
	docxParagraphExpr = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:tab\s*/>`)
	xmlTagExpr        = regexp.MustCompile(`<[^>]+>`)
)

// Document is an uploaded file. Name is only used as a format hint.
type Document struct {
	Name string
	Data []byte
}

// ReadFile loads a local file as a Document.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IngestionError{Source: path, Err: err}
	}
	return &Document{Name: filepath.Base(path), Data: data}, nil
}

// KindOf derives the document kind from the file extension.
func KindOf(name string) Kind {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".pdf":
		return KindPDF
	case ".txt":
		return KindText
	case ".docx":
		return KindDocx
	default:
		return KindUnknown
	}
}

// FromDocument extracts trimmed plain text. Unsupported kinds yield an empty
// string without an error.
func FromDocument(doc *Document) (string, error) {
	if doc == nil {
		return "", nil
	}

	switch KindOf(doc.Name) {
	case KindPDF:
		text, err := extractPDF(doc.Data)
		if err != nil {
			return "", &IngestionError{Source: doc.Name, Err: err}
		}
		return text, nil
	case KindText:
		return decodeText(doc.Data), nil
	case KindDocx:
		text, err := extractDocx(doc.Data)
		if err != nil {
			return "", &IngestionError{Source: doc.Name, Err: err}
		}
		return text, nil
	default:
		return "", nil
	}
}

func extractPDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf")
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		pages = append(pages, pageText(reader, i))
	}

	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}

// pageText returns the text of page i or an empty string when the page cannot
// be extracted. The pdf package panics on some malformed content streams.
func pageText(reader *pdf.Reader, i int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	page := reader.Page(i)
	if page.V.IsNull() {
		return ""
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// decodeText decodes UTF-8 leniently: invalid sequences are dropped and a
// byte order mark (UTF-8 or UTF-16) is honoured.
func decodeText(data []byte) string {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		decoded = data
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(decoded), ""))
}

func extractDocx(data []byte) (string, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer reader.Close()

	content := reader.Editable().GetContent()
	content = docxParagraphExpr.ReplaceAllString(content, "\n")
	content = xmlTagExpr.ReplaceAllString(content, "")

	return strings.TrimSpace(html.UnescapeString(content)), nil
}
