package journal

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kalambet/reframe/internal/storage"
)

// ErrNoText is returned for PDFs without extractable text, such as scans.
var ErrNoText = errors.New("pdf has no extractable text")

// ExtractPDFText returns the plain text of every page, pages separated by a
// blank line.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages.
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", ErrNoText
	}
	return strings.Join(pages, "\n\n"), nil
}

// ImportPDF adds the text of an uploaded PDF as an entry titled after its
// file name.
func (s *Service) ImportPDF(ownerID, filename string, data []byte) (storage.JournalEntry, error) {
	text, err := ExtractPDFText(data)
	if err != nil {
		return storage.JournalEntry{}, fmt.Errorf("extracting %s: %w", filepath.Base(filename), err)
	}
	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return s.Add(NewEntry{OwnerID: ownerID, Title: title, Content: text, Private: true, Source: SourcePDF})
}
