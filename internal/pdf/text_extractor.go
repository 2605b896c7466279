package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"
)

// TextExtraction is the plain text found on one page.
type TextExtraction struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	WordCount  int    `json:"word_count"`
}

// TextExtractor reads the text layer of in-memory PDFs.
type TextExtractor struct{}

// NewTextExtractor creates a text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// ExtractText returns the text of the given pages, or of every page when
// pages is empty. Out-of-range page numbers are ignored.
func (e *TextExtractor) ExtractText(data []byte, pages []int) (map[int]*TextExtraction, error) {
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPages := reader.NumPage()
	var pagesToProcess []int
	if len(pages) == 0 {
		for i := 1; i <= totalPages; i++ {
			pagesToProcess = append(pagesToProcess, i)
		}
	} else {
		for _, pageNum := range pages {
			if pageNum >= 1 && pageNum <= totalPages {
				pagesToProcess = append(pagesToProcess, pageNum)
			}
		}
	}

	results := make(map[int]*TextExtraction, len(pagesToProcess))
	for _, pageNum := range pagesToProcess {
		extraction, err := e.extractPageText(reader, pageNum)
		if err != nil {
			return nil, err
		}
		results[pageNum] = extraction
	}
	return results, nil
}

func (e *TextExtractor) extractPageText(reader *pdf.Reader, pageNum int) (*TextExtraction, error) {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d is null", pageNum)
	}

	// A nil font map lets the reader decode each font's own encoding.
	text, err := page.GetPlainText(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read text of page %d: %w", pageNum, err)
	}

	return &TextExtraction{
		PageNumber: pageNum,
		Text:       text,
		WordCount:  len(strings.Fields(text)),
	}, nil
}
