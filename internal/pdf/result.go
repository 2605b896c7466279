package pdf

import "strings"

// Inspection summarises a PDF document.
type Inspection struct {
	Filename        string         `json:"filename"`
	SizeBytes       int64          `json:"size_bytes"`
	Version         string         `json:"version,omitempty"`
	Valid           bool           `json:"valid"`
	ValidationError string         `json:"validation_error,omitempty"`
	Encrypted       bool           `json:"encrypted"`
	TotalPages      int            `json:"total_pages"`
	Pages           []PageResult   `json:"pages"`
	Processing      ProcessingInfo `json:"processing"`
}

// PageResult holds what was found on a single page.
type PageResult struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	WordCount  int    `json:"word_count"`
	Images     int    `json:"images"`
}

// ProcessingInfo contains timing information.
type ProcessingInfo struct {
	TextTimeMs  int64 `json:"text_time_ms"`
	ImageTimeMs int64 `json:"image_time_ms"`
	TotalTimeMs int64 `json:"total_time_ms"`
}

// Text joins the text of all inspected pages.
func (i *Inspection) Text() string {
	var b strings.Builder
	for _, p := range i.Pages {
		b.WriteString(p.Text)
	}
	return b.String()
}
