// Package document holds a small page-layout model and serialises it to PDF.
//
// A Model is an ordered list of blocks laid out top to bottom on portrait
// pages: styled paragraphs, flowed images, vertical spacers and images pinned
// to an absolute position. All measures are PDF points.
package document

import (
	"image"
	"image/color"
	"strings"
	"time"
)

// PageSize is a page format in points.
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

// A4 is the default page size.
var A4 = PageSize{Name: "A4", Width: 595.28, Height: 841.89}

// DefaultMargin matches the usual 0.5 inch page margin.
const DefaultMargin = 36.0

// Colors used by paragraph styles.
var (
	Black = color.RGBA{A: 255}
	Blue  = color.RGBA{B: 255, A: 255}
)

// Style describes how a paragraph is set.
type Style struct {
	Size  float64
	Bold  bool
	Color color.RGBA
}

// Block is one layout element. The set of implementations is closed.
type Block interface {
	isBlock()
}

// Paragraph is a run of wrapped text.
type Paragraph struct {
	Text        string
	Style       Style
	SpaceBefore float64
	SpaceAfter  float64
}

// FlowImage is an image placed at the cursor with an explicit size.
type FlowImage struct {
	Name   string
	Image  image.Image
	Width  float64
	Height float64
}

// FixedImage is an image pinned to the page, outside the text flow. X and Y
// give the top-left corner; the height follows the image's aspect ratio.
type FixedImage struct {
	Name  string
	Image image.Image
	X     float64
	Y     float64
	Width float64
}

// Spacer advances the cursor.
type Spacer struct {
	Height float64
}

func (Paragraph) isBlock()  {}
func (FlowImage) isBlock()  {}
func (FixedImage) isBlock() {}
func (Spacer) isBlock()     {}

// Model is a document under construction. It is not safe for concurrent use.
type Model struct {
	Page    PageSize
	Margin  float64
	Title   string
	Author  string
	Created time.Time
	// Compress deflates page content streams.
	Compress bool
	Blocks   []Block
}

// New returns an empty A4 model.
func New() *Model {
	return &Model{Page: A4, Margin: DefaultMargin, Compress: true}
}

// Add appends blocks in order.
func (m *Model) Add(blocks ...Block) *Model {
	m.Blocks = append(m.Blocks, blocks...)
	return m
}

// Text returns the paragraph text of the body, one paragraph per line.
func (m *Model) Text() string {
	var sb strings.Builder
	for _, b := range m.Blocks {
		if p, ok := b.(Paragraph); ok {
			sb.WriteString(p.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Images returns the image blocks in order.
func (m *Model) Images() []Block {
	var out []Block
	for _, b := range m.Blocks {
		switch b.(type) {
		case FlowImage, FixedImage:
			out = append(out, b)
		}
	}
	return out
}
