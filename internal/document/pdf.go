package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/phpdave11/gofpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	fontFamily = "Helvetica"
	// leading is the line height as a multiple of the font size.
	leading     = 1.2
	defaultSize = 12.0
)

// SinkError reports that the finished document could not be written out.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string { return fmt.Sprintf("write document: %v", e.Err) }

func (e *SinkError) Unwrap() error { return e.Err }

// LayoutError reports that the model could not be turned into a PDF.
type LayoutError struct {
	Block int
	Err   error
}

func (e *LayoutError) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("layout document: %v", e.Err)
	}
	return fmt.Sprintf("layout document block %d: %v", e.Block, e.Err)
}

func (e *LayoutError) Unwrap() error { return e.Err }

// Render serialises m into a complete PDF in memory.
func Render(m *Model) ([]byte, error) {
	if m == nil {
		return nil, &LayoutError{Block: -1, Err: errors.New("nil model")}
	}
	page := m.Page
	if page.Width <= 0 || page.Height <= 0 {
		page = A4
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(m.Margin, m.Margin, m.Margin)
	pdf.SetAutoPageBreak(true, m.Margin)
	pdf.SetCompression(m.Compress)
	pdf.SetCatalogSort(true)
	created := m.Created
	if created.IsZero() {
		created = time.Now()
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	if m.Title != "" {
		pdf.SetTitle(m.Title, true)
	}
	if m.Author != "" {
		pdf.SetAuthor(m.Author, true)
	}
	pdf.SetCreator("boardpass", true)
	pdf.AddPage()

	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	contentWidth := page.Width - 2*m.Margin

	for i, b := range m.Blocks {
		switch blk := b.(type) {
		case Paragraph:
			if err := writeParagraph(pdf, enc, blk, contentWidth); err != nil {
				return nil, &LayoutError{Block: i, Err: err}
			}
		case Spacer:
			pdf.Ln(blk.Height)
		case FlowImage:
			name, err := registerImage(pdf, i, blk.Name, blk.Image)
			if err != nil {
				return nil, &LayoutError{Block: i, Err: err}
			}
			pdf.ImageOptions(name, m.Margin, 0, blk.Width, blk.Height, true, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		case FixedImage:
			name, err := registerImage(pdf, i, blk.Name, blk.Image)
			if err != nil {
				return nil, &LayoutError{Block: i, Err: err}
			}
			pdf.ImageOptions(name, blk.X, blk.Y, blk.Width, 0, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		default:
			return nil, &LayoutError{Block: i, Err: fmt.Errorf("unsupported block %T", b)}
		}
		if err := pdf.Error(); err != nil {
			return nil, &LayoutError{Block: i, Err: err}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &LayoutError{Block: -1, Err: err}
	}
	return buf.Bytes(), nil
}

// Write renders m and writes it to w with a single Write call, so a layout
// failure never leaves partial output behind.
func Write(w io.Writer, m *Model) error {
	data, err := Render(m)
	if err != nil {
		return err
	}
	n, err := w.Write(data)
	if err != nil {
		return &SinkError{Err: err}
	}
	if n != len(data) {
		return &SinkError{Err: io.ErrShortWrite}
	}
	return nil
}

func writeParagraph(pdf *gofpdf.Fpdf, enc *encoding.Encoder, p Paragraph, width float64) error {
	size := p.Style.Size
	if size <= 0 {
		size = defaultSize
	}
	style := ""
	if p.Style.Bold {
		style = "B"
	}
	text, err := enc.String(p.Text)
	if err != nil {
		return fmt.Errorf("encode text: %w", err)
	}

	if p.SpaceBefore > 0 {
		pdf.Ln(p.SpaceBefore)
	}
	pdf.SetFont(fontFamily, style, size)
	c := p.Style.Color
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	pdf.MultiCell(width, size*leading, text, "", "L", false)
	if p.SpaceAfter > 0 {
		pdf.Ln(p.SpaceAfter)
	}
	return nil
}

// registerImage embeds img as an 8-bit PNG, the depth gofpdf can parse.
func registerImage(pdf *gofpdf.Fpdf, index int, name string, img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", errors.New("empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.Clone(img)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	key := fmt.Sprintf("img%d-%s", index, name)
	pdf.RegisterImageOptionsReader(key, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	if err := pdf.Error(); err != nil {
		return "", fmt.Errorf("register image: %w", err)
	}
	return key, nil
}
