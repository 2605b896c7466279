package barcode

import (
	"image"
	"image/color"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// MaxCode128Length is the longest payload the Code-128 writer accepts.
const MaxCode128Length = 80

// Matrix is an immutable grid of module states. A set cell is a black bar.
type Matrix struct {
	width  int
	height int
	bits   []bool
}

// Width returns the number of columns.
func (m *Matrix) Width() int { return m.width }

// Height returns the number of rows.
func (m *Matrix) Height() int { return m.height }

// At reports whether the module at (x, y) is set. Out-of-range cells are unset.
func (m *Matrix) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.bits[y*m.width+x]
}

// Equal reports whether two matrices have the same size and cells.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.width != o.width || m.height != o.height {
		return false
	}
	for i := range m.bits {
		if m.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// Image rasterises the matrix with one pixel per module.
func (m *Matrix) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.width, m.height))
	for y := 0; y < m.height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+m.width]
		for x := range row {
			if m.bits[y*m.width+x] {
				row[x] = color.Gray{}.Y
			} else {
				row[x] = color.Gray{Y: 0xff}.Y
			}
		}
	}
	return img
}

// Encode renders payload as a Code-128 symbol of exactly widthPx by heightPx
// modules, quiet zone included. Payloads that do not fit are rejected, never
// truncated.
func Encode(payload string, widthPx, heightPx int) (*Matrix, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}
	if widthPx <= 0 || heightPx <= 0 {
		return nil, &EncodingError{Payload: payload, Reason: "target size must be positive"}
	}

	bm, err := oned.NewCode128Writer().Encode(payload, gozxing.BarcodeFormat_CODE_128, widthPx, heightPx, nil)
	if err != nil {
		return nil, &EncodingError{Payload: payload, Reason: "code128 writer failed", Err: err}
	}
	if bm.GetWidth() != widthPx || bm.GetHeight() != heightPx {
		return nil, &EncodingError{
			Payload: payload,
			Reason:  "payload needs more modules than the target width",
		}
	}

	m := &Matrix{width: widthPx, height: heightPx, bits: make([]bool, widthPx*heightPx)}
	for y := 0; y < heightPx; y++ {
		for x := 0; x < widthPx; x++ {
			m.bits[y*widthPx+x] = bm.Get(x, y)
		}
	}
	return m, nil
}

// validatePayload accepts printable ASCII only; the writer maps some
// code points above 127 to function codes.
func validatePayload(payload string) error {
	if payload == "" {
		return &EncodingError{Payload: payload, Reason: "empty payload"}
	}
	if len(payload) > MaxCode128Length {
		return &EncodingError{Payload: payload, Reason: "payload exceeds 80 characters"}
	}
	for i := 0; i < len(payload); i++ {
		if c := payload[i]; c < 32 || c > 126 {
			return &EncodingError{Payload: payload, Reason: "unsupported character"}
		}
	}
	return nil
}
