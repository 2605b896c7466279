package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatQR
	FormatCode128
)

// String returns the lower-case symbology name.
func (f Format) String() string {
	switch f {
	case FormatQR:
		return "qr"
	case FormatCode128:
		return "code128"
	default:
		return "unknown"
	}
}

// ParseFormat maps user input such as "qr" or "code-128" to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qr", "qrcode":
		return FormatQR, true
	case "code128", "code-128":
		return FormatCode128, true
	default:
		return FormatUnknown, false
	}
}

var (
	// ErrUnencodable is matched by every EncodingError.
	ErrUnencodable = errors.New("barcode: payload cannot be encoded")

	// ErrDecodeFailure reports that no readable symbol was found in an image.
	ErrDecodeFailure = errors.New("barcode: no readable symbol found")
)

// EncodingError describes why a payload could not be turned into a symbol.
type EncodingError struct {
	Payload string
	Reason  string
	Err     error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("barcode: cannot encode %q: %s: %v", e.Payload, e.Reason, e.Err)
	}
	return fmt.Sprintf("barcode: cannot encode %q: %s", e.Payload, e.Reason)
}

func (e *EncodingError) Is(target error) bool { return target == ErrUnencodable }

func (e *EncodingError) Unwrap() error { return e.Err }

// Options controls decoding behavior.
type Options struct {
	// Formats constrains the set of symbologies to search. Empty means all.
	Formats []Format

	// TryHarder enables more exhaustive search (slower but more robust).
	TryHarder bool

	// ROI optionally restricts decoding to a sub-rectangle of the image.
	// If zero-sized or out of bounds it is ignored.
	ROI image.Rectangle
}

// Point is an integer point in image coordinates.
type Point struct {
	X int
	Y int
}

// Result represents a decoded barcode.
type Result struct {
	Type   Format
	Value  string
	Points []Point
	BBox   image.Rectangle
}

// Decoder reads barcodes out of raster images.
type Decoder interface {
	Decode(ctx context.Context, img image.Image, opts Options) (Result, error)
}
