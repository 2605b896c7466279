package barcode

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"strings"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// NewDecoder returns the gozxing-backed decoder.
func NewDecoder() Decoder { return &gozxingDecoder{} }

type gozxingDecoder struct{}

// Decode tries each requested symbology in turn and returns the first hit.
func (d *gozxingDecoder) Decode(ctx context.Context, img image.Image, opts Options) (Result, error) {
	if img == nil {
		return Result{}, fmt.Errorf("%w: nil image", ErrDecodeFailure)
	}
	if !opts.ROI.Empty() {
		if roiImg, ok := subImage(img, opts.ROI); ok {
			img = roiImg
		}
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	hints := make(map[gozxing.DecodeHintType]interface{})
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = []Format{FormatQR, FormatCode128}
	}

	var failures []string
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		reader, ok := readerFor(f)
		if !ok {
			continue
		}
		r, err := reader.Decode(bmp, hints)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", f, err))
			continue
		}
		return toResult(r), nil
	}

	if len(failures) == 0 {
		return Result{}, fmt.Errorf("%w: no supported format requested", ErrDecodeFailure)
	}
	return Result{}, fmt.Errorf("%w (%s)", ErrDecodeFailure, strings.Join(failures, "; "))
}

// DecodeQR reads a QR symbol and returns its text.
func DecodeQR(ctx context.Context, img image.Image) (string, error) {
	res, err := NewDecoder().Decode(ctx, img, Options{Formats: []Format{FormatQR}, TryHarder: true})
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

func readerFor(f Format) (gozxing.Reader, bool) {
	switch f {
	case FormatQR:
		return qrcode.NewQRCodeReader(), true
	case FormatCode128:
		return oned.NewCode128Reader(), true
	default:
		return nil, false
	}
}

func toResult(r *gozxing.Result) Result {
	var points []Point
	if pts := r.GetResultPoints(); len(pts) > 0 {
		points = make([]Point, 0, len(pts))
		for _, p := range pts {
			points = append(points, Point{X: int(p.GetX()), Y: int(p.GetY())})
		}
	}
	return Result{
		Type:   mapFormatFromZXing(r.GetBarcodeFormat()),
		Value:  r.GetText(),
		Points: points,
		BBox:   rectFromPoints(points),
	}
}

func mapFormatFromZXing(bf gozxing.BarcodeFormat) Format {
	switch bf {
	case gozxing.BarcodeFormat_QR_CODE:
		return FormatQR
	case gozxing.BarcodeFormat_CODE_128:
		return FormatCode128
	default:
		return FormatUnknown
	}
}

func rectFromPoints(pts []Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// subImage returns the part of img inside r, copying when img cannot slice itself.
func subImage(img image.Image, r image.Rectangle) (image.Image, bool) {
	rb := r.Intersect(img.Bounds())
	if rb.Empty() {
		return nil, false
	}
	type subImager interface{ SubImage(r image.Rectangle) image.Image }
	if s, ok := img.(subImager); ok {
		return s.SubImage(rb), true
	}
	dst := image.NewRGBA(image.Rect(0, 0, rb.Dx(), rb.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rb.Min, draw.Src)
	return dst, true
}
