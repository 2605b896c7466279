package barcode

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	boombuler "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// quietModules is the white border drawn around generated QR codes.
const quietModules = 4

// GenerateQR renders payload as a QR code image of roughly size pixels,
// quiet zone included.
func GenerateQR(payload string, size int) (image.Image, error) {
	if payload == "" {
		return nil, &EncodingError{Payload: payload, Reason: "empty payload"}
	}
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, &EncodingError{Payload: payload, Reason: "qr encoder failed", Err: err}
	}

	modules := code.Bounds().Dx()
	total := modules + 2*quietModules
	scale := max(size/total, 1)
	inner := modules * scale

	scaled, err := boombuler.Scale(code, inner, inner)
	if err != nil {
		return nil, &EncodingError{Payload: payload, Reason: "qr scaling failed", Err: err}
	}

	border := quietModules * scale
	out := image.NewGray(image.Rect(0, 0, inner+2*border, inner+2*border))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(border, border, border+inner, border+inner), scaled, scaled.Bounds().Min, draw.Src)
	return out, nil
}

// WriteQRPNG writes the QR code for payload to w as PNG.
func WriteQRPNG(w io.Writer, payload string, size int) error {
	img, err := GenerateQR(payload, size)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode qr png: %w", err)
	}
	return nil
}
