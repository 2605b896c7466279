package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PhotoConfig describes a simulated camera shot of a printed QR code.
type PhotoConfig struct {
	Payload    string
	CodeSize   int
	Canvas     int
	Background color.Color
	// Rotation in degrees, counter-clockwise.
	Rotation float64
	// Blur is the gaussian sigma applied last. Zero keeps the image sharp.
	Blur float64
}

// DefaultPhotoConfig returns a straight, sharp shot of payload.
func DefaultPhotoConfig(payload string) PhotoConfig {
	return PhotoConfig{
		Payload:    payload,
		CodeSize:   240,
		Canvas:     480,
		Background: color.Gray{Y: 200},
	}
}

// QRPhoto renders the QR code on a larger canvas the way a phone camera
// would frame it.
func QRPhoto(cfg PhotoConfig) (image.Image, error) {
	code, err := barcode.GenerateQR(cfg.Payload, cfg.CodeSize)
	if err != nil {
		return nil, err
	}
	if cfg.Canvas < code.Bounds().Dx() {
		cfg.Canvas = code.Bounds().Dx()
	}

	canvas := imaging.New(cfg.Canvas, cfg.Canvas, cfg.Background)
	var out image.Image = imaging.PasteCenter(canvas, code)
	if cfg.Rotation != 0 {
		out = imaging.Rotate(out, cfg.Rotation, cfg.Background)
	}
	if cfg.Blur > 0 {
		out = imaging.Blur(out, cfg.Blur)
	}
	return out, nil
}

// Logo draws a solid issuer logo with a caption.
func Logo(width, height int, caption string) image.Image {
	img := CreateTestImage(width, height, color.RGBA{R: 0, G: 51, B: 160, A: 255})
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	textWidth := font.MeasureString(drawer.Face, caption).Ceil()
	textHeight := drawer.Face.Metrics().Height.Ceil()
	drawer.Dot = fixed.P((width-textWidth)/2, (height+textHeight)/2)
	drawer.DrawString(caption)
	return img
}

// CreateTestImage creates a simple test image with the specified dimensions and color.
func CreateTestImage(width, height int, backgroundColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// SavePNG writes img to path, creating parent directories.
func SavePNG(img image.Image, path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // G304: test output path
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// WriteQRPhoto saves a default QR photo of payload as dir/name.
func WriteQRPhoto(dir, name, payload string) (string, error) {
	img, err := QRPhoto(DefaultPhotoConfig(payload))
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	return path, SavePNG(img, path)
}

// WriteLogo saves a 400x400 logo as dir/logo.png.
func WriteLogo(dir string) (string, error) {
	path := filepath.Join(dir, "logo.png")
	return path, SavePNG(Logo(400, 400, "AIRLINE"), path)
}

// CompareImages reports whether two images have identical bounds and a mean
// per-channel difference within tolerance (0..1).
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	b := img1.Bounds()
	if b != img2.Bounds() {
		return false
	}
	var total, count float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r1, g1, b1, a1 := img1.At(x, y).RGBA()
			r2, g2, b2, a2 := img2.At(x, y).RGBA()
			total += absDiff(r1, r2) + absDiff(g1, g2) + absDiff(b1, b2) + absDiff(a1, a2)
			count += 4
		}
	}
	if count == 0 {
		return true
	}
	return total/count/0xffff <= tolerance
}

func absDiff(a, b uint32) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
