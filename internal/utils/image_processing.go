package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ImageConstraints bounds the size of images embedded into documents.
type ImageConstraints struct {
	MaxWidth  int
	MaxHeight int
	MinWidth  int
	MinHeight int
}

// DefaultLogoConstraints returns the limits applied to issuer logos.
func DefaultLogoConstraints() ImageConstraints {
	return ImageConstraints{
		MaxWidth:  2048,
		MaxHeight: 2048,
		MinWidth:  1,
		MinHeight: 1,
	}
}

// ValidateImageConstraints checks dimensions against the provided constraints.
func ValidateImageConstraints(img image.Image, constraints ImageConstraints) error {
	if img == nil {
		return &ImageProcessingError{Operation: "validate", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < constraints.MinWidth || h < constraints.MinHeight {
		return &ImageProcessingError{
			Operation: "validate",
			Err: fmt.Errorf(
				"image too small: %dx%d < %dx%d",
				w, h, constraints.MinWidth, constraints.MinHeight,
			),
		}
	}
	// Oversized images are scaled down by FitWidth.
	return nil
}

// FitWidth scales img to the given width, preserving aspect ratio, and never
// upscales past the constraints. Uses Lanczos resampling.
func FitWidth(img image.Image, width int, constraints ImageConstraints) (image.Image, error) {
	if err := ValidateImageConstraints(img, constraints); err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, &ImageProcessingError{Operation: "resize", Err: fmt.Errorf("invalid target width: %d", width)}
	}
	if constraints.MaxWidth > 0 && width > constraints.MaxWidth {
		width = constraints.MaxWidth
	}

	b := img.Bounds()
	height := max(b.Dy()*width/b.Dx(), 1)
	if constraints.MaxHeight > 0 && height > constraints.MaxHeight {
		height = constraints.MaxHeight
		width = max(b.Dx()*height/b.Dy(), 1)
	}
	if width == b.Dx() && height == b.Dy() {
		return imaging.Clone(img), nil
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// FlattenOnWhite composites img over an opaque white background.
func FlattenOnWhite(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "flatten", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0), nil
}
