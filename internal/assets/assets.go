// Package assets resolves named images such as the issuer logo.
package assets

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/boardpass/internal/utils"
)

// LogoName is the asset name of the issuer logo.
const LogoName = "logo"

// ErrUnavailable reports a missing or unreadable asset.
var ErrUnavailable = errors.New("asset unavailable")

// Source resolves an asset name to an image.
type Source interface {
	Image(name string) (image.Image, error)
}

// Dir serves images from a directory, trying each supported extension.
type Dir string

// Image loads name.{png,jpg,jpeg,bmp,webp} from the directory.
func (d Dir) Image(name string) (image.Image, error) {
	for _, ext := range utils.SupportedImageExtensions {
		path := filepath.Join(string(d), name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		img, _, err := utils.LoadImage(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %s not found in %s", ErrUnavailable, name, string(d))
}

// File serves a single image file under any name.
type File string

// Image loads the file.
func (f File) Image(string) (image.Image, error) {
	if f == "" {
		return nil, fmt.Errorf("%w: no file configured", ErrUnavailable)
	}
	img, _, err := utils.LoadImage(string(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return img, nil
}

// Static serves in-memory images.
type Static map[string]image.Image

// Image returns the stored image.
func (s Static) Image(name string) (image.Image, error) {
	if img, ok := s[name]; ok && img != nil {
		return img, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnavailable, name)
}

// Logo resolves the issuer logo.
func Logo(src Source) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no asset source", ErrUnavailable)
	}
	return src.Image(LogoName)
}
