package assets

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 4, 3))))
	require.NoError(t, f.Close())
}

func TestDirResolvesByExtension(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "logo.png"))

	img, err := Logo(Dir(dir))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = Dir(dir).Image("missing")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDirCorruptAsset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte("nope"), 0o600))

	_, err := Logo(Dir(dir))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFileAndStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brand.png")
	writePNG(t, path)

	img, err := File(path).Image(LogoName)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dy())

	_, err = File("").Image(LogoName)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Logo(Static{LogoName: img})
	require.NoError(t, err)
	_, err = Logo(Static{})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = Logo(nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
