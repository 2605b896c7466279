package testutil

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/MeKo-Tech/boardpass/internal/lookup"
	"github.com/MeKo-Tech/boardpass/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
	assert.True(t, DirExists(filepath.Join(root, "internal")))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestQRPhotoDecodes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PhotoConfig)
	}{
		{name: "straight", mutate: func(*PhotoConfig) {}},
		{name: "rotated", mutate: func(c *PhotoConfig) { c.Rotation = 90 }},
		{name: "soft focus", mutate: func(c *PhotoConfig) { c.Blur = 0.6 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPhotoConfig("LH401")
			tt.mutate(&cfg)
			img, err := QRPhoto(cfg)
			require.NoError(t, err)

			got, err := barcode.DecodeQR(context.Background(), img)
			require.NoError(t, err)
			assert.Equal(t, "LH401", got)
		})
	}
}

func TestWriteQRPhoto(t *testing.T) {
	path, err := WriteQRPhoto(t.TempDir(), "ticket.png", "LA2040")
	require.NoError(t, err)

	img, _, err := utils.LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 480, img.Bounds().Dx())
}

func TestLogo(t *testing.T) {
	logo := Logo(100, 60, "X")
	assert.Equal(t, 100, logo.Bounds().Dx())
	assert.False(t, CompareImages(logo, CreateTestImage(100, 60, color.RGBA{R: 0, G: 51, B: 160, A: 255}), 0))
	assert.True(t, CompareImages(logo, logo, 0))

	path, err := WriteLogo(t.TempDir())
	require.NoError(t, err)
	assert.True(t, FileExists(path))
}

func TestWriteSampleFixtures(t *testing.T) {
	path, err := WriteSampleFixtures(t.TempDir())
	require.NoError(t, err)

	store, err := lookup.LoadMemory(path)
	require.NoError(t, err)
	assert.Equal(t, len(SampleTickets()), store.Len())

	rec, err := store.Lookup(context.Background(), "LH401")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Jane Doe", rec.PassengerName)
	require.NotNil(t, rec.PriceUSD)
	assert.InDelta(t, 120.5, *rec.PriceUSD, 1e-9)

	flights, err := store.ListFlights(context.Background())
	require.NoError(t, err)
	assert.Len(t, flights, 2)
}
