package cursor_test

import (
	"image"
	"image/color"
	"testing"

	"deedles.dev/wlbackend/cursor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestResolveShape(t *testing.T) {
	xterm := cursor.Image{Image: solid(2, 8, color.Black), Hotspot: image.Pt(1, 4)}
	arrow := cursor.Image{Image: solid(4, 4, color.White), Hotspot: image.Pt(0, 0)}
	theme := cursor.MapTheme{
		"xterm": xterm,
		"arrow": arrow,
	}

	img, ok := cursor.ResolveShape(theme, cursor.IBeam)
	require.True(t, ok)
	assert.Equal(t, xterm, img)

	// left_ptr and default are missing, so arrow is the fallback.
	img, ok = cursor.ResolveShape(theme, cursor.Arrow)
	require.True(t, ok)
	assert.Equal(t, arrow, img)

	_, ok = cursor.ResolveShape(theme, cursor.DragLink)
	assert.False(t, ok)
	_, ok = cursor.ResolveShape(nil, cursor.Arrow)
	assert.False(t, ok)
}

func TestNormalizeSameSize(t *testing.T) {
	src := solid(3, 5, color.RGBA{G: 0xFF, A: 0xFF})
	src.Rect = image.Rect(2, 2, 3, 5)

	img := cursor.Normalize(cursor.Image{Image: src, Hotspot: image.Pt(1, 2)}, 24, 24)
	assert.Equal(t, image.Pt(1, 3), img.Size())
	assert.Equal(t, image.Pt(1, 2), img.Hotspot)
	assert.Equal(t, color.RGBA{G: 0xFF, A: 0xFF}, img.Image.At(0, 0))
}

func TestNormalizeScale(t *testing.T) {
	src := solid(24, 24, color.RGBA{R: 0xFF, A: 0xFF})

	img := cursor.Normalize(cursor.Image{Image: src, Hotspot: image.Pt(6, 12)}, 24, 48)
	assert.Equal(t, image.Pt(48, 48), img.Size())
	assert.Equal(t, image.Pt(12, 24), img.Hotspot)
	_, isRGBA := img.Image.(*image.RGBA)
	assert.True(t, isRGBA)
	r, _, _, a := img.Image.At(24, 24).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Equal(t, uint32(0xFFFF), a)

	img = cursor.Normalize(cursor.Image{Image: src, Hotspot: image.Pt(6, 12)}, 24, 16)
	assert.Equal(t, image.Pt(16, 16), img.Size())
	assert.Equal(t, image.Pt(4, 8), img.Hotspot)

	img = cursor.Normalize(cursor.Image{Image: solid(1, 1, color.White)}, 48, 1)
	assert.Equal(t, image.Pt(1, 1), img.Size())
}

func TestEnvTheme(t *testing.T) {
	t.Setenv("XCURSOR_THEME", "Adwaita")
	t.Setenv("XCURSOR_SIZE", "32")
	name, size := cursor.EnvTheme()
	assert.Equal(t, "Adwaita", name)
	assert.Equal(t, 32, size)

	t.Setenv("XCURSOR_THEME", "")
	t.Setenv("XCURSOR_SIZE", "huge")
	name, size = cursor.EnvTheme()
	assert.Equal(t, cursor.DefaultThemeName, name)
	assert.Equal(t, cursor.DefaultSize, size)
}

func TestImageSize(t *testing.T) {
	assert.Equal(t, image.Point{}, cursor.Image{}.Size())
	assert.Equal(t, image.Pt(3, 2), cursor.Image{Image: solid(3, 2, color.White)}.Size())
}
