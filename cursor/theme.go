package cursor

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"

	"deedles.dev/ximage/xcursor"
	"golang.org/x/image/draw"
)

const (
	DefaultThemeName = "default"
	DefaultSize      = 24
)

// ErrThemeNotFound is returned when a theme has no cursors at all.
var ErrThemeNotFound = errors.New("cursor theme not found")

// Image is a cursor image and its hotspot.
type Image struct {
	Image   image.Image
	Hotspot image.Point
}

// Size is the size of the image.
func (img Image) Size() image.Point {
	if img.Image == nil {
		return image.Point{}
	}
	return img.Image.Bounds().Size()
}

// Theme is a source of named cursor images.
type Theme interface {
	Cursor(name string) (Image, bool)
}

// ThemeLoader loads the named theme at the given nominal size.
type ThemeLoader func(name string, size int) (Theme, error)

// ResolveShape looks shape up in theme under each of its names in
// turn.
func ResolveShape(theme Theme, shape Shape) (Image, bool) {
	if theme == nil {
		return Image{}, false
	}

	for _, name := range shape.ThemeNames() {
		img, ok := theme.Cursor(name)
		if ok {
			return img, true
		}
	}
	return Image{}, false
}

// EnvTheme returns the theme name and size set by $XCURSOR_THEME and
// $XCURSOR_SIZE, or the defaults.
func EnvTheme() (name string, size int) {
	name, size = DefaultThemeName, DefaultSize
	if v := os.Getenv("XCURSOR_THEME"); v != "" {
		name = v
	}
	if v, err := strconv.Atoi(os.Getenv("XCURSOR_SIZE")); (err == nil) && (v > 0) {
		size = v
	}
	return name, size
}

// MapTheme is a theme held in memory.
type MapTheme map[string]Image

func (t MapTheme) Cursor(name string) (Image, bool) {
	img, ok := t[name]
	return img, ok
}

type xcursorTheme struct {
	theme *xcursor.Theme
	size  int
	cache map[string]Image
}

// LoadTheme loads an Xcursor theme from the standard search path.
// Images are scaled to size when the theme doesn't provide it.
func LoadTheme(name string, size int) (Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}
	if size <= 0 {
		size = DefaultSize
	}

	theme, err := xcursor.LoadTheme(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrThemeNotFound, name, err)
	}
	if len(theme.Cursors) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}

	return &xcursorTheme{
		theme: theme,
		size:  size,
		cache: make(map[string]Image),
	}, nil
}

func (t *xcursorTheme) Cursor(name string) (Image, bool) {
	if img, ok := t.cache[name]; ok {
		return img, true
	}

	c, ok := t.theme.Cursors[name]
	if !ok {
		return Image{}, false
	}
	best := c.BestSize(t.size)
	frames := c.Images[best]
	if len(frames) == 0 {
		return Image{}, false
	}
	frame := frames[0]

	img := Normalize(Image{Image: frame.Image, Hotspot: frame.Hot}, best, t.size)
	t.cache[name] = img
	return img, true
}

// Normalize converts img, drawn at the nominal size from, to an RGBA
// image at the nominal size to, scaling its hotspot along with it.
func Normalize(img Image, from, to int) Image {
	src := img.Image
	sb := src.Bounds()

	if (from <= 0) || (from == to) {
		dst := image.NewRGBA(image.Rectangle{Max: sb.Size()})
		draw.Draw(dst, dst.Rect, src, sb.Min, draw.Src)
		return Image{Image: dst, Hotspot: img.Hotspot}
	}

	scale := func(v int) int { return (v*to + from/2) / from }
	size := image.Pt(max(scale(sb.Dx()), 1), max(scale(sb.Dy()), 1))
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, sb, draw.Src, nil)

	return Image{
		Image:   dst,
		Hotspot: image.Pt(scale(img.Hotspot.X), scale(img.Hotspot.Y)),
	}
}
