package cursor

import (
	"errors"
	"fmt"
	"image"
)

// ErrEmptyCursor is returned by decoders that produce an image with no
// pixels.
var ErrEmptyCursor = errors.New("empty cursor image")

// Decoder fetches the image of a cursor identified by a serial that
// was handed out by some other party, such as an X server.
type Decoder interface {
	DecodeCursor(serial uint32) (image.Image, image.Point, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(serial uint32) (image.Image, image.Point, error)

func (f DecoderFunc) DecodeCursor(serial uint32) (image.Image, image.Point, error) {
	return f(serial)
}

// Data is a decoded cursor. A Data whose decoding failed is invalid but
// is still worth keeping, so that the failure isn't repeated.
type Data struct {
	img Image
	err error
}

// NewData decodes the cursor identified by serial. It never fails.
// Errors, including panics in dec, are recorded in the returned Data.
func NewData(dec Decoder, serial uint32) (data Data) {
	defer func() {
		if r := recover(); r != nil {
			data = Data{err: fmt.Errorf("decode cursor %v: %v", serial, r)}
		}
	}()

	if dec == nil {
		return Data{err: errors.New("no cursor decoder")}
	}

	img, hot, err := dec.DecodeCursor(serial)
	if err != nil {
		return Data{err: fmt.Errorf("decode cursor %v: %w", serial, err)}
	}
	if (img == nil) || img.Bounds().Empty() {
		return Data{err: fmt.Errorf("decode cursor %v: %w", serial, ErrEmptyCursor)}
	}

	return Data{img: Image{Image: img, Hotspot: hot}}
}

func (d Data) Valid() bool {
	return d.err == nil && d.img.Image != nil
}

// Err is the reason that the data is invalid.
func (d Data) Err() error {
	if (d.err == nil) && (d.img.Image == nil) {
		return ErrEmptyCursor
	}
	return d.err
}

func (d Data) Image() Image {
	return d.img
}
