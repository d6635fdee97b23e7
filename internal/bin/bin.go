// Package bin contains utilities for dealing with binary
// representations. Wayland encodes every argument as a 32 bit word in
// host byte order.
package bin

import (
	"io"
	"unsafe"
)

type word interface {
	~int32 | ~uint32
}

// Bytes returns the host byte order representation of v.
func Bytes[T word](v T) [4]byte {
	return *(*[4]byte)(unsafe.Pointer(&v))
}

// Value is the inverse of Bytes.
func Value[T word](data [4]byte) T {
	return *(*T)(unsafe.Pointer(&data))
}

func Read[T word](r io.Reader) (T, error) {
	var data [4]byte
	_, err := io.ReadFull(r, data[:])
	if err != nil {
		return 0, err
	}

	return Value[T](data), nil
}

func Write[T word](w io.Writer, v T) error {
	data := Bytes(v)
	n, err := w.Write(data[:])
	if (err == nil) && (n < len(data)) {
		return io.ErrShortWrite
	}
	return err
}
