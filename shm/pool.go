package shm

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"

	wl "deedles.dev/wlbackend/client"
	"deedles.dev/ximage"
	"golang.org/x/sys/unix"
)

// ErrExhausted is returned by Allocate when a buffer doesn't fit into
// the pool even after growing it to its maximum size.
var ErrExhausted = errors.New("shm pool exhausted")

// Pool hands out wl_buffers backed by a single shared memory file. The
// file grows on demand up to a fixed maximum. Released buffers are
// handed out again to requests of the same size and format.
type Pool struct {
	shm  *wl.Shm
	pool *wl.ShmPool
	file *os.File
	mmap Mmap

	size    int
	limit   int
	offset  int
	buffers []*Buffer
}

// NewPool creates a pool of initial bytes that may grow to limit
// bytes.
func NewPool(shm *wl.Shm, initial, limit int) (_ *Pool, err error) {
	if initial <= 0 {
		return nil, fmt.Errorf("invalid initial pool size %v", initial)
	}

	p := &Pool{
		shm:   shm,
		size:  initial,
		limit: max(initial, limit),
	}
	defer func() {
		if err != nil {
			p.Destroy()
		}
	}()

	file, err := Create()
	if err != nil {
		return nil, err
	}
	p.file = file

	err = file.Truncate(int64(initial))
	if err != nil {
		return nil, fmt.Errorf("truncate shm file: %w", err)
	}

	mmap, err := MapShared(file, initial, unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return nil, fmt.Errorf("mmap shm file: %w", err)
	}
	p.mmap = mmap

	p.pool = shm.CreatePool(file, int32(initial))
	return p, nil
}

// Size is the current size of the pool in bytes.
func (p *Pool) Size() int {
	return p.size
}

// Allocate returns a buffer of the given size and format, reusing a
// released one if possible.
func (p *Pool) Allocate(size image.Point, format wl.ShmFormat) (*Buffer, error) {
	if (size.X <= 0) || (size.Y <= 0) {
		return nil, fmt.Errorf("invalid buffer size %v", size)
	}

	for _, b := range p.buffers {
		if b.released && (b.size == size) && (b.format == format) {
			b.released = false
			return b, nil
		}
	}

	stride := size.X * format.BytesPerPixel()
	length := stride * size.Y
	if p.offset+length > p.size {
		err := p.grow(p.offset + length)
		if err != nil {
			return nil, err
		}
	}

	b := Buffer{
		pool:   p,
		offset: p.offset,
		size:   size,
		stride: stride,
		format: format,
	}
	b.buf = p.pool.CreateBuffer(int32(b.offset), int32(size.X), int32(size.Y), int32(stride), format)
	b.buf.Listener = (*bufferListener)(&b)

	p.offset += length
	p.buffers = append(p.buffers, &b)
	return &b, nil
}

func (p *Pool) grow(need int) error {
	if need > p.limit {
		return fmt.Errorf("%w: need %v bytes, limit is %v", ErrExhausted, need, p.limit)
	}
	size := min(max(p.size*2, need), p.limit)

	err := p.file.Truncate(int64(size))
	if err != nil {
		return fmt.Errorf("truncate shm file: %w", err)
	}

	err = p.mmap.Unmap()
	if err != nil {
		return fmt.Errorf("unmap: %w", err)
	}
	p.mmap = nil
	mmap, err := MapShared(p.file, size, unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return fmt.Errorf("mmap: %w", err)
	}
	p.mmap = mmap

	p.pool.Resize(int32(size))
	p.size = size
	return nil
}

// Destroy destroys every buffer and the pool itself.
func (p *Pool) Destroy() {
	for _, b := range p.buffers {
		b.buf.Destroy()
	}
	p.buffers = nil

	if p.pool != nil {
		p.pool.Destroy()
		p.pool = nil
	}
	if p.mmap != nil {
		p.mmap.Unmap()
		p.mmap = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
}

// Buffer is a wl_buffer allocated from a Pool.
type Buffer struct {
	pool     *Pool
	buf      *wl.Buffer
	offset   int
	size     image.Point
	stride   int
	format   wl.ShmFormat
	released bool
}

func (b *Buffer) Buffer() *wl.Buffer {
	return b.buf
}

func (b *Buffer) Size() image.Point {
	return b.size
}

func (b *Buffer) Format() wl.ShmFormat {
	return b.format
}

// Released reports whether the compositor has released the buffer
// since it was last allocated.
func (b *Buffer) Released() bool {
	return b.released
}

// Image returns an image backed directly by the buffer's memory. The
// image is invalidated by the next allocation that grows the pool.
func (b *Buffer) Image() draw.Image {
	return &ximage.FormatImage{
		Format: ximage.ARGB8888,
		Rect:   image.Rectangle{Max: b.size},
		Pix:    b.pool.mmap[b.offset : b.offset+b.stride*b.size.Y],
	}
}

type bufferListener Buffer

func (lis *bufferListener) Release() {
	lis.released = true
}
