package shm_test

import (
	"context"
	"image"
	"image/color"
	"testing"

	wl "deedles.dev/wlbackend/client"
	"deedles.dev/wlbackend/internal/wltest"
	"deedles.dev/wlbackend/shm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect returns a client with wl_shm bound.
func connect(t *testing.T) (*wltest.Compositor, *wl.Client, *wl.Shm) {
	t.Helper()

	comp := wltest.New(t)
	name := comp.AddGlobal("wl_shm", 1)

	conn, err := comp.Dial("")
	require.NoError(t, err)
	client := wl.NewClient(conn)

	ctx, cancel := context.WithCancel(context.Background())
	go client.Listen(ctx)
	t.Cleanup(func() {
		cancel()
		client.Close()
		<-client.Done()
	})

	registry := client.Display().GetRegistry()
	require.NoError(t, client.RoundTrip())
	require.Contains(t, registry.Globals(), name)

	return comp, client, wl.BindShm(registry, name, 1)
}

func TestPoolAllocate(t *testing.T) {
	comp, client, s := connect(t)

	pool, err := shm.NewPool(s, 1024, 4096)
	require.NoError(t, err)
	defer pool.Destroy()
	assert.Equal(t, 1024, pool.Size())

	b1, err := pool.Allocate(image.Pt(4, 4), wl.ShmFormatArgb8888)
	require.NoError(t, err)
	b2, err := pool.Allocate(image.Pt(4, 4), wl.ShmFormatArgb8888)
	require.NoError(t, err)
	assert.NotSame(t, b1, b2)
	assert.Equal(t, image.Pt(4, 4), b1.Size())
	assert.Equal(t, wl.ShmFormatArgb8888, b1.Format())

	img := b2.Image()
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	img.Set(1, 2, color.RGBA{R: 0xFF, A: 0xFF})
	r, _, _, a := img.At(1, 2).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Equal(t, uint32(0xFFFF), a)
	r, _, _, _ = b1.Image().At(1, 2).RGBA()
	assert.Zero(t, r)

	require.NoError(t, client.RoundTrip())
	create := comp.Requests("wl_shm_pool.create_buffer")
	require.Len(t, create, 2)
	assert.Equal(t, int32(0), create[0].Args[1])
	assert.Equal(t, int32(64), create[1].Args[1])
	assert.Equal(t, int32(16), create[1].Args[4])

	_, err = pool.Allocate(image.Point{}, wl.ShmFormatArgb8888)
	assert.Error(t, err)
}

func TestPoolReuse(t *testing.T) {
	comp, client, s := connect(t)

	pool, err := shm.NewPool(s, 1024, 4096)
	require.NoError(t, err)
	defer pool.Destroy()

	b1, err := pool.Allocate(image.Pt(4, 4), wl.ShmFormatArgb8888)
	require.NoError(t, err)
	require.NoError(t, client.RoundTrip())
	assert.False(t, b1.Released())

	comp.ReleaseBuffers()
	require.NoError(t, client.RoundTrip())
	assert.True(t, b1.Released())

	b2, err := pool.Allocate(image.Pt(4, 4), wl.ShmFormatXrgb8888)
	require.NoError(t, err)
	assert.NotSame(t, b1, b2)

	b3, err := pool.Allocate(image.Pt(4, 4), wl.ShmFormatArgb8888)
	require.NoError(t, err)
	assert.Same(t, b1, b3)
	assert.False(t, b3.Released())

	require.NoError(t, client.RoundTrip())
	assert.Len(t, comp.Requests("wl_shm_pool.create_buffer"), 2)
}

func TestPoolGrow(t *testing.T) {
	comp, client, s := connect(t)

	pool, err := shm.NewPool(s, 256, 1024)
	require.NoError(t, err)
	defer pool.Destroy()

	_, err = pool.Allocate(image.Pt(8, 8), wl.ShmFormatArgb8888)
	require.NoError(t, err)
	assert.Equal(t, 256, pool.Size())

	b, err := pool.Allocate(image.Pt(8, 8), wl.ShmFormatArgb8888)
	require.NoError(t, err)
	assert.Equal(t, 512, pool.Size())
	b.Image().Set(7, 7, color.White)

	require.NoError(t, client.RoundTrip())
	resize := comp.Requests("wl_shm_pool.resize")
	require.Len(t, resize, 1)
	assert.Equal(t, int32(512), resize[0].Args[0])

	_, err = pool.Allocate(image.Pt(8, 32), wl.ShmFormatArgb8888)
	assert.ErrorIs(t, err, shm.ErrExhausted)
	assert.Equal(t, 512, pool.Size())

	_, err = pool.Allocate(image.Pt(8, 8), wl.ShmFormatArgb8888)
	require.NoError(t, err)
	_, err = pool.Allocate(image.Pt(8, 8), wl.ShmFormatArgb8888)
	require.NoError(t, err)
	assert.Equal(t, 1024, pool.Size())

	_, err = pool.Allocate(image.Pt(1, 1), wl.ShmFormatArgb8888)
	assert.ErrorIs(t, err, shm.ErrExhausted)
	assert.NoError(t, comp.Err())
}

func TestPoolDestroy(t *testing.T) {
	comp, client, s := connect(t)

	pool, err := shm.NewPool(s, 1024, 1024)
	require.NoError(t, err)
	for range 3 {
		_, err := pool.Allocate(image.Pt(2, 2), wl.ShmFormatArgb8888)
		require.NoError(t, err)
	}

	pool.Destroy()
	require.NoError(t, client.RoundTrip())
	assert.Len(t, comp.Requests("wl_buffer.destroy"), 3)
	assert.Len(t, comp.Requests("wl_shm_pool.destroy"), 1)
	assert.Empty(t, comp.Resources("wl_buffer"))
	assert.Empty(t, comp.Resources("wl_shm_pool"))
}

func TestNewPoolInvalidSize(t *testing.T) {
	_, _, s := connect(t)

	_, err := shm.NewPool(s, 0, 1024)
	assert.Error(t, err)
}
