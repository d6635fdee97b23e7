package wl

import (
	"os"

	"deedles.dev/wlbackend/wire"
)

type Shm struct {
	object
	Listener ShmListener
}

type ShmListener interface {
	Format(format ShmFormat)
}

func IsShm(i Interface) bool {
	return i.Is(ShmInterface, 1)
}

func BindShm(registry *Registry, name, version uint32) *Shm {
	var shm Shm
	registry.bind(name, &shm, &shm.object, min(version, ShmVersion))
	return &shm
}

func (shm *Shm) Interface() string {
	return ShmInterface
}

func (shm *Shm) MethodName(op uint16) string {
	return methodName([]string{"format"}, op)
}

func (shm *Shm) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		format := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if shm.Listener != nil {
			shm.Listener.Format(ShmFormat(format))
		}
		return nil

	default:
		return unknownEvent(ShmInterface, msg.Op())
	}
}

// CreatePool shares size bytes of file with the compositor. The file
// can be closed once this returns.
func (shm *Shm) CreatePool(file *os.File, size int32) *ShmPool {
	var pool ShmPool
	shm.child(&pool.object, shm.version)
	shm.client.Add(&pool)

	msg := wire.NewMessage(shm, 0, "create_pool")
	msg.WriteObject(&pool)
	msg.WriteFile(file)
	msg.WriteInt(size)
	shm.client.send(msg)

	return &pool
}

type ShmPool struct {
	object
}

func (pool *ShmPool) Interface() string {
	return ShmPoolInterface
}

func (pool *ShmPool) MethodName(op uint16) string {
	return methodName(nil, op)
}

func (pool *ShmPool) Dispatch(msg *wire.MessageBuffer) error {
	return unknownEvent(ShmPoolInterface, msg.Op())
}

func (pool *ShmPool) CreateBuffer(offset, width, height, stride int32, format ShmFormat) *Buffer {
	var buf Buffer
	pool.child(&buf.object, 1)
	pool.client.Add(&buf)

	msg := wire.NewMessage(pool, 0, "create_buffer")
	msg.WriteObject(&buf)
	msg.WriteInt(offset)
	msg.WriteInt(width)
	msg.WriteInt(height)
	msg.WriteInt(stride)
	msg.WriteUint(uint32(format))
	pool.client.send(msg)

	return &buf
}

func (pool *ShmPool) Destroy() {
	pool.client.send(wire.NewMessage(pool, 1, "destroy"))
	pool.dead = true
}

// Resize grows the pool. Pools can never shrink.
func (pool *ShmPool) Resize(size int32) {
	msg := wire.NewMessage(pool, 2, "resize")
	msg.WriteInt(size)
	pool.client.send(msg)
}

type Buffer struct {
	object
	Listener BufferListener
}

type BufferListener interface {
	Release()
}

func (buf *Buffer) Interface() string {
	return BufferInterface
}

func (buf *Buffer) MethodName(op uint16) string {
	return methodName([]string{"release"}, op)
}

func (buf *Buffer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		if buf.Listener != nil {
			buf.Listener.Release()
		}
		return nil

	default:
		return unknownEvent(BufferInterface, msg.Op())
	}
}

func (buf *Buffer) Destroy() {
	buf.client.send(wire.NewMessage(buf, 0, "destroy"))
	buf.dead = true
}
