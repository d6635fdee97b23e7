// Package shm provides shared memory files and a pool of wl_buffers
// allocated from them.
package shm

import (
	"fmt"
	"math/rand/v2"
	"os"

	"golang.org/x/sys/unix"
)

// Create returns an anonymous file suitable for sharing with the
// compositor. It prefers memfd_create and falls back to an unlinked
// file under /dev/shm.
func Create() (*os.File, error) {
	fd, err := unix.MemfdCreate("wlbackend-shm", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err == nil {
		return os.NewFile(uintptr(fd), "wlbackend-shm"), nil
	}

	for range 100 {
		path := fmt.Sprintf("/dev/shm/wlbackend-%x", rand.Uint64())
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return nil, fmt.Errorf("create shm file: %w", err)
		}

		return file, os.Remove(path)
	}

	return nil, fmt.Errorf("create shm file: %w", os.ErrExist)
}

type Mmap []byte

// MapShared maps size bytes of file into memory so that writes are
// visible to other processes mapping the same file.
func MapShared(file *os.File, size int, prot int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	cerr := sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
		mmap, err = Mmap(m), merr
	})
	if cerr != nil {
		return nil, cerr
	}

	return mmap, err
}

func (mmap Mmap) Unmap() error {
	if mmap == nil {
		return nil
	}
	return unix.Munmap(mmap)
}
