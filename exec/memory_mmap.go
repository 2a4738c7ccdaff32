//go:build linux
// +build linux

package exec

import (
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// mmapMemory reserves address space for the memory's maximum size up front and commits pages as the
// memory grows, so growing never copies.
type mmapMemory struct {
	reserved []byte
	size     int
}

func newPlatformMemory(pages, max uint32) (linearMemory, error) {
	reserved, err := unix.Mmap(-1, 0, int(max)*PageSize, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_NORESERVE)
	if err != nil {
		Logger().Debug("falling back to heap memory", zap.Uint32("maxPages", max), zap.Error(err))
		return newHeapMemory(pages), nil
	}

	m := &mmapMemory{reserved: reserved}
	if err := m.grow(pages); err != nil {
		unix.Munmap(reserved)
		return nil, err
	}
	return m, nil
}

func (m *mmapMemory) bytes() []byte {
	return m.reserved[:m.size:m.size]
}

func (m *mmapMemory) grow(pages uint32) error {
	size := int(pages) * PageSize
	if size > len(m.reserved) {
		return ErrLimitExceeded
	}
	if size == m.size {
		return nil
	}
	if err := unix.Mprotect(m.reserved[m.size:size], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return err
	}
	m.size = size
	return nil
}

func (m *mmapMemory) close() error {
	if m.reserved == nil {
		return nil
	}
	err := unix.Munmap(m.reserved)
	m.reserved, m.size = nil, 0
	return err
}
