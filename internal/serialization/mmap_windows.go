//go:build windows

package serialization

import (
	"os"
	"syscall"
	"unsafe"
)

// mapReadOnly maps the first size bytes of f as a read-only view.
func mapReadOnly(f *os.File, size int) ([]byte, error) {
	handle, err := syscall.CreateFileMapping(
		syscall.Handle(f.Fd()),
		nil,
		syscall.PAGE_READONLY,
		uint32(uint64(size)>>32), //nolint:gosec // G115: high half of the size
		uint32(size),             //nolint:gosec // G115: low half of the size
		nil,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = syscall.CloseHandle(handle) }()

	addr, err := syscall.MapViewOfFile(handle, syscall.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G103: addr is a live read-only view of exactly size bytes
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func unmap(view []byte) error {
	return syscall.UnmapViewOfFile(uintptr(unsafe.Pointer(unsafe.SliceData(view))))
}
