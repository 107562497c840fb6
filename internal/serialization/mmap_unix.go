//go:build unix

package serialization

import (
	"os"
	"syscall"
)

// mapReadOnly maps the first size bytes of f as a private read-only view.
func mapReadOnly(f *os.File, size int) ([]byte, error) {
	fd := int(f.Fd()) //nolint:gosec // G115: descriptors fit in int on unix
	return syscall.Mmap(fd, 0, size, syscall.PROT_READ, syscall.MAP_PRIVATE)
}

func unmap(view []byte) error {
	return syscall.Munmap(view)
}
