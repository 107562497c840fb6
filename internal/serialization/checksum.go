package serialization

import "crypto/sha256"

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum returns ErrChecksumMismatch if the checksum of data
// differs from stored.
func ValidateChecksum(data []byte, stored [ChecksumSize]byte) error {
	if ComputeChecksum(data) != stored {
		return ErrChecksumMismatch
	}
	return nil
}
