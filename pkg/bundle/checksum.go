package bundle

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Checksum returns the hex-encoded big-endian xxh3 hash of data.
func Checksum(data []byte) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], xxh3.Hash(data))
	return hex.EncodeToString(b[:])
}

// VerifyChecksum fails with ErrChecksum when data does not hash to
// expected.
func VerifyChecksum(data []byte, expected string) error {
	if actual := Checksum(data); actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksum, expected, actual)
	}
	return nil
}
