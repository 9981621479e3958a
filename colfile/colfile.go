// Package colfile reads and writes column-concatenated bytes files.
//
// Heavy column payloads are packed back to back into large files under the
// dataset's column files path, so the object store serves a few big objects
// instead of one tiny object per row. A Location records where one payload
// landed: the file, its byte offset, and its size. Writers pack and upload
// the files; readers fetch a file and slice payloads back out.
package colfile

import (
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DefaultTargetFileSize is the accumulated payload size at which a Writer
// uploads the current column file and starts a fresh one.
const DefaultTargetFileSize = 250_000_000

// locationSize is the length of a Location's binary form: 16 UUID bytes
// followed by big-endian offset and size.
const locationSize = 32

var (
	// ErrCorruptLocation is returned when a location does not decode or
	// carries impossible coordinates.
	ErrCorruptLocation = errors.New("corrupt column file location")

	// ErrWriterClosed is returned when using a Writer after Close.
	ErrWriterClosed = errors.New("column file writer is closed")
)

// Location points at one payload inside a column file.
type Location struct {
	// FileID names the column file within the column files path.
	FileID uuid.UUID
	// Offset is the payload's byte offset within the file.
	Offset int64
	// Size is the payload length in bytes.
	Size int64
}

var (
	_ encoding.BinaryMarshaler   = Location{}
	_ encoding.BinaryUnmarshaler = (*Location)(nil)
)

// MarshalBinary encodes the location into its fixed 32-byte form, suitable
// for embedding in materialized rows.
func (l Location) MarshalBinary() ([]byte, error) {
	buf := make([]byte, locationSize)
	copy(buf[:16], l.FileID[:])
	binary.BigEndian.PutUint64(buf[16:24], uint64(l.Offset))
	binary.BigEndian.PutUint64(buf[24:32], uint64(l.Size))
	return buf, nil
}

// UnmarshalBinary decodes a location from its fixed 32-byte form.
func (l *Location) UnmarshalBinary(data []byte) error {
	if len(data) != locationSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrCorruptLocation, len(data), locationSize)
	}
	copy(l.FileID[:], data[:16])
	l.Offset = int64(binary.BigEndian.Uint64(data[16:24]))
	l.Size = int64(binary.BigEndian.Uint64(data[24:32]))
	return nil
}

func (l Location) String() string {
	return fmt.Sprintf("%s[%d:%d]", l.FileID, l.Offset, l.Offset+l.Size)
}
