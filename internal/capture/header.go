package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const headerVersionMajor = 1
const headerVersionMinor = 0
const headerVersionPatch = 0

var headerMagicBytes = [...]byte{0x00, 0x72, 0x65, 0x73, 0x70, 0x43, 0x41, 0x50}

// HeaderSize is the size of the capture file header in bytes: magic bytes,
// version triple, session id and creation timestamp
const HeaderSize = 35

// Header identifies a capture file. Every capture file starts with the magic
// bytes, the version of the format it was written with, a random session id
// and the creation timestamp
type Header struct {
	VersionMajor byte
	VersionMinor byte
	VersionPatch byte
	SessionID    uuid.UUID
	Timestamp    time.Time
}

// NewHeader creates a header for a new capture file with a freshly generated
// session id
func NewHeader(ts time.Time) *Header {
	return &Header{
		VersionMajor: headerVersionMajor,
		VersionMinor: headerVersionMinor,
		VersionPatch: headerVersionPatch,
		SessionID:    uuid.New(),
		Timestamp:    ts,
	}
}

func isVersionCompatible(fileMajor, fileMinor, filePatch byte) error {
	// Major version mismatch - incompatible
	if fileMajor != headerVersionMajor {
		return fmt.Errorf(
			"%w - capture file has major version %d, reader has major version %d",
			ErrVersionNotCompatible,
			fileMajor,
			headerVersionMajor,
		)
	}
	// File is newer (minor) than reader - incompatible
	if fileMinor > headerVersionMinor {
		return fmt.Errorf(
			"%w - file was created by newer version (%d.%d.%d) of the application",
			ErrVersionNotCompatible,
			fileMajor,
			fileMinor,
			filePatch,
		)
	}
	return nil
}

// ReadHeader reads the capture file header from the file at the given path.
// It returns an error if the file is not a capture file, or if the file
// version is not compatible with this reader
func ReadHeader(fs afero.Fs, path string) (*Header, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var buf [HeaderSize]byte
	_, err = io.ReadFull(file, buf[:])
	if err != nil {
		return nil, err
	}
	// Check magic bytes to see if we are reading a capture file
	for i, b := range headerMagicBytes {
		if buf[i] != b {
			return nil, ErrNotCaptureFile
		}
	}
	header := &Header{
		VersionMajor: buf[8],
		VersionMinor: buf[9],
		VersionPatch: buf[10],
	}
	if err := isVersionCompatible(header.VersionMajor, header.VersionMinor, header.VersionPatch); err != nil {
		return nil, err
	}

	copy(header.SessionID[:], buf[11:27])

	ts := int64(binary.LittleEndian.Uint64(buf[27:]))
	header.Timestamp = time.UnixMicro(ts)

	return header, nil
}

// WriteHeader creates the file at the given path and writes the capture file
// header to it. It calls `file.Sync()` after writing so that the header is on
// disk before any frames are appended. If the file already exists, it results
// in an error
func WriteHeader(fs afero.Fs, path string, header *Header) error {
	file, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, os.ModePerm)
	if err != nil {
		return err
	}
	defer file.Close()

	var buf [HeaderSize]byte

	copy(buf[:], headerMagicBytes[:])

	buf[8] = header.VersionMajor
	buf[9] = header.VersionMinor
	buf[10] = header.VersionPatch

	copy(buf[11:27], header.SessionID[:])

	binary.LittleEndian.PutUint64(buf[27:], uint64(header.Timestamp.UnixMicro()))

	if _, err := file.Write(buf[:]); err != nil {
		return err
	}

	if err := file.Sync(); err != nil {
		return err
	}
	return nil
}
