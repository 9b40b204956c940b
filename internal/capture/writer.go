package capture

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"

	"github.com/spf13/afero"
)

const frameHeaderSize = 4

// maxFrameSize is the largest message payload a single frame may carry. It
// bounds the allocation made while scanning, so a corrupted size field cannot
// cause a huge buffer to be allocated
const maxFrameSize = 512 * 1024 * 1024

// Writer appends message frames to a capture file. There are no locks in this
// implementation, so it's unsafe to call Writer methods concurrently
type Writer struct {
	fs   afero.Fs
	file afero.File
	// Temporary fixed sized buffer to hold the frame size field
	buf        [frameHeaderSize]byte
	currentPos int64
}

// NewWriter opens the capture file at the specified path for appending
// frames. The file must already have a header, written with WriteHeader
func NewWriter(fs afero.Fs, path string) (*Writer, error) {
	file, err := fs.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, err
	}

	// Seek to end to find the size of the file (position for the next frame)
	pos, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &Writer{
		fs:         fs,
		file:       file,
		currentPos: pos,
	}, nil
}

// WriteFrame appends a single message as a new frame: the payload size,
// the payload bytes verbatim, then the CRC checksum of both. It does not call
// sync(), so there is a chance that data might get lost if the system
// crashes. If you need durability, call Sync() after writing.
// This function returns the offset of the frame in the file, measured from
// the start of the file
func (w *Writer) WriteFrame(message []byte) (int64, error) {
	if int64(len(message)) > maxFrameSize {
		return 0, ErrFrameTooLarge
	}
	start := w.currentPos

	h := crc32.NewIEEE()
	binary.LittleEndian.PutUint32(w.buf[:], uint32(len(message)))

	// Update CRC with the size field
	h.Write(w.buf[:])
	if _, err := w.file.Write(w.buf[:]); err != nil {
		return 0, err
	}

	// Update CRC with the payload
	h.Write(message)
	if _, err := w.file.Write(message); err != nil {
		return 0, err
	}

	// Write the CRC of the frame at the end
	crc := h.Sum32()
	if err := binary.Write(w.file, binary.LittleEndian, crc); err != nil {
		return 0, err
	}
	w.currentPos += int64(frameHeaderSize + len(message) + 4)
	return start, nil
}

// Sync flushes any buffered data to the underlying file. It calls sync() on the file
func (w *Writer) Sync() error {
	return w.file.Sync()
}

// Close closes the underlying file, it also writes any pending changes and syncs the changes to the disk
func (w *Writer) Close() error {
	if err := w.file.Sync(); err != nil {
		return err
	}
	return w.file.Close()
}
