package capture

import (
	"bufio"
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"
	"os"

	"github.com/spf13/afero"
)

const scannerBufferSize = 1 * 1000 * 1000 // 1 MB

// Scanner sequentially reads message frames from a capture file. It
// internally uses a buffered reader to improve performance. Scan returns
// io.EOF once all frames have been read
type Scanner struct {
	fs     afero.Fs
	file   afero.File
	offset int64
	reader *bufio.Reader

	sizeBuf [frameHeaderSize]byte
	crcHash hash.Hash32
}

// NewScanner opens the capture file at the given path and positions itself at
// the first frame. It verifies the file header before returning
func NewScanner(fs afero.Fs, path string) (*Scanner, error) {
	if _, err := ReadHeader(fs, path); err != nil {
		return nil, err
	}

	file, err := fs.OpenFile(path, os.O_RDONLY, 0666)
	if err != nil {
		return nil, err
	}
	reader := bufio.NewReaderSize(file, scannerBufferSize)
	// Skip the file header
	_, err = reader.Discard(HeaderSize)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &Scanner{
		fs:      fs,
		file:    file,
		reader:  reader,
		crcHash: crc32.NewIEEE(),
	}, nil
}

// Scan returns the next message payload and the offset of its frame in the
// file. It verifies the frame's CRC checksum. At the end of the file it
// returns io.EOF; an end of file in the middle of a frame is reported as
// io.ErrUnexpectedEOF
func (scanner *Scanner) Scan() ([]byte, int64, error) {
	scanner.crcHash.Reset()
	frameOffset := scanner.offset + HeaderSize

	if _, err := io.ReadFull(scanner.reader, scanner.sizeBuf[:]); err != nil {
		// A clean end of file before the size field means there are no more
		// frames, so io.EOF passes through unchanged
		return nil, 0, err
	}
	scanner.crcHash.Write(scanner.sizeBuf[:])

	size := binary.LittleEndian.Uint32(scanner.sizeBuf[:])
	// Check the size against the maximum to detect corruption of the size
	// field, since otherwise a corrupted size may cause a huge number of
	// bytes to be allocated
	if int64(size) > maxFrameSize {
		return nil, 0, ErrFrameTooLarge
	}

	message := make([]byte, size)
	if _, err := io.ReadFull(scanner.reader, message); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, 0, err
	}
	scanner.crcHash.Write(message)

	// Check CRC
	crc := scanner.crcHash.Sum32()
	if _, err := io.ReadFull(scanner.reader, scanner.sizeBuf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, 0, err
	}
	fileCrc := binary.LittleEndian.Uint32(scanner.sizeBuf[:])
	if fileCrc != crc {
		return nil, 0, ErrCrcChecksumMismatch
	}

	scanner.offset += int64(frameHeaderSize + int(size) + 4)
	return message, frameOffset, nil
}

// Close closes the underlying file
func (scanner *Scanner) Close() error {
	return scanner.file.Close()
}
