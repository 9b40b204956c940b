package capture

import "errors"

var (
	ErrNotCaptureFile       = errors.New("not a resp capture file")
	ErrVersionNotCompatible = errors.New("capture file not supported by reader")
	ErrCrcChecksumMismatch  = errors.New("crc checksum mismatch")
	ErrFrameTooLarge        = errors.New("frame size exceeds maximum")
)
