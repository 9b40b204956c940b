package resp

import "errors"

var (
	// ErrEndOfStream is returned when the source runs out of bytes before a
	// complete value has been read
	ErrEndOfStream = errors.New("unexpected end of stream")
	// ErrInvalidValue is returned when the bytes read violate the RESP
	// grammar. Errors raised by the decoder wrap this sentinel along with a
	// description of what went wrong
	ErrInvalidValue = errors.New("invalid value")
)
