package resp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// Maximum length accepted for a single bulk string, same limit as redis's
	// proto-max-bulk-len default
	maxBulkStringLength = 512 * 1024 * 1024
	// Maximum number of elements accepted in a single array
	maxArrayLength = 1024 * 1024
)

// Decoder reads RESP encoded values from a byte source. It reads one byte of
// lookahead at a time and never rewinds, so a failed decode leaves the source
// positioned at the byte where the failure occurred
type Decoder struct {
	r io.ByteReader
}

// NewDecoder creates a Decoder that reads from r. If r implements
// io.ByteReader it is used directly and the decoder consumes no bytes beyond
// the end of each decoded value. Otherwise r is wrapped in a bufio.Reader,
// which may read ahead of the current value
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{r: br}
}

// Decode reads exactly one complete RESP value from the source. The first
// byte selects the type: '+' simple string, '-' simple error, ':' integer,
// '$' bulk string, '*' array. Any other byte fails with ErrInvalidValue
func (d *Decoder) Decode() (Value, error) {
	tag, err := d.readByte()
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case '+':
		s, err := d.decodeLine()
		if err != nil {
			return Value{}, err
		}
		return SimpleString(s), nil
	case '-':
		s, err := d.decodeLine()
		if err != nil {
			return Value{}, err
		}
		return SimpleError(s), nil
	case ':':
		n, err := d.decodeInteger()
		if err != nil {
			return Value{}, err
		}
		return Integer(n), nil
	case '$':
		return d.decodeBulkString()
	case '*':
		return d.decodeArray()
	}
	return Value{}, fmt.Errorf("%w: unknown type tag %q", ErrInvalidValue, tag)
}

// Decode reads a single RESP value from r
func Decode(r io.Reader) (Value, error) {
	return NewDecoder(r).Decode()
}

// DecodeBytes decodes a single RESP value from an in-memory byte slice
func DecodeBytes(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeString decodes a single RESP value from the UTF-8 bytes of s
func DecodeString(s string) (Value, error) {
	return Decode(strings.NewReader(s))
}

// readByte reads the next byte from the source. End of input is reported as
// ErrEndOfStream, any other read failure is propagated as is
func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, ErrEndOfStream
		}
		return 0, err
	}
	return b, nil
}

// expectLF consumes the byte following a '\r' and verifies that it is '\n'
func (d *Decoder) expectLF() error {
	b, err := d.readByte()
	if err != nil {
		return err
	}
	if b != '\n' {
		return fmt.Errorf("%w: expected \\n after \\r, got %q", ErrInvalidValue, b)
	}
	return nil
}

// decodeLine accumulates bytes upto the \r\n terminator and returns them as a
// UTF-8 string. A bare '\n' before the '\r' is malformed
func (d *Decoder) decodeLine() (string, error) {
	var buf []byte
	for {
		b, err := d.readByte()
		if err != nil {
			return "", err
		}
		switch b {
		case '\r':
			if err := d.expectLF(); err != nil {
				return "", err
			}
			if !utf8.Valid(buf) {
				return "", fmt.Errorf("%w: simple string is not valid UTF-8", ErrInvalidValue)
			}
			return string(buf), nil
		case '\n':
			return "", fmt.Errorf("%w: bare newline in simple string", ErrInvalidValue)
		default:
			buf = append(buf, b)
		}
	}
}

// decodeInteger accumulates bytes upto the \r\n terminator and parses them as
// a base-10 signed 64-bit integer. Also used for bulk string lengths and
// array element counts
func (d *Decoder) decodeInteger() (int64, error) {
	var buf []byte
	for {
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		if b == '\r' {
			if err := d.expectLF(); err != nil {
				return 0, err
			}
			n, err := strconv.ParseInt(string(buf), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: cannot parse %q as integer", ErrInvalidValue, string(buf))
			}
			return n, nil
		}
		buf = append(buf, b)
	}
}

// decodeBulkString reads a declared length, then exactly that many payload
// bytes verbatim (the payload may contain any byte, including \r and \n),
// followed by the \r\n terminator
func (d *Decoder) decodeBulkString() (Value, error) {
	length, err := d.decodeInteger()
	if err != nil {
		return Value{}, err
	}
	if length < 0 {
		return Value{}, fmt.Errorf("%w: negative bulk string length %d", ErrInvalidValue, length)
	}
	if length > maxBulkStringLength {
		return Value{}, fmt.Errorf("%w: bulk string length %d exceeds maximum", ErrInvalidValue, length)
	}

	data := make([]byte, length)
	for i := range data {
		b, err := d.readByte()
		if err != nil {
			return Value{}, err
		}
		data[i] = b
	}

	b, err := d.readByte()
	if err != nil {
		return Value{}, err
	}
	if b != '\r' {
		return Value{}, fmt.Errorf("%w: bulk string payload not terminated by \\r\\n", ErrInvalidValue)
	}
	if err := d.expectLF(); err != nil {
		return Value{}, err
	}
	return BulkString(data), nil
}

// decodeArray reads a declared element count and then decodes that many
// values recursively. Elements may be of any type, including nested arrays.
// The first failing element aborts the whole decode
func (d *Decoder) decodeArray() (Value, error) {
	count, err := d.decodeInteger()
	if err != nil {
		return Value{}, err
	}
	if count < 0 {
		return Value{}, fmt.Errorf("%w: negative array length %d", ErrInvalidValue, count)
	}
	if count > maxArrayLength {
		return Value{}, fmt.Errorf("%w: array length %d exceeds maximum", ErrInvalidValue, count)
	}

	values := make([]Value, count)
	for i := range values {
		value, err := d.Decode()
		if err != nil {
			return Value{}, err
		}
		values[i] = value
	}
	return Value{Type: ValueTypeArray, Array: values}, nil
}
