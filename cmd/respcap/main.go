package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ananthvk/resp"
	"github.com/ananthvk/resp/internal/capture"
	"github.com/spf13/afero"
)

func main() {
	inPath := flag.String("in", "", "Path to the raw RESP input (default: read from stdin)")
	outPath := flag.String("out", "capture.respcap", "Path of the capture file to create")
	flag.Parse()

	fs := afero.NewOsFs()

	var input io.Reader = os.Stdin
	if *inPath != "" {
		file, err := fs.Open(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "respcap: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		input = file
	}

	count, err := pack(fs, input, *outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "respcap: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d messages to %s\n", count, *outPath)
}

// recordingReader remembers every byte handed out, so that each decoded
// message can be framed with its exact wire bytes
type recordingReader struct {
	r   io.ByteReader
	buf []byte
}

func (r *recordingReader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err == nil {
		r.buf = append(r.buf, b)
	}
	return b, err
}

func (r *recordingReader) Read(p []byte) (int, error) {
	for i := range p {
		b, err := r.ReadByte()
		if err != nil {
			return i, err
		}
		p[i] = b
	}
	return len(p), nil
}

// pack validates each message on the input by decoding it, then appends its
// raw bytes as a frame to a new capture file at outPath
func pack(fs afero.Fs, input io.Reader, outPath string) (int, error) {
	if err := capture.WriteHeader(fs, outPath, capture.NewHeader(time.Now())); err != nil {
		return 0, err
	}
	writer, err := capture.NewWriter(fs, outPath)
	if err != nil {
		return 0, err
	}
	defer writer.Close()

	recorder := &recordingReader{r: bufio.NewReader(input)}
	decoder := resp.NewDecoder(recorder)

	count := 0
	for {
		recorder.buf = recorder.buf[:0]
		if _, err := decoder.Decode(); err != nil {
			// End of stream before the first byte of a message means the
			// input ended cleanly, anything else is a real failure
			if errors.Is(err, resp.ErrEndOfStream) && len(recorder.buf) == 0 {
				return count, writer.Sync()
			}
			return count, fmt.Errorf("message %d: %w", count+1, err)
		}
		if _, err := writer.WriteFrame(recorder.buf); err != nil {
			return count, err
		}
		count++
	}
}
