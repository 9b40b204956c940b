package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ananthvk/resp"
	"github.com/ananthvk/resp/internal/capture"
	"github.com/spf13/afero"
)

func main() {
	filePath := flag.String("file", "", "Path to the input file (default: read from stdin)")
	isCapture := flag.Bool("capture", false, "Treat the input file as a capture file")
	flag.Parse()

	if *isCapture {
		if *filePath == "" {
			fmt.Fprintln(os.Stderr, "respdump: -capture requires -file")
			os.Exit(1)
		}
		if err := dumpCapture(afero.NewOsFs(), *filePath); err != nil {
			fmt.Fprintf(os.Stderr, "respdump: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var input io.Reader = os.Stdin
	if *filePath != "" {
		file, err := afero.NewOsFs().Open(*filePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "respdump: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		input = file
	}
	if err := dumpStream(input); err != nil {
		fmt.Fprintf(os.Stderr, "respdump: %v\n", err)
		os.Exit(1)
	}
}

// dumpStream decodes raw RESP messages from the input one after another until
// the input is exhausted
func dumpStream(input io.Reader) error {
	reader := bufio.NewReader(input)
	decoder := resp.NewDecoder(reader)
	for n := 1; ; n++ {
		// A clean end of input between messages is not an error
		if _, err := reader.Peek(1); err == io.EOF {
			return nil
		}
		value, err := decoder.Decode()
		if err != nil {
			return fmt.Errorf("message %d: %w", n, err)
		}
		printValue(os.Stdout, value, 0)
	}
}

// dumpCapture decodes every frame of a capture file
func dumpCapture(fs afero.Fs, path string) error {
	header, err := capture.ReadHeader(fs, path)
	if err != nil {
		return err
	}
	fmt.Printf("session %s, captured %s\n", header.SessionID, header.Timestamp.Format(time.RFC3339))

	scanner, err := capture.NewScanner(fs, path)
	if err != nil {
		return err
	}
	defer scanner.Close()

	for n := 1; ; n++ {
		message, offset, err := scanner.Scan()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		value, err := resp.DecodeBytes(message)
		if err != nil {
			return fmt.Errorf("frame %d at offset %d: %w", n, offset, err)
		}
		printValue(os.Stdout, value, 0)
	}
}

func printValue(w io.Writer, value resp.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch value.Type {
	case resp.ValueTypeSimpleString:
		fmt.Fprintf(w, "%s%s\n", indent, value.Str)
	case resp.ValueTypeSimpleError:
		fmt.Fprintf(w, "%s(error) %s\n", indent, value.Str)
	case resp.ValueTypeInteger:
		fmt.Fprintf(w, "%s(integer) %d\n", indent, value.Integer)
	case resp.ValueTypeBulkString:
		fmt.Fprintf(w, "%s%s\n", indent, strconv.Quote(string(value.Bulk)))
	case resp.ValueTypeArray:
		fmt.Fprintf(w, "%s(array of %d)\n", indent, len(value.Array))
		for _, element := range value.Array {
			printValue(w, element, depth+1)
		}
	}
}
