// Package hexdump renders raw target memory for diagnostics.
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// GroupSize joins bytes into groups; 4 lines groups up with 32-bit fields
	GroupSize int

	// StartOffset is printed as the address of the first byte
	StartOffset uint64

	ShowASCII bool
}

func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		GroupSize:    4,
		ShowASCII:    true,
	}
}

// Dump returns the hex dump of data as a string
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes one line per BytesPerLine bytes: address, hex groups and
// the printable characters
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.GroupSize <= 0 {
		options.GroupSize = 1
	}

	width := hexWidth(options.BytesPerLine, options.GroupSize)
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := min(offset+options.BytesPerLine, len(data))
		line := data[offset:end]

		hex := formatHexValues(line, options.GroupSize)
		fmt.Fprintf(writer, "%08x  %-*s", uint64(offset)+options.StartOffset, width, hex)
		if options.ShowASCII {
			fmt.Fprint(writer, " |", formatASCII(line), "|")
		}
		fmt.Fprintln(writer)
	}
}

// hexWidth is the printed width of a full line of hex groups
func hexWidth(bytesPerLine, groupSize int) int {
	groups := (bytesPerLine + groupSize - 1) / groupSize
	return bytesPerLine*2 + groups - 1
}

func formatHexValues(data []byte, groupSize int) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 && i%groupSize == 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

func formatASCII(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b >= 0x20 && b < 0x7F {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
