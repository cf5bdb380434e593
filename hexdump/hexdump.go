// Package hexdump renders target memory as a hex listing. Aligned 32-bit
// words that land inside a known region are listed as pointers.
package hexdump

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"ra2ob/process/memory_map"
)

// HexDumpOptions defines options for customizing the hexdump output
type HexDumpOptions struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// GroupSize defines the grouping of bytes (usually 1, 2 or 4)
	GroupSize int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// StartOffset is the address of data[0]
	StartOffset uint64

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int

	// Regions, when set, enables the pointer column. Must be sorted.
	Regions []memory_map.MemoryMapItem
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() HexDumpOptions {
	return HexDumpOptions{
		BytesPerLine: 16,
		GroupSize:    4,
		ShowASCII:    true,
	}
}

// Dump creates a hex dump of data with the given options
func Dump(data []byte, options HexDumpOptions) string {
	var sb strings.Builder
	DumpToWriter(&sb, data, options)
	return sb.String()
}

// DumpToWriter writes a hex dump of data to writer
func DumpToWriter(writer io.Writer, data []byte, options HexDumpOptions) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.GroupSize <= 0 {
		options.GroupSize = 1
	}

	lines := 0
	for i := 0; i < len(data); i += options.BytesPerLine {
		if options.MaxLines > 0 && lines >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-i)
			return
		}
		end := min(i+options.BytesPerLine, len(data))
		formatLine(writer, data[i:end], options.StartOffset+uint64(i), options)
		lines++
	}
}

// formatLine formats a single line of the hex dump
func formatLine(writer io.Writer, data []byte, offset uint64, options HexDumpOptions) {
	fmt.Fprintf(writer, "%08x  ", offset)

	var hex strings.Builder
	for i, b := range data {
		if i > 0 && i%options.GroupSize == 0 {
			hex.WriteByte(' ')
		}
		fmt.Fprintf(&hex, "%02x", b)
	}
	fullWidth := options.BytesPerLine*2 + (options.BytesPerLine-1)/options.GroupSize
	fmt.Fprintf(writer, "%-*s", fullWidth, hex.String())

	if options.ShowASCII {
		fmt.Fprint(writer, " | ")
		for _, b := range data {
			if b >= 0x20 && b < 0x7f {
				fmt.Fprintf(writer, "%c", b)
			} else {
				fmt.Fprint(writer, ".")
			}
		}
		fmt.Fprint(writer, strings.Repeat(" ", options.BytesPerLine-len(data)))
	}

	if ptrs := Pointers(data, offset, options.Regions); len(ptrs) > 0 {
		fmt.Fprint(writer, " |")
		for _, p := range ptrs {
			fmt.Fprintf(writer, " 0x%08x", p)
		}
	}

	fmt.Fprintln(writer)
}

// Pointers returns the 4-byte aligned words of data, read little-endian,
// that fall inside one of regions. offset is the address of data[0].
func Pointers(data []byte, offset uint64, regions []memory_map.MemoryMapItem) []uint32 {
	if len(regions) == 0 {
		return nil
	}
	var out []uint32
	for i := int((4 - offset%4) % 4); i+4 <= len(data); i += 4 {
		v := binary.LittleEndian.Uint32(data[i:])
		if v != 0 && memory_map.Find(uint64(v), regions) != nil {
			out = append(out, v)
		}
	}
	return out
}
