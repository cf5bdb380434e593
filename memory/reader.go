// Package memory provides the typed, non-failing reads the snapshot
// builder performs against a target. Every read yields a value plus an ok
// flag; a failed read returns the zero value and is never retried.
package memory

import (
	"ra2ob/process"
	"ra2ob/process_blob"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Reader performs typed reads over a process.MemoryReader.
type Reader struct {
	src process.MemoryReader
	log *logger.Logger
}

func New(src process.MemoryReader) *Reader {
	return &Reader{
		src: src,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "memory")),
	}
}

func (r *Reader) failed(what string, addr process.ProcessMemoryAddress, err error) {
	r.log.Debugln(what, addr.ToString(), err)
}

// U32 reads a little-endian uint32.
func (r *Reader) U32(addr process.ProcessMemoryAddress) (uint32, bool) {
	v, err := process.Read[uint32](r.src, addr)
	if err != nil {
		r.failed("u32", addr, err)
		return 0, false
	}
	return v, true
}

// I32 reads a little-endian int32.
func (r *Reader) I32(addr process.ProcessMemoryAddress) (int32, bool) {
	v, err := process.Read[int32](r.src, addr)
	if err != nil {
		r.failed("i32", addr, err)
		return 0, false
	}
	return v, true
}

// Byte reads a single byte.
func (r *Reader) Byte(addr process.ProcessMemoryAddress) (uint8, bool) {
	v, err := process.Read[uint8](r.src, addr)
	if err != nil {
		r.failed("byte", addr, err)
		return 0, false
	}
	return v, true
}

// Bool reads a one byte flag; any non-zero value is true.
func (r *Reader) Bool(addr process.ProcessMemoryAddress) (bool, bool) {
	v, ok := r.Byte(addr)
	return v != 0, ok
}

// Addr reads a 4-byte pointer. A null pointer is reported as not ok.
func (r *Reader) Addr(addr process.ProcessMemoryAddress) (process.ProcessMemoryAddress, bool) {
	v, ok := r.U32(addr)
	if !ok || v == 0 {
		return 0, false
	}
	return process.ProcessMemoryAddress(v), true
}

// Path follows a chain of pointers from base and reads the pointer at the
// end of it. A null link or a null result is reported as not ok.
func (r *Reader) Path(base process.ProcessMemoryAddress, offsets ...uint32) (process.ProcessMemoryAddress, bool) {
	v, err := process.ReadPath[uint32](r.src, base, offsets...)
	if err != nil {
		r.failed("path", base, err)
		return 0, false
	}
	if v == 0 {
		return 0, false
	}
	return process.ProcessMemoryAddress(v), true
}

// Color reads exactly three bytes as a little-endian value with the high
// byte zero.
func (r *Reader) Color(addr process.ProcessMemoryAddress) (uint32, bool) {
	blob, ok := r.Blob(addr, 3)
	if !ok {
		return 0, false
	}
	b := blob.Data()
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, true
}

// FixedString reads maxLen bytes and decodes them with enc, truncating at
// the first terminator.
func (r *Reader) FixedString(addr process.ProcessMemoryAddress, maxLen process.ProcessMemorySize, enc Encoding) (string, bool) {
	if err := process.CheckRange(addr, maxLen); err != nil {
		r.failed("string", addr, err)
		return "", false
	}
	b, err := r.src.ReadMemory(addr, maxLen)
	if err != nil {
		r.failed("string", addr, err)
		return "", false
	}
	s, err := Decode(b, enc)
	if err != nil {
		r.failed("string decode", addr, err)
		return "", false
	}
	return s, true
}

// Blob captures size bytes at addr with one read.
func (r *Reader) Blob(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) (*process_blob.ProcessBlob, bool) {
	blob, err := process_blob.ReadBlob(r.src, addr, size)
	if err != nil {
		r.failed("blob", addr, err)
		return nil, false
	}
	return blob, true
}
