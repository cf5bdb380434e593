package process_blob

import (
	"encoding/binary"
	"errors"

	"ra2ob/process"
)

var ErrOutOfBounds = errors.New("address out of bounds")

// ProcessBlob is a block of target memory captured by one read. Fields of
// a structure are then decoded from the copy without further syscalls.
type ProcessBlob struct {
	baseaddress process.ProcessMemoryAddress
	data        []byte
}

var _ process.MemoryReader = (*ProcessBlob)(nil)

func NewProcessBlob(baseAddress process.ProcessMemoryAddress, data []byte) *ProcessBlob {
	return &ProcessBlob{
		baseaddress: baseAddress,
		data:        data,
	}
}

// ReadBlob reads size bytes at addr from r in a single call.
func ReadBlob(r process.MemoryReader, addr process.ProcessMemoryAddress, size process.ProcessMemorySize) (*ProcessBlob, error) {
	if err := process.CheckRange(addr, size); err != nil {
		return nil, err
	}

	data, err := r.ReadMemory(addr, size)
	if err != nil {
		return nil, err
	}

	if len(data) < int(size) {
		return nil, errors.New("read less data than requested")
	}

	return NewProcessBlob(addr, data[:size]), nil
}

func (p *ProcessBlob) Data() []byte {
	return p.data
}

func (p *ProcessBlob) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if addr < p.baseaddress {
		return nil, ErrOutOfBounds
	}
	offset := uint64(addr - p.baseaddress)
	if offset+uint64(size) > uint64(len(p.data)) || offset+uint64(size) < offset {
		return nil, ErrOutOfBounds
	}
	return p.data[offset : offset+uint64(size)], nil
}

// OffsetBytes returns size bytes at offset from the start of the blob
func (p *ProcessBlob) OffsetBytes(offset uint32, size process.ProcessMemorySize) ([]byte, error) {
	return p.ReadMemory(p.baseaddress.Offset(offset), size)
}

// OffsetUINT32 returns an unsigned 32-bit integer at offset from the start of the blob
func (p *ProcessBlob) OffsetUINT32(offset uint32) (uint32, error) {
	data, err := p.OffsetBytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// OffsetINT32 returns a signed 32-bit integer at offset from the start of the blob
func (p *ProcessBlob) OffsetINT32(offset uint32) (int32, error) {
	v, err := p.OffsetUINT32(offset)
	return int32(v), err
}

// OffsetPOINTER returns a 4-byte target pointer at offset from the start of the blob
func (p *ProcessBlob) OffsetPOINTER(offset uint32) (process.ProcessMemoryAddress, error) {
	v, err := p.OffsetUINT32(offset)
	if err != nil {
		return 0, err
	}
	return process.ProcessMemoryAddress(v), nil
}
