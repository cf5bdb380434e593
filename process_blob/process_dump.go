package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"ra2ob/process"
	"ra2ob/process/memory_map"

	"github.com/klauspost/compress/zstd"
)

// PageSize is the granularity a dump stores memory at.
const PageSize = 0x1000

var (
	// encoder and decoder for zstd are reusable and thread-safe
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// ProcessDump implements process.Process over a sparse set of captured
// pages. It backs offline replay of a recorded session and synthetic
// targets in tests.
type ProcessDump struct {
	PID        process.ProcessID
	Name       string
	Attributes map[string]string

	mu     sync.RWMutex
	pages  map[uint64][]byte // page address -> PageSize bytes
	opened bool
}

var _ process.Process = (*ProcessDump)(nil)

// NewProcessDump creates a new ProcessDump instance
func NewProcessDump() *ProcessDump {
	return &ProcessDump{
		Attributes: make(map[string]string),
		pages:      make(map[uint64][]byte),
	}
}

// Open marks the dump open. pid must match the recorded PID, or be the
// dump's own PID when it was created without one.
func (p *ProcessDump) Open(pid process.ProcessID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pid != p.PID {
		return fmt.Errorf("dump holds pid %d, not %d", p.PID, pid)
	}
	p.opened = true
	return nil
}

// Close marks the dump closed. The captured pages are kept so a replay can
// attach again.
func (p *ProcessDump) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = false
	return nil
}

func (p *ProcessDump) GetPID() process.ProcessID {
	return p.PID
}

// IsOpen reports whether Open has been called without a matching Close.
func (p *ProcessDump) IsOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opened
}

// Poke stores data at addr, allocating zeroed pages as needed.
func (p *ProcessDump) Poke(addr process.ProcessMemoryAddress, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a := uint64(addr)
	for len(data) > 0 {
		base := a &^ (PageSize - 1)
		page, ok := p.pages[base]
		if !ok {
			page = make([]byte, PageSize)
			p.pages[base] = page
		}
		n := copy(page[a-base:], data)
		data = data[n:]
		a += uint64(n)
	}
}

// ReadMemory reads size bytes at addr. Every page the range touches must
// have been captured.
func (p *ProcessDump) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if err := process.CheckRange(addr, size); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]byte, size)
	a := uint64(addr)
	out := result
	for len(out) > 0 {
		base := a &^ (PageSize - 1)
		page, ok := p.pages[base]
		if !ok {
			return nil, fmt.Errorf("%w: %s", process.ErrAddressNotMapped, process.ProcessMemoryAddress(a).ToString())
		}
		n := copy(out, page[a-base:])
		out = out[n:]
		a += uint64(n)
	}

	return result, nil
}

// Regions returns the captured pages coalesced into contiguous regions.
func (p *ProcessDump) Regions() []memory_map.MemoryMapItem {
	p.mu.RLock()
	addrs := make([]uint64, 0, len(p.pages))
	for a := range p.pages {
		addrs = append(addrs, a)
	}
	p.mu.RUnlock()

	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var regions []memory_map.MemoryMapItem
	for _, a := range addrs {
		if n := len(regions); n > 0 && regions[n-1].Address+uint64(regions[n-1].Size) == a {
			regions[n-1].Size += PageSize
			continue
		}
		regions = append(regions, memory_map.MemoryMapItem{Address: a, Size: PageSize, Perms: "r--p"})
	}
	return regions
}

type dumpFile struct {
	PID        process.ProcessID `json:"pid"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Pages      []dumpPage        `json:"pages"`
}

type dumpPage struct {
	Address uint64 `json:"address"`
	Data    []byte `json:"data"`
}

// Save writes the dump to a single zstd compressed file.
func (p *ProcessDump) Save(filename string) error {
	p.mu.RLock()
	file := dumpFile{
		PID:        p.PID,
		Name:       p.Name,
		Attributes: p.Attributes,
		Pages:      make([]dumpPage, 0, len(p.pages)),
	}
	for a, data := range p.pages {
		file.Pages = append(file.Pages, dumpPage{Address: a, Data: data})
	}
	raw, err := json.Marshal(file)
	p.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal dump: %w", err)
	}

	compressed := zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/4))
	if err := os.WriteFile(filename, compressed, 0o644); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	return nil
}

// Load replaces the dump's contents with the file written by Save.
func (p *ProcessDump) Load(filename string) error {
	compressed, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read dump: %w", err)
	}

	raw, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress dump: %w", err)
	}

	var file dumpFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to unmarshal dump: %w", err)
	}

	pages := make(map[uint64][]byte, len(file.Pages))
	for _, pg := range file.Pages {
		if pg.Address%PageSize != 0 || len(pg.Data) != PageSize {
			return fmt.Errorf("malformed page at 0x%x (%d bytes)", pg.Address, len(pg.Data))
		}
		pages[pg.Address] = pg.Data
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.PID = file.PID
	p.Name = file.Name
	p.Attributes = file.Attributes
	if p.Attributes == nil {
		p.Attributes = make(map[string]string)
	}
	p.pages = pages
	return nil
}
