// Package gamesim lays out a synthetic game world in a ProcessDump using
// the same layout the observer reads with. Tests and the replay tooling
// use it as a stand-in for a running game.
package gamesim

import (
	"encoding/binary"
	"fmt"

	"ra2ob/catalog"
	"ra2ob/layout"
	"ra2ob/process"
	"ra2ob/process_blob"
)

const (
	heapStart   = 0x01000000
	playerSpan  = 0x17000
	classOffset = 10 // first class base array index handed to a player
)

// World is a synthetic target.
type World struct {
	Dump   *process_blob.ProcessDump
	Layout layout.Layout

	next           process.ProcessMemoryAddress
	fixed          process.ProcessMemoryAddress
	classBaseArray process.ProcessMemoryAddress
	types          map[typeKey]process.ProcessMemoryAddress
	supers         []process.ProcessMemoryAddress
}

type typeKey struct {
	index uint32
	name  string
}

// New creates an empty world: roots are in place and every slot is empty.
func New(l layout.Layout) *World {
	w := &World{
		Dump:   process_blob.NewProcessDump(),
		Layout: l,
		next:   heapStart,
		types:  make(map[typeKey]process.ProcessMemoryAddress),
	}

	w.fixed = w.Alloc(l.PlayerBaseArrayPtrOffset + 4*layout.MaxPlayer)
	w.classBaseArray = w.Alloc(4 * (classOffset + layout.MaxPlayer))
	w.PutAddr(process.ProcessMemoryAddress(l.FixedOffset), w.fixed)
	w.PutAddr(process.ProcessMemoryAddress(l.ClassBaseArrayOffset), w.classBaseArray)

	for i := 0; i < layout.MaxPlayer; i++ {
		w.PutU32(w.slotEntry(i), layout.InvalidClass)
	}

	w.SetFrame(0)
	w.SetPaused(false)
	w.PutU32(process.ProcessMemoryAddress(l.SuperArrayOffset).Offset(l.SuperArrayCount), 0)

	return w
}

// Alloc reserves size bytes of zeroed target memory, 16 byte aligned.
func (w *World) Alloc(size uint32) process.ProcessMemoryAddress {
	addr := w.next
	w.next = (w.next + process.ProcessMemoryAddress(size) + 15) &^ 15
	w.Dump.Poke(addr, make([]byte, size))
	return addr
}

func (w *World) PutBytes(addr process.ProcessMemoryAddress, b []byte) {
	w.Dump.Poke(addr, b)
}

func (w *World) PutU32(addr process.ProcessMemoryAddress, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Dump.Poke(addr, b[:])
}

func (w *World) PutI32(addr process.ProcessMemoryAddress, v int32) {
	w.PutU32(addr, uint32(v))
}

func (w *World) PutAddr(addr, v process.ProcessMemoryAddress) {
	w.PutU32(addr, uint32(v))
}

func (w *World) PutBool(addr process.ProcessMemoryAddress, v bool) {
	var b byte
	if v {
		b = 1
	}
	w.Dump.Poke(addr, []byte{b})
}

func (w *World) SetFrame(frame uint32) {
	w.PutU32(process.ProcessMemoryAddress(w.Layout.GameFrameOffset), frame)
}

func (w *World) SetPaused(paused bool) {
	w.PutBool(process.ProcessMemoryAddress(w.Layout.PauseOffset), paused)
}

func (w *World) slotEntry(i int) process.ProcessMemoryAddress {
	return w.fixed.Offset(w.Layout.PlayerBaseArrayPtrOffset + uint32(4*i))
}

// ClearSlot marks slot i empty again.
func (w *World) ClearSlot(i int) {
	w.PutU32(w.slotEntry(i), layout.InvalidClass)
}

// Player describes a player to place in a slot.
type Player struct {
	Name       string
	Country    string // house type code, e.g. "Russians"
	Color      uint32 // as stored in memory, BGR
	Controlled bool
}

// PlayerHandle edits a placed player.
type PlayerHandle struct {
	w         *World
	Base      process.ProcessMemoryAddress
	HouseType process.ProcessMemoryAddress
}

// AddPlayer places p in slot i.
func (w *World) AddPlayer(i int, p Player) *PlayerHandle {
	l := w.Layout
	base := w.Alloc(playerSpan)
	houseType := w.Alloc(0x100)

	idx := uint32(classOffset + i)
	w.PutU32(w.slotEntry(i), idx)
	w.PutAddr(w.classBaseArray.Offset(4*idx), base)

	w.PutAddr(base.Offset(l.HouseTypeOffset), houseType)
	w.PutBytes(houseType.Offset(l.CountryOffset), fixedASCII(p.Country, l.CountrySize))
	w.PutBytes(base.Offset(l.NameOffset), fixedUTF16(p.Name, l.NameSize))
	w.PutBytes(base.Offset(l.ColorOffset), []byte{byte(p.Color), byte(p.Color >> 8), byte(p.Color >> 16)})

	if p.Controlled {
		w.Dump.Poke(base.Offset(l.ControlledOffset), []byte{l.ControlledSentinel})
	}

	h := &PlayerHandle{w: w, Base: base, HouseType: houseType}
	for _, cat := range catalog.Categories {
		h.SetUnits(cat, nil)
	}
	for _, c := range l.ProducedCounters {
		w.PutU32(base.Offset(c.Count), 0)
	}
	return h
}

func (h *PlayerHandle) categoryOffset(cat catalog.Category) uint32 {
	l := h.w.Layout
	switch cat {
	case catalog.Building:
		return l.BuildingOffset
	case catalog.Tank:
		return l.TankOffset
	case catalog.Infantry:
		return l.InfantryOffset
	case catalog.Aircraft:
		return l.AircraftOffset
	}
	panic(fmt.Sprintf("gamesim: no array for category %v", cat))
}

// SetUnits allocates a fresh array for cat holding counts and sets its
// valid count to len(counts).
func (h *PlayerHandle) SetUnits(cat catalog.Category, counts []uint32) {
	off := h.categoryOffset(cat)
	arr := h.w.Alloc(uint32(4*len(counts) + 4))
	for i, c := range counts {
		h.w.PutU32(arr.Offset(uint32(4*i)), c)
	}
	h.w.PutAddr(h.Base.Offset(off), arr)
	h.w.PutU32(h.Base.Offset(off+4), uint32(len(counts)))
}

// SetValidCount changes only the valid count of cat, leaving the array
// contents in place. This is what the game does when it shrinks an array.
func (h *PlayerHandle) SetValidCount(cat catalog.Category, n uint32) {
	h.w.PutU32(h.Base.Offset(h.categoryOffset(cat)+4), n)
}

// SetField writes a 32-bit value at a player-relative offset.
func (h *PlayerHandle) SetField(offset uint32, v uint32) {
	h.w.PutU32(h.Base.Offset(offset), v)
}

// SetFlags writes the defeated, game over and winner bytes.
func (h *PlayerHandle) SetFlags(defeated, gameOver, winner bool) {
	l := h.w.Layout
	h.w.PutBool(h.Base.Offset(l.DefeatedOffset), defeated)
	h.w.PutBool(h.Base.Offset(l.GameOverOffset), gameOver)
	h.w.PutBool(h.Base.Offset(l.WinnerOffset), winner)
}

// SetScore writes the four per-house score arrays.
func (h *PlayerHandle) SetScore(killedBuildings, killedUnits, lostBuildings, lostUnits []int32) {
	l := h.w.Layout
	put := func(off uint32, vals []int32) {
		for i := uint32(0); i < l.ScoreHouseSlots; i++ {
			var v int32
			if int(i) < len(vals) {
				v = vals[i]
			}
			h.w.PutI32(h.Base.Offset(off+4*i), v)
		}
	}
	put(l.KilledBuildings, killedBuildings)
	put(l.KilledUnits, killedUnits)
	put(l.LostBuildings, lostBuildings)
	put(l.LostUnits, lostUnits)
}

// SetProduced fills produced counter n with per-type values.
func (h *PlayerHandle) SetProduced(n int, values []int32) {
	c := h.w.Layout.ProducedCounters[n]
	arr := h.w.Alloc(uint32(4*len(values) + 4))
	for i, v := range values {
		h.w.PutI32(arr.Offset(uint32(4*i)), v)
	}
	h.w.PutAddr(h.Base.Offset(c.Items), arr)
	h.w.PutU32(h.Base.Offset(c.Count), uint32(len(values)))
}

// Type returns the type descriptor object for an array index, creating it
// on first use.
func (w *World) Type(index uint32, name string) process.ProcessMemoryAddress {
	key := typeKey{index, name}
	if addr, ok := w.types[key]; ok {
		return addr
	}
	l := w.Layout
	addr := w.Alloc(0x200)
	w.PutU32(addr.Offset(l.TypeArrayIndex), index)
	w.PutBytes(addr.Offset(l.SuperTypeName), fixedASCII(name, l.SuperTypeNameSize))
	w.types[key] = addr
	return addr
}

// Production describes one busy factory.
type Production struct {
	Factory  int    // index into Layout.Factories
	Current  uint32 // type array index of the item being built
	Progress int32
	Stopped  bool
	Queue    []uint32 // type array indexes, head first
}

// SetProduction installs a factory for the player.
func (h *PlayerHandle) SetProduction(p Production) {
	w := h.w
	l := w.Layout
	f := l.Factories[p.Factory]

	factory := w.Alloc(0x100)
	object := w.Alloc(f.TypeSlot + 4)
	w.PutAddr(object.Offset(f.TypeSlot), w.Type(p.Current, ""))

	w.PutI32(factory.Offset(l.FactoryProgress), p.Progress)
	w.PutBool(factory.Offset(l.FactoryStatus), p.Stopped)
	w.PutAddr(factory.Offset(l.FactoryCurrent), object)

	queue := w.Alloc(uint32(4*len(p.Queue) + 4))
	for i, idx := range p.Queue {
		w.PutAddr(queue.Offset(uint32(4*i)), w.Type(idx, ""))
	}
	w.PutAddr(factory.Offset(l.FactoryQueueItems), queue)
	w.PutU32(factory.Offset(l.FactoryQueueLength), uint32(len(p.Queue)))

	w.PutAddr(h.Base.Offset(f.Offset), factory)
}

// SuperWeapon describes one entry of the global superweapon vector.
type SuperWeapon struct {
	Owner    process.ProcessMemoryAddress
	Name     string
	Duration int32
	Start    int32
	Left     int32
}

// AddSuperWeapon appends an entry to the global vector.
func (w *World) AddSuperWeapon(sw SuperWeapon) {
	l := w.Layout
	typ := w.Alloc(0x100)
	w.PutBytes(typ.Offset(l.SuperTypeName), fixedASCII(sw.Name, l.SuperTypeNameSize))
	w.PutI32(typ.Offset(l.SuperTypeRechargeTime), sw.Duration)

	obj := w.Alloc(0x40)
	w.PutAddr(obj.Offset(l.SuperType), typ)
	w.PutAddr(obj.Offset(l.SuperOwner), sw.Owner)
	w.PutI32(obj.Offset(l.SuperTimerStart), sw.Start)
	w.PutI32(obj.Offset(l.SuperTimerLeft), sw.Left)

	w.supers = append(w.supers, obj)
	items := w.Alloc(uint32(4 * len(w.supers)))
	for i, s := range w.supers {
		w.PutAddr(items.Offset(uint32(4*i)), s)
	}
	vec := process.ProcessMemoryAddress(l.SuperArrayOffset)
	w.PutAddr(vec.Offset(l.SuperArrayItems), items)
	w.PutU32(vec.Offset(l.SuperArrayCount), uint32(len(w.supers)))
}

func fixedASCII(s string, size uint32) []byte {
	b := make([]byte, size)
	copy(b[:size-1], s)
	return b
}

func fixedUTF16(s string, size uint32) []byte {
	b := make([]byte, size)
	i := 0
	for _, r := range s {
		if uint32(i+2) >= size {
			break
		}
		b[i] = byte(r)
		b[i+1] = byte(r >> 8)
		i += 2
	}
	return b
}
