// Package resolver walks the target's pointer tables from the fixed global
// roots down to the per-slot and per-category base addresses. Every hop is
// a checked read; a failed hop yields an error, never a guessed address.
package resolver

import (
	"errors"
	"fmt"

	"ra2ob/catalog"
	"ra2ob/layout"
	"ra2ob/memory"
	"ra2ob/process"
)

var (
	ErrRootsUnavailable = errors.New("global roots unavailable")
	ErrSlotEmpty        = errors.New("slot empty")
	ErrSlotUnreadable   = errors.New("slot unreadable")
)

// GlobalRoots are the addresses every slot is resolved from.
type GlobalRoots struct {
	Fixed              process.ProcessMemoryAddress
	ClassBaseArray     process.ProcessMemoryAddress
	PlayerBaseArrayPtr process.ProcessMemoryAddress
}

// CategoryBase is a category array and its live length.
type CategoryBase struct {
	Base       process.ProcessMemoryAddress
	ValidCount uint32
}

// InBounds reports whether a field at offset lies inside the array's
// current length. The target shrinks and reallocates these arrays.
func (c CategoryBase) InBounds(offset uint32) bool {
	return c.Base != 0 && uint64(offset) < uint64(c.ValidCount)*layout.ItemStride
}

// SlotBases are the base addresses of one player slot for one cycle.
type SlotBases struct {
	Index     int
	Player    process.ProcessMemoryAddress
	HouseType process.ProcessMemoryAddress

	Building CategoryBase
	Tank     CategoryBase
	Infantry CategoryBase
	Aircraft CategoryBase
}

// Category returns the array base for cat.
func (s SlotBases) Category(cat catalog.Category) (CategoryBase, bool) {
	switch cat {
	case catalog.Building:
		return s.Building, true
	case catalog.Tank:
		return s.Tank, true
	case catalog.Infantry:
		return s.Infantry, true
	case catalog.Aircraft:
		return s.Aircraft, true
	}
	return CategoryBase{}, false
}

// Resolver resolves roots and slots for one layout.
type Resolver struct {
	layout layout.Layout
}

func New(l layout.Layout) *Resolver {
	return &Resolver{layout: l}
}

// ResolveRoots reads the two fixed global pointers.
func (r *Resolver) ResolveRoots(mem *memory.Reader) (GlobalRoots, error) {
	fixed, ok := mem.Addr(process.ProcessMemoryAddress(r.layout.FixedOffset))
	if !ok {
		return GlobalRoots{}, fmt.Errorf("%w: fixed base at 0x%x", ErrRootsUnavailable, r.layout.FixedOffset)
	}

	classBaseArray, ok := mem.Addr(process.ProcessMemoryAddress(r.layout.ClassBaseArrayOffset))
	if !ok {
		return GlobalRoots{}, fmt.Errorf("%w: class base array at 0x%x", ErrRootsUnavailable, r.layout.ClassBaseArrayOffset)
	}

	return GlobalRoots{
		Fixed:              fixed,
		ClassBaseArray:     classBaseArray,
		PlayerBaseArrayPtr: fixed.Offset(r.layout.PlayerBaseArrayPtrOffset),
	}, nil
}

// ResolveSlot resolves slot i. The player base array holds an index into
// the class base array, which holds the real object address.
func (r *Resolver) ResolveSlot(mem *memory.Reader, roots GlobalRoots, i int) (SlotBases, error) {
	if i < 0 || i >= layout.MaxPlayer {
		return SlotBases{}, fmt.Errorf("%w: slot %d out of range", ErrSlotUnreadable, i)
	}

	entry := roots.PlayerBaseArrayPtr + process.ProcessMemoryAddress(4*i)
	idx, ok := mem.U32(entry)
	if !ok {
		return SlotBases{}, fmt.Errorf("%w: slot %d index at %s", ErrSlotUnreadable, i, entry.ToString())
	}
	if idx == layout.InvalidClass {
		return SlotBases{}, ErrSlotEmpty
	}

	slotPtr := roots.ClassBaseArray + process.ProcessMemoryAddress(idx)*4
	player, ok := mem.Addr(slotPtr)
	if !ok {
		return SlotBases{}, fmt.Errorf("%w: slot %d object at %s", ErrSlotUnreadable, i, slotPtr.ToString())
	}

	bases := SlotBases{Index: i, Player: player}

	// a missing house type leaves the country empty, which demotes the slot later
	bases.HouseType, _ = mem.Addr(player.Offset(r.layout.HouseTypeOffset))

	bases.Building = r.category(mem, player, r.layout.BuildingOffset)
	bases.Tank = r.category(mem, player, r.layout.TankOffset)
	bases.Infantry = r.category(mem, player, r.layout.InfantryOffset)
	bases.Aircraft = r.category(mem, player, r.layout.AircraftOffset)

	return bases, nil
}

func (r *Resolver) category(mem *memory.Reader, player process.ProcessMemoryAddress, offset uint32) CategoryBase {
	base, ok := mem.Addr(player.Offset(offset))
	if !ok {
		return CategoryBase{}
	}
	count, _ := mem.U32(player.Offset(offset + 4))
	return CategoryBase{Base: base, ValidCount: count}
}

// ResolveSlots resolves every slot. Entries that fail are left zero and
// reported as false.
func (r *Resolver) ResolveSlots(mem *memory.Reader, roots GlobalRoots) ([layout.MaxPlayer]SlotBases, [layout.MaxPlayer]bool) {
	var (
		slots [layout.MaxPlayer]SlotBases
		valid [layout.MaxPlayer]bool
	)
	for i := 0; i < layout.MaxPlayer; i++ {
		bases, err := r.ResolveSlot(mem, roots, i)
		if err != nil {
			continue
		}
		slots[i] = bases
		valid[i] = true
	}
	return slots, valid
}
