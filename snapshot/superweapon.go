package snapshot

import (
	"ra2ob/layout"
	"ra2ob/memory"
	"ra2ob/process"
	"ra2ob/resolver"
)

// timerStopped is the start frame of a superweapon that is not charging.
const timerStopped = -1

type superType struct {
	name     string
	duration uint32
}

func (b *Builder) superType(mem *memory.Reader, typ process.ProcessMemoryAddress) (superType, bool) {
	key := typeKey{typ, keySuper}
	if v, ok := b.types.Get(key); ok {
		return v.(superType), true
	}
	l := b.layout
	name, ok := mem.FixedString(typ.Offset(l.SuperTypeName), process.ProcessMemorySize(l.SuperTypeNameSize), memory.ASCII)
	if !ok {
		return superType{}, false
	}
	duration, _ := mem.I32(typ.Offset(l.SuperTypeRechargeTime))
	st := superType{name: name, duration: uint32(max(0, duration))}
	b.types.Add(key, st)
	return st, true
}

// superWeapons walks the global superweapon vector and attaches each timer
// to the valid slot that owns it.
func (b *Builder) superWeapons(mem *memory.Reader, s *GameSnapshot, slots [layout.MaxPlayer]resolver.SlotBases) {
	l := b.layout
	vec := process.ProcessMemoryAddress(l.SuperArrayOffset)

	n, ok := mem.U32(vec.Offset(l.SuperArrayCount))
	if !ok || n == 0 {
		return
	}
	if n > l.MaxSuperWeapons {
		b.log.Debugln("superweapon count", n, "over limit")
		return
	}
	items, ok := mem.Addr(vec.Offset(l.SuperArrayItems))
	if !ok {
		return
	}
	blob, ok := mem.Blob(items, process.ProcessMemorySize(n*layout.ItemStride))
	if !ok {
		return
	}

	for i := uint32(0); i < n; i++ {
		obj, err := blob.OffsetPOINTER(i * layout.ItemStride)
		if err != nil || obj == 0 {
			continue
		}
		owner, ok := mem.Addr(obj.Offset(l.SuperOwner))
		if !ok {
			continue
		}
		slot := ownerSlot(s, slots, owner)
		if slot < 0 {
			continue
		}
		node, ok := b.timer(mem, obj, s.CurrentFrame)
		if !ok {
			continue
		}
		s.Slots[slot].Superweapons = append(s.Slots[slot].Superweapons, node)
	}
}

func ownerSlot(s *GameSnapshot, slots [layout.MaxPlayer]resolver.SlotBases, owner process.ProcessMemoryAddress) int {
	for i := range slots {
		if s.Slots[i].Valid && slots[i].Player == owner {
			return i
		}
	}
	return -1
}

func (b *Builder) timer(mem *memory.Reader, obj process.ProcessMemoryAddress, frame uint32) (TimerNode, bool) {
	l := b.layout

	typ, ok := mem.Addr(obj.Offset(l.SuperType))
	if !ok {
		return TimerNode{}, false
	}
	st, ok := b.superType(mem, typ)
	if !ok {
		return TimerNode{}, false
	}
	start, ok := mem.I32(obj.Offset(l.SuperTimerStart))
	if !ok {
		return TimerNode{}, false
	}
	left, _ := mem.I32(obj.Offset(l.SuperTimerLeft))

	node := TimerNode{Name: st.name, TotalDuration: st.duration}
	if start == timerStopped {
		node.Status = TimerOnHold
		node.FramesLeft = max(0, left)
		return node, true
	}
	node.Status = Counting
	node.FramesLeft = FramesLeft(start, left, frame)
	return node, true
}

// FramesLeft is the remaining time of a timer that started at start with
// left frames to go, seen at frame. The result is within [0, max(0, left)].
func FramesLeft(start, left int32, frame uint32) int32 {
	limit := max(0, int64(left))
	rem := int64(left) - (int64(frame) - int64(start))
	return int32(min(max(rem, 0), limit))
}
