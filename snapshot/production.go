package snapshot

import (
	"ra2ob/catalog"
	"ra2ob/layout"
	"ra2ob/memory"
	"ra2ob/process"
)

type typeKey struct {
	addr process.ProcessMemoryAddress
	kind uint8
}

const (
	keyIndex uint8 = iota
	keySuper
)

// typeIndex follows a type descriptor to its position in the type array.
func (b *Builder) typeIndex(mem *memory.Reader, typ process.ProcessMemoryAddress) (uint32, bool) {
	key := typeKey{typ, keyIndex}
	if v, ok := b.types.Get(key); ok {
		return v.(uint32), true
	}
	idx, ok := mem.U32(typ.Offset(b.layout.TypeArrayIndex))
	if !ok {
		return 0, false
	}
	b.types.Add(key, idx)
	return idx, true
}

// production decodes every busy factory of a player. Idle factories and
// items the catalog does not know are left out.
func (b *Builder) production(mem *memory.Reader, cat *catalog.Catalog, player process.ProcessMemoryAddress) []ProductionNode {
	var out []ProductionNode
	for _, f := range b.factories {
		node, ok := b.factory(mem, cat, player, f)
		if ok {
			out = append(out, node)
		}
	}
	return out
}

func (b *Builder) factory(mem *memory.Reader, cat *catalog.Catalog, player process.ProcessMemoryAddress, f factory) (ProductionNode, bool) {
	l := b.layout

	fac, ok := mem.Addr(player.Offset(f.Offset))
	if !ok {
		return ProductionNode{}, false
	}
	typ, ok := mem.Path(fac, l.FactoryCurrent, f.TypeSlot)
	if !ok {
		return ProductionNode{}, false
	}
	idx, ok := b.typeIndex(mem, typ)
	if !ok || idx >= l.MaxCounterEntries {
		return ProductionNode{}, false
	}

	d, ok := cat.MatchUnit(f.category, idx*layout.ItemStride)
	if !ok {
		b.log.Debugln("factory", f.Name, "unknown type index", idx)
		return ProductionNode{}, false
	}

	progress, _ := mem.I32(fac.Offset(l.FactoryProgress))
	stopped, _ := mem.Bool(fac.Offset(l.FactoryStatus))

	node := ProductionNode{
		Factory:     f.Name,
		ItemName:    d.Name,
		Category:    f.category,
		Progress:    clampProgress(progress),
		QueuedCount: b.queueRun(mem, fac, idx),
	}
	switch {
	case node.Progress == layout.ProductionMax:
		node.Status = Ready
	case stopped:
		node.Status = OnHold
	default:
		node.Status = Building
	}
	return node, true
}

// queueRun counts the entries at the head of the factory queue that share
// the current item's type index. The current item always counts as one.
func (b *Builder) queueRun(mem *memory.Reader, fac process.ProcessMemoryAddress, idx uint32) uint32 {
	l := b.layout

	n, ok := mem.U32(fac.Offset(l.FactoryQueueLength))
	if !ok || n == 0 || n > l.MaxQueueLength {
		return 1
	}
	items, ok := mem.Addr(fac.Offset(l.FactoryQueueItems))
	if !ok {
		return 1
	}
	blob, ok := mem.Blob(items, process.ProcessMemorySize(n*layout.ItemStride))
	if !ok {
		return 1
	}

	var run uint32
	for i := uint32(0); i < n; i++ {
		typ, err := blob.OffsetPOINTER(i * layout.ItemStride)
		if err != nil || typ == 0 {
			break
		}
		qi, ok := b.typeIndex(mem, typ)
		if !ok || qi != idx {
			break
		}
		run++
	}
	return max(1, run)
}

func clampProgress(p int32) uint32 {
	if p < 0 {
		return 0
	}
	if p > layout.ProductionMax {
		return layout.ProductionMax
	}
	return uint32(p)
}
