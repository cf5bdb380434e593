package snapshot

import (
	"ra2ob/layout"
	"ra2ob/memory"
	"ra2ob/process"
	"ra2ob/process_blob"
	"ra2ob/resolver"
)

func (b *Builder) score(mem *memory.Reader, bases resolver.SlotBases) ScoreStats {
	l := b.layout
	player := bases.Player

	var sc ScoreStats
	sc.Kills = b.houseSum(mem, player.Offset(l.KilledBuildings)) + b.houseSum(mem, player.Offset(l.KilledUnits))
	sc.Losses = b.houseSum(mem, player.Offset(l.LostBuildings)) + b.houseSum(mem, player.Offset(l.LostUnits))

	for _, c := range l.ProducedCounters {
		items, ok := mem.Addr(player.Offset(c.Items))
		if !ok {
			continue
		}
		n, ok := mem.U32(player.Offset(c.Count))
		if !ok {
			continue
		}
		sc.Produced += b.arraySum(mem, items, n)
	}
	sc.Built = sc.Produced + sc.Kills + sc.Losses

	for _, cb := range []resolver.CategoryBase{bases.Building, bases.Tank, bases.Infantry, bases.Aircraft} {
		if cb.Base == 0 {
			continue
		}
		sc.Alive += b.arraySum(mem, cb.Base, cb.ValidCount)
	}
	return sc
}

// houseSum adds up one per-house score array.
func (b *Builder) houseSum(mem *memory.Reader, addr process.ProcessMemoryAddress) uint32 {
	blob, ok := mem.Blob(addr, process.ProcessMemorySize(b.layout.ScoreHouseSlots*layout.ItemStride))
	if !ok {
		return 0
	}
	return sumBlob(blob, b.layout.ScoreHouseSlots, 1<<31)
}

// arraySum adds up n per-type counters at items. A length above
// MaxCounterEntries is not walked at all and each entry is held to UnitSafe.
func (b *Builder) arraySum(mem *memory.Reader, items process.ProcessMemoryAddress, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	if n > b.layout.MaxCounterEntries {
		b.log.Debugln("counter length", n, "over limit")
		return 0
	}
	blob, ok := mem.Blob(items, process.ProcessMemorySize(n*layout.ItemStride))
	if !ok {
		return 0
	}
	return sumBlob(blob, n, layout.UnitSafe)
}

// sumBlob adds n int32 entries, skipping negative ones and ones above limit.
func sumBlob(blob *process_blob.ProcessBlob, n uint32, limit int64) uint32 {
	var sum uint32
	for i := uint32(0); i < n; i++ {
		v, err := blob.OffsetINT32(i * layout.ItemStride)
		if err != nil {
			break
		}
		if v < 0 || int64(v) > limit {
			continue
		}
		sum += uint32(v)
	}
	return sum
}
