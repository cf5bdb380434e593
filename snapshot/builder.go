// Package snapshot assembles one immutable GameSnapshot per fetch cycle
// from resolved slot bases, the field catalog and the memory reader.
package snapshot

import (
	"sort"
	"strings"

	"ra2ob/catalog"
	"ra2ob/install"
	"ra2ob/layout"
	"ra2ob/memory"
	"ra2ob/process"
	"ra2ob/resolver"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	lru "github.com/hashicorp/golang-lru"
)

const typeCacheSize = 2048

// Input is everything one build needs. Catalog must already be filtered
// for Settings.Version.
type Input struct {
	Generation uint64
	Mem        *memory.Reader
	Catalog    *catalog.Catalog
	Countries  catalog.Countries
	Settings   install.Settings
	Slots      [layout.MaxPlayer]resolver.SlotBases
	Resolved   [layout.MaxPlayer]bool
}

// Builder turns an Input into a GameSnapshot. Reads of static type
// descriptors are cached until Purge.
type Builder struct {
	layout    layout.Layout
	factories []factory
	types     *lru.Cache
	log       *logger.Logger
}

type factory struct {
	layout.Factory
	category catalog.Category
}

// NewBuilder returns a builder for l. The layout must have passed Validate.
func NewBuilder(l layout.Layout) *Builder {
	types, err := lru.New(typeCacheSize)
	if err != nil {
		panic(err)
	}

	b := &Builder{
		layout: l,
		types:  types,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorOrange, coloransi.ColorPurple, "snapshot")),
	}
	for _, f := range l.Factories {
		cat, err := catalog.ParseCategory(f.Category)
		if err != nil {
			b.log.Warn("factory", f.Name, "skipped:", err)
			continue
		}
		b.factories = append(b.factories, factory{Factory: f, category: cat})
	}
	return b
}

// Purge drops cached type descriptors. Call it whenever the target changes.
func (b *Builder) Purge() {
	b.types.Purge()
}

// Build assembles a snapshot. It never fails; unreadable fields keep their
// zero value and a cycle with no real player is returned invalid.
func (b *Builder) Build(in Input) *GameSnapshot {
	s := Invalid(in.Generation)
	s.Version = in.Settings.Version
	s.MapName = in.Settings.MapName
	s.Screen = in.Settings.Screen

	mem := in.Mem
	if mem == nil || in.Catalog == nil {
		return s
	}

	countries := [layout.MaxPlayer]string{}
	valid := 0
	for i := range in.Slots {
		if !in.Resolved[i] || in.Slots[i].HouseType == 0 {
			continue
		}
		code, ok := mem.FixedString(in.Slots[i].HouseType.Offset(b.layout.CountryOffset), process.ProcessMemorySize(b.layout.CountrySize), memory.ASCII)
		if !ok {
			continue
		}
		name, ok := in.Countries.Lookup(code)
		if !ok {
			continue
		}
		countries[i] = name
		valid++
	}
	if valid == 0 {
		return s
	}

	frame, _ := mem.U32(process.ProcessMemoryAddress(b.layout.GameFrameOffset))
	paused, _ := mem.Bool(process.ProcessMemoryAddress(b.layout.PauseOffset))
	s.CurrentFrame = frame
	s.IsPaused = paused

	anyControlled := false
	for i := range in.Slots {
		if countries[i] == "" {
			continue
		}
		slot := b.buildSlot(mem, in.Catalog, in.Slots[i])
		slot.Country = countries[i]
		s.Slots[i] = slot

		if slot.Status.Controlled {
			anyControlled = true
		}
		if slot.Status.Defeated || slot.Status.GameOver || slot.Status.Winner {
			s.IsGameOver = true
		}
	}

	b.superWeapons(mem, s, in.Slots)

	s.IsObserverView = !anyControlled || in.Settings.Replay
	s.Valid = true
	return s
}

func (b *Builder) buildSlot(mem *memory.Reader, cat *catalog.Catalog, bases resolver.SlotBases) PlayerSlot {
	l := b.layout
	player := bases.Player

	slot := PlayerSlot{
		Index:    bases.Index,
		Valid:    true,
		BaseAddr: uint32(player),
		Debug: DebugBases{
			Player:    uint32(player),
			HouseType: uint32(bases.HouseType),
			Building:  uint32(bases.Building.Base),
			Tank:      uint32(bases.Tank.Base),
			Infantry:  uint32(bases.Infantry.Base),
			Aircraft:  uint32(bases.Aircraft.Base),
		},
	}

	slot.Panel.PlayerName, _ = mem.FixedString(player.Offset(l.NameOffset), process.ProcessMemorySize(l.NameSize), memory.UTF16LE)
	if c, ok := mem.Color(player.Offset(l.ColorOffset)); ok {
		slot.HouseColor = SwapColor(c)
	}

	for _, d := range cat.Panel {
		v := b.fetch(mem, player, d)
		slot.Panel.Fields = append(slot.Panel.Fields, v)
		switch panelKey(d.Name) {
		case "balance":
			slot.Panel.Balance = v.Number
		case "creditspent":
			slot.Panel.CreditSpent = v.Number
		case "powerdrain":
			slot.Panel.PowerDrain = v.Number
		case "poweroutput":
			slot.Panel.PowerOutput = v.Number
		}
	}

	slot.Units = b.units(mem, cat, bases)
	slot.Status = b.status(mem, player)
	slot.Production = b.production(mem, cat, player)
	slot.Score = b.score(mem, bases)

	return slot
}

func panelKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// fetch reads one descriptor relative to base according to its kind.
func (b *Builder) fetch(mem *memory.Reader, base process.ProcessMemoryAddress, d catalog.FieldDescriptor) FieldValue {
	v := FieldValue{Name: d.Name, Kind: d.Kind}
	addr := base.Offset(d.Offset)

	switch d.Kind {
	case catalog.Numeric:
		v.Number, v.Valid = mem.U32(addr)
	case catalog.Flag:
		var f bool
		f, v.Valid = mem.Bool(addr)
		if f {
			v.Number = 1
		}
	case catalog.TextName:
		v.Text, v.Valid = mem.FixedString(addr, process.ProcessMemorySize(b.layout.NameSize), memory.UTF16LE)
	case catalog.TextCountry:
		v.Text, v.Valid = mem.FixedString(addr, process.ProcessMemorySize(b.layout.CountrySize), memory.ASCII)
	}
	return v
}

// units reads every unit descriptor. An offset beyond the category's
// current valid count reads as zero, as does a count above UnitSafe.
func (b *Builder) units(mem *memory.Reader, cat *catalog.Catalog, bases resolver.SlotBases) []UnitCount {
	out := make([]UnitCount, 0, len(cat.Units))
	for _, d := range cat.Units {
		u := UnitCount{
			FieldName: d.Name,
			Category:  d.Category,
			Index:     d.Index,
			Visible:   d.Visible,
		}
		cb, ok := bases.Category(d.Category)
		if ok && cb.InBounds(d.Offset) {
			if n, ok := mem.U32(cb.Base.Offset(d.Offset)); ok && n <= layout.UnitSafe {
				u.Count = n
			}
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Index < out[j].Index
	})
	return out
}

func (b *Builder) status(mem *memory.Reader, player process.ProcessMemoryAddress) StatusFlags {
	l := b.layout
	var st StatusFlags

	if v, ok := mem.Byte(player.Offset(l.ControlledOffset)); ok {
		st.Controlled = v == l.ControlledSentinel
	}
	st.Defeated, _ = mem.Bool(player.Offset(l.DefeatedOffset))
	st.GameOver, _ = mem.Bool(player.Offset(l.GameOverOffset))
	st.Winner, _ = mem.Bool(player.Offset(l.WinnerOffset))

	if v, ok := mem.I32(player.Offset(l.InfantrySelfHeal)); ok {
		st.InfantrySelfHeal = v != 0
	}
	if v, ok := mem.I32(player.Offset(l.UnitSelfHeal)); ok {
		st.UnitSelfHeal = v != 0
	}
	return st
}

// SwapColor converts the BGR value stored in the player object to RGB.
func SwapColor(c uint32) uint32 {
	return (c & 0xFF00) | (c << 16 & 0xFF0000) | (c >> 16 & 0xFF)
}
