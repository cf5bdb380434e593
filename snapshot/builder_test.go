package snapshot

import (
	"testing"

	"ra2ob/catalog"
	"ra2ob/gamesim"
	"ra2ob/install"
	"ra2ob/layout"
	"ra2ob/memory"
	"ra2ob/resolver"
)

const testPanel = `[
  {"Name": "Balance", "Offset": "0x30c"},
  {"Name": "Power Output", "Offset": "0x53a4"},
  {"Name": "Is Observer", "Offset": "0x1ec", "Kind": "flag"}
]`

const testUnits = `{
  "Tank": [
    {"Name": "Rhino Tank", "Offset": "0x0", "Index": 2},
    {"Name": "Apocalypse", "Offset": "0x4", "Index": 1},
    {"Name": "Grizzly", "Offset": "0x8"},
    {"Name": "Tank Destroyer", "Offset": "0xc", "Invalid": "Ra2"}
  ],
  "Infantry": [
    {"Name": "Conscript", "Offset": "0x0", "Show": 0}
  ]
}`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(testPanel), []byte(testUnits))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

type fixture struct {
	t        *testing.T
	world    *gamesim.World
	builder  *Builder
	catalog  *catalog.Catalog
	settings install.Settings
}

func newFixture(t *testing.T) *fixture {
	l := layout.Default()
	return &fixture{
		t:        t,
		world:    gamesim.New(l),
		builder:  NewBuilder(l),
		catalog:  testCatalog(t).ForVersion(catalog.Yr),
		settings: install.Defaults(),
	}
}

func (f *fixture) build() *GameSnapshot {
	f.t.Helper()
	mem := memory.New(f.world.Dump)
	r := resolver.New(f.world.Layout)
	roots, err := r.ResolveRoots(mem)
	if err != nil {
		f.t.Fatalf("ResolveRoots: %v", err)
	}
	slots, resolved := r.ResolveSlots(mem, roots)
	return f.builder.Build(Input{
		Generation: 7,
		Mem:        mem,
		Catalog:    f.catalog,
		Countries:  catalog.DefaultCountries(),
		Settings:   f.settings,
		Slots:      slots,
		Resolved:   resolved,
	})
}

func findUnit(t *testing.T, slot PlayerSlot, name string) UnitCount {
	t.Helper()
	for _, u := range slot.Units {
		if u.FieldName == name {
			return u
		}
	}
	t.Fatalf("unit %q not in slot %d", name, slot.Index)
	return UnitCount{}
}

func TestBuildNoPlayers(t *testing.T) {
	f := newFixture(t)
	s := f.build()

	if s.Valid {
		t.Fatal("snapshot with no players must be invalid")
	}
	if s.Generation != 7 {
		t.Errorf("generation = %d", s.Generation)
	}
	for i, slot := range s.Slots {
		if slot.Valid || slot.Units != nil || slot.Production != nil || slot.Panel.Fields != nil {
			t.Errorf("slot %d populated in an invalid snapshot", i)
		}
	}
}

func TestBuildDemotesUnknownCountry(t *testing.T) {
	f := newFixture(t)
	f.world.AddPlayer(0, gamesim.Player{Name: "Alice", Country: "Americans"})
	f.world.AddPlayer(1, gamesim.Player{Name: "spectator", Country: "Observer"})

	s := f.build()
	if !s.Valid {
		t.Fatal("snapshot should be valid")
	}
	if n := s.ValidPlayers(); n != 1 {
		t.Fatalf("valid players = %d, want 1", n)
	}
	if s.Slots[0].Panel.PlayerName != "Alice" || s.Slots[0].Country != "Americans" {
		t.Errorf("slot 0 = %q %q", s.Slots[0].Panel.PlayerName, s.Slots[0].Country)
	}
	demoted := s.Slots[1]
	if demoted.Valid || demoted.Panel.PlayerName != "" || demoted.Units != nil || demoted.Production != nil {
		t.Errorf("demoted slot carries data: %+v", demoted)
	}
}

func TestBuildPanelFields(t *testing.T) {
	f := newFixture(t)
	p := f.world.AddPlayer(3, gamesim.Player{Name: "Boris", Country: "Russians", Color: 0xf84c48, Controlled: true})
	p.SetField(0x30c, 10000)
	p.SetField(0x53a4, 250)

	s := f.build()
	slot := s.Slots[3]
	if !slot.Valid {
		t.Fatal("slot 3 should be valid")
	}
	if slot.Panel.Balance != 10000 || slot.Panel.PowerOutput != 250 {
		t.Errorf("panel = %+v", slot.Panel)
	}
	if len(slot.Panel.Fields) != 3 {
		t.Fatalf("fields = %d", len(slot.Panel.Fields))
	}
	if flag := slot.Panel.Fields[2]; !flag.Valid || flag.Kind != catalog.Flag || flag.Number != 1 {
		t.Errorf("flag field = %+v", flag)
	}
	if slot.HouseColor != 0x484cf8 || slot.ColorHex() != "#484cf8" {
		t.Errorf("colour = %06x", slot.HouseColor)
	}
	if slot.BaseAddr != uint32(p.Base) || slot.Debug.HouseType != uint32(p.HouseType) {
		t.Errorf("debug bases = %+v", slot.Debug)
	}
}

func TestUnitCountsFollowValidCount(t *testing.T) {
	f := newFixture(t)
	p := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "French"})
	p.SetUnits(catalog.Tank, []uint32{5, 6, 7, 8})

	s := f.build()
	if got := findUnit(t, s.Slots[0], "Grizzly").Count; got != 7 {
		t.Fatalf("Grizzly = %d, want 7", got)
	}

	// the game shrinks the array without clearing it
	p.SetValidCount(catalog.Tank, 2)
	s = f.build()
	if got := findUnit(t, s.Slots[0], "Grizzly").Count; got != 0 {
		t.Fatalf("Grizzly after shrink = %d, want 0", got)
	}
	if got := findUnit(t, s.Slots[0], "Apocalypse").Count; got != 6 {
		t.Fatalf("Apocalypse after shrink = %d, want 6", got)
	}
}

func TestUnitCountsRejectGarbage(t *testing.T) {
	f := newFixture(t)
	p := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "French"})
	p.SetUnits(catalog.Tank, []uint32{layout.UnitSafe + 1, layout.UnitSafe})

	s := f.build()
	if got := findUnit(t, s.Slots[0], "Rhino Tank").Count; got != 0 {
		t.Errorf("Rhino Tank = %d, want 0", got)
	}
	if got := findUnit(t, s.Slots[0], "Apocalypse").Count; got != layout.UnitSafe {
		t.Errorf("Apocalypse = %d", got)
	}
}

func TestUnitOrderAndVisibility(t *testing.T) {
	f := newFixture(t)
	f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "French"})

	units := f.build().Slots[0].Units
	if len(units) != 5 {
		t.Fatalf("units = %d, want 5", len(units))
	}
	if units[0].FieldName != "Apocalypse" || units[1].FieldName != "Rhino Tank" {
		t.Errorf("order = %s, %s", units[0].FieldName, units[1].FieldName)
	}
	if findUnit(t, f.build().Slots[0], "Conscript").Visible {
		t.Error("Conscript should be hidden")
	}
}

func hasUnit(slot PlayerSlot, name string) bool {
	for _, u := range slot.Units {
		if u.FieldName == name {
			return true
		}
	}
	return false
}

func TestVersionFilteredCatalog(t *testing.T) {
	f := newFixture(t)
	f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "French"})

	if !hasUnit(f.build().Slots[0], "Tank Destroyer") {
		t.Error("Tank Destroyer missing for Yr")
	}

	f.catalog = testCatalog(t).ForVersion(catalog.Ra2)
	if hasUnit(f.build().Slots[0], "Tank Destroyer") {
		t.Error("Tank Destroyer present for Ra2")
	}
}

func TestProductionRunLength(t *testing.T) {
	f := newFixture(t)
	p := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "Russians"})

	const a, b = 0, 1
	p.SetProduction(gamesim.Production{
		Factory:  4, // vehicle
		Current:  a,
		Progress: 20,
		Queue:    []uint32{a, a, a, b, a},
	})

	prod := f.build().Slots[0].Production
	if len(prod) != 1 {
		t.Fatalf("production = %+v", prod)
	}
	node := prod[0]
	if node.ItemName != "Rhino Tank" || node.QueuedCount != 3 {
		t.Errorf("node = %+v, want Rhino Tank x3", node)
	}
	if node.Status != Building || node.Progress != 20 || node.Category != catalog.Tank {
		t.Errorf("node = %+v", node)
	}
}

func TestProductionStatus(t *testing.T) {
	tests := []struct {
		name     string
		progress int32
		stopped  bool
		want     ProductionStatus
		progOut  uint32
	}{
		{"building", 10, false, Building, 10},
		{"on hold", 10, true, OnHold, 10},
		{"ready", layout.ProductionMax, true, Ready, layout.ProductionMax},
		{"over max", 90, false, Ready, layout.ProductionMax},
		{"negative", -3, false, Building, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "Russians"})
			p.SetProduction(gamesim.Production{Factory: 4, Current: 2, Progress: tt.progress, Stopped: tt.stopped})

			prod := f.build().Slots[0].Production
			if len(prod) != 1 {
				t.Fatalf("production = %+v", prod)
			}
			if prod[0].Status != tt.want || prod[0].Progress != tt.progOut {
				t.Errorf("got %v/%d, want %v/%d", prod[0].Status, prod[0].Progress, tt.want, tt.progOut)
			}
			if prod[0].QueuedCount != 1 {
				t.Errorf("queued = %d, want 1", prod[0].QueuedCount)
			}
		})
	}
}

func TestProductionUnknownTypeOmitted(t *testing.T) {
	f := newFixture(t)
	p := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "Russians"})
	p.SetProduction(gamesim.Production{Factory: 4, Current: 40})
	p.SetProduction(gamesim.Production{Factory: 3, Current: 0}) // infantry

	prod := f.build().Slots[0].Production
	if len(prod) != 1 || prod[0].ItemName != "Conscript" || prod[0].Factory != "infantry" {
		t.Fatalf("production = %+v", prod)
	}
}

func TestTypeCachePurge(t *testing.T) {
	f := newFixture(t)
	p := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "Russians"})
	p.SetProduction(gamesim.Production{Factory: 4, Current: 0})

	if got := f.build().Slots[0].Production[0].ItemName; got != "Rhino Tank" {
		t.Fatalf("item = %q", got)
	}

	typ := f.world.Type(0, "")
	f.world.PutU32(typ.Offset(f.world.Layout.TypeArrayIndex), 2)

	if got := f.build().Slots[0].Production[0].ItemName; got != "Rhino Tank" {
		t.Fatalf("cached item = %q", got)
	}
	f.builder.Purge()
	if got := f.build().Slots[0].Production[0].ItemName; got != "Grizzly" {
		t.Fatalf("item after purge = %q", got)
	}
}

func TestSuperWeaponTimers(t *testing.T) {
	f := newFixture(t)
	p0 := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "Russians"})
	p1 := f.world.AddPlayer(1, gamesim.Player{Name: "B", Country: "Americans"})
	stranger := f.world.Alloc(0x100)

	f.world.SetFrame(130)
	f.world.AddSuperWeapon(gamesim.SuperWeapon{Owner: p0.Base, Name: "NukeSpecial", Duration: 5400, Start: 100, Left: 50})
	f.world.AddSuperWeapon(gamesim.SuperWeapon{Owner: p1.Base, Name: "LightningStormSpecial", Duration: 5400, Start: -1, Left: 900})
	f.world.AddSuperWeapon(gamesim.SuperWeapon{Owner: stranger, Name: "IronCurtainSpecial", Start: 0, Left: 10})

	s := f.build()
	if s.CurrentFrame != 130 {
		t.Fatalf("frame = %d", s.CurrentFrame)
	}

	nuke := s.Slots[0].Superweapons
	if len(nuke) != 1 {
		t.Fatalf("slot 0 timers = %+v", nuke)
	}
	if nuke[0].Name != "NukeSpecial" || nuke[0].Status != Counting || nuke[0].FramesLeft != 20 || nuke[0].TotalDuration != 5400 {
		t.Errorf("nuke = %+v", nuke[0])
	}

	storm := s.Slots[1].Superweapons
	if len(storm) != 1 || storm[0].Status != TimerOnHold || storm[0].FramesLeft != 900 {
		t.Errorf("storm = %+v", storm)
	}

	for i, slot := range s.Slots {
		for _, tn := range slot.Superweapons {
			if tn.Name == "IronCurtainSpecial" {
				t.Errorf("unowned timer attributed to slot %d", i)
			}
		}
	}
}

func TestFramesLeft(t *testing.T) {
	tests := []struct {
		start, left int32
		frame       uint32
		want        int32
	}{
		{100, 50, 130, 20},
		{100, 50, 150, 0},
		{100, 50, 900, 0},
		{0, 10, 0, 10},
		{100, 50, 90, 50},
		{100, -5, 90, 0},
		{100, -5, 200, 0},
	}
	for _, tt := range tests {
		if got := FramesLeft(tt.start, tt.left, tt.frame); got != tt.want {
			t.Errorf("FramesLeft(%d, %d, %d) = %d, want %d", tt.start, tt.left, tt.frame, got, tt.want)
		}
	}
}

func TestScore(t *testing.T) {
	f := newFixture(t)
	p := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "Russians"})
	p.SetScore([]int32{1, 2}, []int32{3}, []int32{4}, []int32{-1, 5})
	p.SetProduced(0, []int32{2, 3})
	p.SetProduced(2, []int32{4})
	p.SetUnits(catalog.Tank, []uint32{5, 6, 7})
	p.SetUnits(catalog.Building, []uint32{1})

	sc := f.build().Slots[0].Score
	want := ScoreStats{Kills: 6, Losses: 9, Produced: 9, Built: 24, Alive: 19}
	if sc != want {
		t.Errorf("score = %+v, want %+v", sc, want)
	}
}

func TestScoreRejectsOversizedCounter(t *testing.T) {
	f := newFixture(t)
	l := f.world.Layout
	p := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "Russians"})
	p.SetProduced(0, []int32{2, 3})
	p.SetProduced(2, []int32{4})
	p.SetField(l.ProducedCounters[2].Count, l.MaxCounterEntries+1)

	sc := f.build().Slots[0].Score
	if sc.Produced != 5 {
		t.Errorf("produced = %d, want 5 with the oversized counter skipped", sc.Produced)
	}
}

func TestObserverAndGameOver(t *testing.T) {
	f := newFixture(t)
	p0 := f.world.AddPlayer(0, gamesim.Player{Name: "A", Country: "Russians"})
	f.world.AddPlayer(1, gamesim.Player{Name: "B", Country: "Americans"})
	f.world.SetPaused(true)

	s := f.build()
	if !s.IsObserverView {
		t.Error("no controlled slot should be an observer view")
	}
	if s.IsGameOver || !s.IsPaused {
		t.Errorf("game over %v paused %v", s.IsGameOver, s.IsPaused)
	}

	f.world.Dump.Poke(p0.Base.Offset(f.world.Layout.ControlledOffset), []byte{f.world.Layout.ControlledSentinel})
	if f.build().IsObserverView {
		t.Error("controlled slot should not be an observer view")
	}

	f.settings.Replay = true
	if !f.build().IsObserverView {
		t.Error("replay should be an observer view")
	}

	p0.SetFlags(true, false, false)
	s = f.build()
	if !s.IsGameOver || !s.Slots[0].Status.Defeated {
		t.Error("defeated slot should end the game")
	}
}

func TestSwapColor(t *testing.T) {
	if got := SwapColor(0xf84c48); got != 0x484cf8 {
		t.Errorf("SwapColor = %06x", got)
	}
}
