// Package layout holds the byte offsets of the target's object graph.
// Defaults describe gamemd-spawn.exe; any value can be overridden from
// the observer configuration file.
package layout

import (
	"fmt"
)

const (
	// MaxPlayer is the number of player slots in a game.
	MaxPlayer = 8

	// InvalidClass marks an unused entry in the player base array.
	InvalidClass = 0xFFFFFFFF

	// ItemStride is the width of one entry in every category array.
	ItemStride = 4

	// UnitSafe rejects unit counts that can only come from unrelated memory.
	UnitSafe = 4096

	// ProductionMax is the progress value of a finished item.
	ProductionMax = 54
)

// Factory locates one production slot of a player.
type Factory struct {
	Name     string `yaml:"name"`
	Offset   uint32 `yaml:"offset"`    // factory pointer inside the player object
	TypeSlot uint32 `yaml:"type_slot"` // type pointer inside the object being built
	Category string `yaml:"category"`  // catalog category the type index is matched in
}

// Counter is a pointer and length pair inside the player object.
type Counter struct {
	Items uint32 `yaml:"items"`
	Count uint32 `yaml:"count"`
}

// Layout is the complete set of offsets the resolver and snapshot builder use.
type Layout struct {
	// Global roots (absolute addresses)
	FixedOffset              uint32 `yaml:"fixed_offset"`
	ClassBaseArrayOffset     uint32 `yaml:"class_base_array_offset"`
	PlayerBaseArrayPtrOffset uint32 `yaml:"player_base_array_ptr_offset"`
	GameFrameOffset          uint32 `yaml:"game_frame_offset"`
	PauseOffset              uint32 `yaml:"pause_offset"`

	// Player object
	HouseTypeOffset    uint32 `yaml:"house_type_offset"`
	NameOffset         uint32 `yaml:"name_offset"`
	NameSize           uint32 `yaml:"name_size"`
	CountryOffset      uint32 `yaml:"country_offset"` // inside the house type
	CountrySize        uint32 `yaml:"country_size"`
	ColorOffset        uint32 `yaml:"color_offset"`
	ControlledOffset   uint32 `yaml:"controlled_offset"`
	ControlledSentinel uint8  `yaml:"controlled_sentinel"`
	DefeatedOffset     uint32 `yaml:"defeated_offset"`
	GameOverOffset     uint32 `yaml:"game_over_offset"`
	WinnerOffset       uint32 `yaml:"winner_offset"`
	InfantrySelfHeal   uint32 `yaml:"infantry_self_heal_offset"`
	UnitSelfHeal       uint32 `yaml:"unit_self_heal_offset"`

	// Category arrays: base pointer, valid count four bytes after it
	BuildingOffset uint32 `yaml:"building_offset"`
	TankOffset     uint32 `yaml:"tank_offset"`
	InfantryOffset uint32 `yaml:"infantry_offset"`
	AircraftOffset uint32 `yaml:"aircraft_offset"`

	// Production
	Factories          []Factory `yaml:"factories"`
	FactoryProgress    uint32    `yaml:"factory_progress_offset"`
	FactoryStatus      uint32    `yaml:"factory_status_offset"`
	FactoryCurrent     uint32    `yaml:"factory_current_offset"`
	FactoryQueueItems  uint32    `yaml:"factory_queue_items_offset"`
	FactoryQueueLength uint32    `yaml:"factory_queue_length_offset"`
	TypeArrayIndex     uint32    `yaml:"type_array_index_offset"`
	MaxQueueLength     uint32    `yaml:"max_queue_length"`

	// Superweapons (global vector)
	SuperArrayOffset      uint32 `yaml:"super_array_offset"`
	SuperArrayItems       uint32 `yaml:"super_array_items_offset"`
	SuperArrayCount       uint32 `yaml:"super_array_count_offset"`
	SuperType             uint32 `yaml:"super_type_offset"`
	SuperOwner            uint32 `yaml:"super_owner_offset"`
	SuperTimerStart       uint32 `yaml:"super_timer_start_offset"`
	SuperTimerLeft        uint32 `yaml:"super_timer_left_offset"`
	SuperTypeName         uint32 `yaml:"super_type_name_offset"`
	SuperTypeNameSize     uint32 `yaml:"super_type_name_size"`
	SuperTypeRechargeTime uint32 `yaml:"super_type_recharge_time_offset"`
	MaxSuperWeapons       uint32 `yaml:"max_super_weapons"`

	// Score
	KilledBuildings   uint32    `yaml:"killed_buildings_offset"`
	KilledUnits       uint32    `yaml:"killed_units_offset"`
	LostBuildings     uint32    `yaml:"lost_buildings_offset"`
	LostUnits         uint32    `yaml:"lost_units_offset"`
	ScoreHouseSlots   uint32    `yaml:"score_house_slots"`
	ProducedCounters  []Counter `yaml:"produced_counters"`
	MaxCounterEntries uint32    `yaml:"max_counter_entries"`
}

// Default returns the layout of gamemd-spawn.exe.
func Default() Layout {
	return Layout{
		FixedOffset:              0xa8b230,
		ClassBaseArrayOffset:     0xa8022c,
		PlayerBaseArrayPtrOffset: 0x1180,
		GameFrameOffset:          0xa8ed84,
		PauseOffset:              0xa8f238,

		HouseTypeOffset:    0x34,
		NameOffset:         0x1602a,
		NameSize:           0x20,
		CountryOffset:      0x24,
		CountrySize:        0x19,
		ColorOffset:        0x56f9,
		ControlledOffset:   0x1ec,
		ControlledSentinel: 1,
		DefeatedOffset:     0x1f5,
		GameOverOffset:     0x1f6,
		WinnerOffset:       0x1f7,
		InfantrySelfHeal:   0x54d0,
		UnitSelfHeal:       0x54d4,

		BuildingOffset: 0x5554,
		TankOffset:     0x5568,
		InfantryOffset: 0x557c,
		AircraftOffset: 0x5590,

		Factories: []Factory{
			{Name: "aircraft", Offset: 0x53ac, TypeSlot: 0x6c4, Category: "Aircraft"},
			{Name: "building", Offset: 0x53bc, TypeSlot: 0x520, Category: "Building"},
			{Name: "defense", Offset: 0x53cc, TypeSlot: 0x520, Category: "Building"},
			{Name: "infantry", Offset: 0x53b0, TypeSlot: 0x6c4, Category: "Infantry"},
			{Name: "vehicle", Offset: 0x53b4, TypeSlot: 0x6c4, Category: "Tank"},
			{Name: "naval", Offset: 0x53b8, TypeSlot: 0x6c4, Category: "Tank"},
		},
		FactoryProgress:    0x24,
		FactoryStatus:      0x70,
		FactoryCurrent:     0x58,
		FactoryQueueItems:  0x44,
		FactoryQueueLength: 0x50,
		TypeArrayIndex:     0x1e0,
		MaxQueueLength:     64,

		SuperArrayOffset:      0xa83cb8,
		SuperArrayItems:       0x4,
		SuperArrayCount:       0x10,
		SuperType:             0x28,
		SuperOwner:            0x2c,
		SuperTimerStart:       0x30,
		SuperTimerLeft:        0x38,
		SuperTypeName:         0x24,
		SuperTypeNameSize:     0x19,
		SuperTypeRechargeTime: 0x90,
		MaxSuperWeapons:       256,

		KilledBuildings: 0x5618,
		KilledUnits:     0x5668,
		LostBuildings:   0x5800,
		LostUnits:       0x5850,
		ScoreHouseSlots: 20,
		ProducedCounters: []Counter{
			{Items: 0x55a4, Count: 0x55a8},
			{Items: 0x55b8, Count: 0x55bc},
			{Items: 0x55cc, Count: 0x55d0},
			{Items: 0x55e0, Count: 0x55e4},
		},
		MaxCounterEntries: 1024,
	}
}

// Validate checks the layout is usable. It does not mutate the layout.
func (l *Layout) Validate() error {
	required := []struct {
		name  string
		value uint32
	}{
		{"fixed_offset", l.FixedOffset},
		{"class_base_array_offset", l.ClassBaseArrayOffset},
		{"player_base_array_ptr_offset", l.PlayerBaseArrayPtrOffset},
		{"house_type_offset", l.HouseTypeOffset},
		{"building_offset", l.BuildingOffset},
		{"tank_offset", l.TankOffset},
		{"infantry_offset", l.InfantryOffset},
		{"aircraft_offset", l.AircraftOffset},
		{"name_size", l.NameSize},
		{"country_size", l.CountrySize},
	}
	for _, r := range required {
		if r.value == 0 {
			return fmt.Errorf("layout: %s must be set", r.name)
		}
	}

	if l.NameSize%2 != 0 {
		return fmt.Errorf("layout: name_size 0x%x must be even for UTF-16 text", l.NameSize)
	}

	for i, f := range l.Factories {
		if f.Offset == 0 {
			return fmt.Errorf("layout: factory %d (%s) has no offset", i, f.Name)
		}
		switch f.Category {
		case "Building", "Tank", "Infantry", "Aircraft":
		default:
			return fmt.Errorf("layout: factory %d (%s) has unknown category %q", i, f.Name, f.Category)
		}
	}

	if l.ScoreHouseSlots > 64 {
		return fmt.Errorf("layout: score_house_slots %d exceeds 64", l.ScoreHouseSlots)
	}

	return nil
}
