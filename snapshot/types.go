package snapshot

import (
	"fmt"

	"ra2ob/catalog"
	"ra2ob/install"
	"ra2ob/layout"
)

// ProductionStatus is the state of the item a factory is building.
type ProductionStatus int

const (
	Building ProductionStatus = iota
	OnHold
	Ready
)

func (s ProductionStatus) String() string {
	switch s {
	case Building:
		return "Building"
	case OnHold:
		return "OnHold"
	case Ready:
		return "Ready"
	}
	return fmt.Sprintf("ProductionStatus(%d)", int(s))
}

func (s ProductionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ProductionStatus) UnmarshalText(b []byte) error {
	for _, v := range []ProductionStatus{Building, OnHold, Ready} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown production status %q", b)
}

// TimerStatus is the state of a superweapon countdown.
type TimerStatus int

const (
	Counting TimerStatus = iota
	TimerOnHold
)

func (s TimerStatus) String() string {
	switch s {
	case Counting:
		return "Counting"
	case TimerOnHold:
		return "OnHold"
	}
	return fmt.Sprintf("TimerStatus(%d)", int(s))
}

func (s TimerStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TimerStatus) UnmarshalText(b []byte) error {
	for _, v := range []TimerStatus{Counting, TimerOnHold} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown timer status %q", b)
}

// FieldValue is one decoded panel field. Number holds numeric and flag
// kinds (flags as 0 or 1), Text holds the text kinds.
type FieldValue struct {
	Name   string            `json:"name"`
	Kind   catalog.ValueKind `json:"kind"`
	Number uint32            `json:"number"`
	Text   string            `json:"text,omitempty"`
	Valid  bool              `json:"valid"`
}

type PanelStats struct {
	PlayerName  string       `json:"player_name"`
	Balance     uint32       `json:"balance"`
	CreditSpent uint32       `json:"credit_spent"`
	PowerDrain  uint32       `json:"power_drain"`
	PowerOutput uint32       `json:"power_output"`
	Fields      []FieldValue `json:"fields"`
}

type StatusFlags struct {
	InfantrySelfHeal bool `json:"infantry_self_heal"`
	UnitSelfHeal     bool `json:"unit_self_heal"`
	Controlled       bool `json:"controlled"`
	Defeated         bool `json:"defeated"`
	GameOver         bool `json:"game_over"`
	Winner           bool `json:"winner"`
}

type UnitCount struct {
	FieldName string           `json:"name"`
	Category  catalog.Category `json:"category"`
	Index     int              `json:"index"`
	Count     uint32           `json:"count"`
	Visible   bool             `json:"visible"`
}

type ProductionNode struct {
	Factory     string           `json:"factory"`
	ItemName    string           `json:"item"`
	Category    catalog.Category `json:"category"`
	QueuedCount uint32           `json:"queued"`
	Progress    uint32           `json:"progress"`
	Status      ProductionStatus `json:"status"`
}

type TimerNode struct {
	Name          string      `json:"name"`
	TotalDuration uint32      `json:"total_duration"`
	FramesLeft    int32       `json:"frames_left"`
	Status        TimerStatus `json:"status"`
}

type ScoreStats struct {
	Kills    uint32 `json:"kills"`
	Losses   uint32 `json:"losses"`
	Produced uint32 `json:"produced"`
	Built    uint32 `json:"built"`
	Alive    uint32 `json:"alive"`
}

// DebugBases are the addresses a slot was read from.
type DebugBases struct {
	Player    uint32 `json:"player"`
	HouseType uint32 `json:"house_type"`
	Building  uint32 `json:"building"`
	Tank      uint32 `json:"tank"`
	Infantry  uint32 `json:"infantry"`
	Aircraft  uint32 `json:"aircraft"`
}

type PlayerSlot struct {
	Index        int              `json:"index"`
	Valid        bool             `json:"valid"`
	BaseAddr     uint32           `json:"base_addr"`
	HouseColor   uint32           `json:"house_color"` // 0xRRGGBB
	Country      string           `json:"country"`
	Panel        PanelStats       `json:"panel"`
	Status       StatusFlags      `json:"status"`
	Units        []UnitCount      `json:"units"`
	Production   []ProductionNode `json:"production"`
	Superweapons []TimerNode      `json:"superweapons"`
	Score        ScoreStats       `json:"score"`
	Debug        DebugBases       `json:"debug"`
}

// ColorHex renders HouseColor as "#rrggbb".
func (p PlayerSlot) ColorHex() string {
	return fmt.Sprintf("#%06x", p.HouseColor&0xffffff)
}

type GameSnapshot struct {
	Valid          bool                         `json:"valid"`
	Generation     uint64                       `json:"generation"`
	IsObserverView bool                         `json:"is_observer_view"`
	IsGameOver     bool                         `json:"is_game_over"`
	IsPaused       bool                         `json:"is_paused"`
	Version        catalog.Version              `json:"version"`
	CurrentFrame   uint32                       `json:"current_frame"`
	MapName        string                       `json:"map_name"`
	Screen         install.Screen               `json:"screen"`
	Slots          [layout.MaxPlayer]PlayerSlot `json:"slots"`
}

// Invalid returns a snapshot that reports nothing to show.
func Invalid(generation uint64) *GameSnapshot {
	s := &GameSnapshot{Generation: generation}
	for i := range s.Slots {
		s.Slots[i].Index = i
	}
	return s
}

// ValidPlayers counts the valid slots.
func (s *GameSnapshot) ValidPlayers() int {
	n := 0
	for _, slot := range s.Slots {
		if slot.Valid {
			n++
		}
	}
	return n
}
