package main

import (
	"bytes"
	"strings"
	"testing"

	"ra2ob/snapshot"
)

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	printSnapshot(&buf, snapshot.Invalid(2), false)
	if got := buf.String(); got != "waiting for game (generation 2)\n" {
		t.Fatalf("invalid: %q", got)
	}

	s := snapshot.Invalid(3)
	s.Valid = true
	s.IsObserverView = true
	s.MapName = "Tour of Egypt"
	s.Slots[1] = snapshot.PlayerSlot{
		Index:      1,
		Valid:      true,
		Country:    "Russians",
		HouseColor: 0x484cf8,
		Panel:      snapshot.PanelStats{PlayerName: "Boris", Balance: 7500},
		Production: []snapshot.ProductionNode{{Factory: "vehicle", ItemName: "Rhino Tank", QueuedCount: 3, Progress: 20}},
		Units:      []snapshot.UnitCount{{FieldName: "Conscript", Count: 12, Visible: true}, {FieldName: "Spy", Count: 1}},
	}

	buf.Reset()
	printSnapshot(&buf, s, false)
	out := buf.String()
	for _, want := range []string{"observer", `"Tour of Egypt"`, "Boris", "#484cf8", "7500", "Rhino Tank x3  20/54  Building", "Conscript 12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Spy") {
		t.Errorf("hidden unit printed:\n%s", out)
	}

	buf.Reset()
	printSnapshot(&buf, s, true)
	if strings.Contains(buf.String(), "Rhino Tank") {
		t.Errorf("brief output has production:\n%s", buf.String())
	}
}
