//go:build linux

package memory_map

import "testing"

func TestParseMapsLine(t *testing.T) {
	item, ok := parseMapsLine("00400000-0040b000 r-xp 00000000 08:01 123 /usr/bin/wine")
	if !ok {
		t.Fatalf("expected line to parse")
	}
	if item.Address != 0x400000 || item.Size != 0xb000 || item.Perms != "r-xp" {
		t.Fatalf("unexpected item %v", item)
	}

	if _, ok := parseMapsLine("garbage"); ok {
		t.Fatalf("expected garbage to be rejected")
	}
	if _, ok := parseMapsLine("0040b000-00400000 r-xp"); ok {
		t.Fatalf("expected inverted range to be rejected")
	}
}
