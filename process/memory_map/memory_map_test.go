package memory_map

import "testing"

func TestFind(t *testing.T) {
	mm := []MemoryMapItem{
		{Address: 0x3000, Size: 0x1000, Perms: "r--p"},
		{Address: 0x1000, Size: 0x1000, Perms: "rw-p"},
	}
	Sort(mm)

	if item := Find(0x1800, mm); item == nil || item.Address != 0x1000 {
		t.Fatalf("expected region 0x1000, got %v", item)
	}
	if item := Find(0x2800, mm); item != nil {
		t.Fatalf("expected hole at 0x2800, got %v", item)
	}
	if item := Find(0x3fff, mm); item == nil || item.Address != 0x3000 {
		t.Fatalf("expected region 0x3000, got %v", item)
	}
	if item := Find(0x4000, mm); item != nil {
		t.Fatalf("expected end of map at 0x4000, got %v", item)
	}
}

func TestContains(t *testing.T) {
	item := MemoryMapItem{Address: 0x1000, Size: 0x100, Perms: "r--p"}
	if !item.Contains(0x10fc, 4) {
		t.Fatalf("expected read at tail to fit")
	}
	if item.Contains(0x10fd, 4) {
		t.Fatalf("expected read crossing the end to be rejected")
	}
	if !item.IsReadable() {
		t.Fatalf("expected readable")
	}
}
