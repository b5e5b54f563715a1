package queue

import (
	"testing"

	"github.com/mextic/rechargefleet/internal/domain"
)

func TestAuxiliaryQueue_AppendAndList(t *testing.T) {
	q := New(t.TempDir(), "gps")

	item, err := q.Append(domain.AuxiliaryItem{SIM: "6681000001", Amount: 10})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if item.ID == "" {
		t.Error("Append() should assign an ID")
	}

	items, err := q.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || items[0].SIM != "6681000001" {
		t.Errorf("List() = %+v", items)
	}
}

func TestAuxiliaryQueue_ListOnEmptyQueue(t *testing.T) {
	q := New(t.TempDir(), "gps")
	items, err := q.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("List() on fresh queue = %+v, want empty", items)
	}
}

func TestAuxiliaryQueue_RemoveByPredicate(t *testing.T) {
	q := New(t.TempDir(), "gps")
	a, _ := q.Append(domain.AuxiliaryItem{SIM: "A"})
	b, _ := q.Append(domain.AuxiliaryItem{SIM: "B"})

	removed, err := q.RemoveByPredicate(func(it domain.AuxiliaryItem) bool {
		return it.ID != a.ID
	})
	if err != nil {
		t.Fatalf("RemoveByPredicate() error = %v", err)
	}
	if len(removed) != 1 || removed[0].ID != a.ID {
		t.Errorf("removed = %+v, want [%v]", removed, a.ID)
	}

	remaining, _ := q.List()
	if len(remaining) != 1 || remaining[0].ID != b.ID {
		t.Errorf("remaining = %+v, want [%v]", remaining, b.ID)
	}
}

func TestAuxiliaryQueue_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	q1 := New(dir, "voz")
	if _, err := q1.Append(domain.AuxiliaryItem{SIM: "persisted"}); err != nil {
		t.Fatal(err)
	}

	q2 := New(dir, "voz")
	items, err := q2.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || items[0].SIM != "persisted" {
		t.Errorf("items = %+v, want one item reloaded from disk", items)
	}
}

func TestCrashMarker_SetReadClear(t *testing.T) {
	m := NewCrashMarker(t.TempDir(), "eliot")

	state, err := m.Read()
	if err != nil {
		t.Fatalf("Read() on fresh marker error = %v", err)
	}
	if state.WasProcessing {
		t.Error("fresh marker should read as not-processing")
	}

	snapshot := []domain.AuxiliaryItem{{SIM: "mid-cycle"}}
	if err := m.Set(snapshot, state.RecordedAt); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	state, err = m.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !state.WasProcessing || len(state.ItemsInProcess) != 1 {
		t.Errorf("state = %+v, want WasProcessing with one item", state)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	state, err = m.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if state.WasProcessing {
		t.Error("cleared marker should read as not-processing")
	}
}
