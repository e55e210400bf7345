package tvec

import (
	"reflect"
	"testing"

	"github.com/chronon-db/chronon/internal/timeindex"
)

func at(t int64) timeindex.Entry { return timeindex.Entry{T: t} }

func TestPushPreservesSlotOrder(t *testing.T) {
	v := New[int]()
	v.Push(at(4), 12)
	v.Push(at(9), 3)
	v.Push(at(1), 2)

	got := v.Iter()
	want := []int{12, 3, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Iter() = %v, want %v", got, want)
	}
}

func TestIterWindowOrdersByTime(t *testing.T) {
	v := New[int]()
	v.Push(at(4), 12)
	v.Push(at(9), 3)
	v.Push(at(1), 2)

	got := v.IterWindow(0, 5)
	want := []int{2, 12}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IterWindow(0,5) = %v, want %v", got, want)
	}
}

func TestInsertRestampsSlot(t *testing.T) {
	v := New[int]()
	v.Push(at(4), 12) // slot 0
	v.Push(at(9), 3)  // slot 1
	i2 := v.Push(at(1), 2) // slot 2

	v.Insert(at(3), 19, i2)

	got := v.IterWindow(0, 5)
	want := []int{2, 19, 12}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IterWindow(0,5) after insert = %v, want %v", got, want)
	}
}

func TestInsertIterWindowT(t *testing.T) {
	v := New[string]()
	v.Push(at(4), "one")
	v.Push(at(9), "two")
	i2 := v.Push(at(1), "three")

	v.Insert(at(3), "four", i2)

	got := v.IterWindowT(0, 5)
	wantT := []int64{1, 3, 4}
	wantV := []string{"three", "four", "one"}
	if len(got) != 3 {
		t.Fatalf("IterWindowT(0,5) len = %d, want 3", len(got))
	}
	for i := range wantT {
		if got[i].T != wantT[i] || got[i].Val != wantV[i] {
			t.Errorf("IterWindowT(0,5)[%d] = (%d,%q), want (%d,%q)", i, got[i].T, got[i].Val, wantT[i], wantV[i])
		}
	}

	// From time 3 onwards the "three" value written at t=1 is no
	// longer visible; it was re-stamped to "four" at t=3.
	got2 := v.IterWindowT(3, 100)
	wantT2 := []int64{3, 4, 9}
	wantV2 := []string{"four", "one", "two"}
	if len(got2) != 3 {
		t.Fatalf("IterWindowT(3,100) len = %d, want 3", len(got2))
	}
	for i := range wantT2 {
		if got2[i].T != wantT2[i] || got2[i].Val != wantV2[i] {
			t.Errorf("IterWindowT(3,100)[%d] = (%d,%q), want (%d,%q)", i, got2[i].T, got2[i].Val, wantT2[i], wantV2[i])
		}
	}
}

func TestLenCountsAllVersions(t *testing.T) {
	v := New[string]()
	v.Push(at(4), "one")
	v.Push(at(9), "two")
	i2 := v.Push(at(1), "three")

	if v.Len() != 3 {
		t.Errorf("Len() = %d, want 3", v.Len())
	}

	v.Insert(at(19), "four", i2)
	if v.Len() != 4 {
		t.Errorf("Len() after insert = %d, want 4", v.Len())
	}
}

func TestInsertOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Insert on empty TVec should panic")
		}
	}()
	v := New[int]()
	v.Insert(at(1), 1, 0)
}
