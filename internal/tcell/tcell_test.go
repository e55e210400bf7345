package tcell

import (
	"testing"

	"github.com/chronon-db/chronon/internal/timeindex"
)

func e(t int64) timeindex.Entry { return timeindex.Entry{T: t} }

func TestSetAndAt(t *testing.T) {
	c := New[int](e(0), 1)
	c.Set(e(10), 2)
	c.Set(e(20), 3)

	cases := []struct {
		at   int64
		want int
		ok   bool
	}{
		{-1, 0, false},
		{0, 1, true},
		{5, 1, true},
		{10, 2, true},
		{15, 2, true},
		{20, 3, true},
		{100, 3, true},
	}
	for _, c2 := range cases {
		got, ok := c.At(c2.at)
		if ok != c2.ok || got != c2.want {
			t.Errorf("At(%d) = (%d, %v), want (%d, %v)", c2.at, got, ok, c2.want, c2.ok)
		}
	}
}

func TestLastBefore(t *testing.T) {
	c := New[string](e(5), "a")
	c.Set(e(10), "b")

	if v, ok := c.LastBefore(5); ok || v != "" {
		t.Errorf("LastBefore(5) = (%q, %v), want (\"\", false)", v, ok)
	}
	if v, ok := c.LastBefore(6); !ok || v != "a" {
		t.Errorf("LastBefore(6) = (%q, %v), want (\"a\", true)", v, ok)
	}
	if v, ok := c.LastBefore(11); !ok || v != "b" {
		t.Errorf("LastBefore(11) = (%q, %v), want (\"b\", true)", v, ok)
	}
}

func TestIterWindow(t *testing.T) {
	c := New[int](e(1), 10)
	c.Set(e(5), 20)
	c.Set(e(9), 30)

	got := c.IterWindow(2, 9)
	if len(got) != 1 || got[0].T != 5 || got[0].Val != 20 {
		t.Errorf("IterWindow(2,9) = %v, want [{5 20}]", got)
	}

	full := c.Iter()
	if len(full) != 3 {
		t.Fatalf("Iter() len = %d, want 3", len(full))
	}
}

func TestSetOutOfOrder(t *testing.T) {
	c := New[int](e(10), 1)
	c.Set(e(5), 2)

	if v, ok := c.At(5); !ok || v != 2 {
		t.Errorf("At(5) = (%d, %v), want (2, true)", v, ok)
	}
	if v, ok := c.At(10); !ok || v != 1 {
		t.Errorf("At(10) = (%d, %v), want (1, true)", v, ok)
	}
}
