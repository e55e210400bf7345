package layers

import "testing"

func TestMultipleNormalizes(t *testing.T) {
	t.Run("empty normalizes to None", func(t *testing.T) {
		l := Multiple(nil)
		if l.Kind() != KindNone {
			t.Errorf("Kind() = %v, want KindNone", l.Kind())
		}
	})

	t.Run("singleton normalizes to One", func(t *testing.T) {
		l := Multiple([]ID{5})
		if l.Kind() != KindOne {
			t.Errorf("Kind() = %v, want KindOne", l.Kind())
		}
		id, ok := l.OneID()
		if !ok || id != 5 {
			t.Errorf("OneID() = (%d, %v), want (5, true)", id, ok)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		l := Multiple([]ID{1, 1, 2, 2, 3})
		if l.Kind() != KindMultiple {
			t.Fatalf("Kind() = %v, want KindMultiple", l.Kind())
		}
		if got := l.IDs(); len(got) != 3 {
			t.Errorf("IDs() = %v, want 3 distinct ids", got)
		}
	})
}

func TestContains(t *testing.T) {
	all := func(ID) bool { return true }

	cases := []struct {
		name string
		l    LayerIds
		id   ID
		want bool
	}{
		{"none", None(), 1, false},
		{"all", All(), 1, true},
		{"one match", One(1), 1, true},
		{"one mismatch", One(1), 2, false},
		{"multiple match", Multiple([]ID{1, 2, 3}), 2, true},
		{"multiple mismatch", Multiple([]ID{1, 2, 3}), 4, false},
	}
	for _, c := range cases {
		if got := c.l.Contains(c.id, all); got != c.want {
			t.Errorf("%s: Contains(%d) = %v, want %v", c.name, c.id, got, c.want)
		}
	}
}

func TestIntersect(t *testing.T) {
	cases := []struct {
		name       string
		a, b       LayerIds
		wantKind   Kind
		wantOne    ID
		wantMulti  []ID
	}{
		{"none with all", None(), All(), KindNone, 0, nil},
		{"all with one", All(), One(5), KindOne, 5, nil},
		{"one with one match", One(5), One(5), KindOne, 5, nil},
		{"one with one mismatch", One(5), One(6), KindNone, 0, nil},
		{"multiple with multiple", Multiple([]ID{1, 2, 3}), Multiple([]ID{2, 3, 4}), KindMultiple, 0, []ID{2, 3}},
		{"multiple down to one", Multiple([]ID{1, 2, 3}), Multiple([]ID{2, 9}), KindOne, 2, nil},
	}

	for _, c := range cases {
		got := c.a.Intersect(c.b)
		if got.Kind() != c.wantKind {
			t.Errorf("%s: Kind() = %v, want %v", c.name, got.Kind(), c.wantKind)
			continue
		}
		if c.wantKind == KindOne {
			id, _ := got.OneID()
			if id != c.wantOne {
				t.Errorf("%s: OneID() = %d, want %d", c.name, id, c.wantOne)
			}
		}
		if c.wantKind == KindMultiple {
			ids := got.IDs()
			if len(ids) != len(c.wantMulti) {
				t.Errorf("%s: IDs() = %v, want %v", c.name, ids, c.wantMulti)
				continue
			}
			for i := range ids {
				if ids[i] != c.wantMulti[i] {
					t.Errorf("%s: IDs()[%d] = %d, want %d", c.name, i, ids[i], c.wantMulti[i])
				}
			}
		}
	}
}
