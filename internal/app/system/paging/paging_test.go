package paging

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memberRow stands in for a directory row: keyset key is the folded
// full name, tie-broken by _id.
type memberRow struct {
	NameCI string
	ID     primitive.ObjectID
}

func TestLimitPlusOne(t *testing.T) {
	if got := LimitPlusOne(); got != int64(PageSize+1) {
		t.Errorf("LimitPlusOne() = %d, want %d", got, PageSize+1)
	}
}

func TestConfigureKeyset(t *testing.T) {
	tests := []struct {
		name      string
		before    string
		after     string
		wantDir   Direction
		wantOrder int
	}{
		{"first page", "", "", Forward, 1},
		{"after cursor pages forward", "", "c1", Forward, 1},
		{"before cursor pages backward", "c1", "", Backward, -1},
		{"before wins when both are set", "c1", "c2", Backward, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConfigureKeyset(tt.before, tt.after)
			if cfg.Direction != tt.wantDir {
				t.Errorf("Direction = %v, want %v", cfg.Direction, tt.wantDir)
			}
			if cfg.SortOrder != tt.wantOrder {
				t.Errorf("SortOrder = %d, want %d", cfg.SortOrder, tt.wantOrder)
			}
		})
	}
}

func TestTrimPage(t *testing.T) {
	page := func(n int) []memberRow {
		rows := make([]memberRow, n)
		for i := range rows {
			rows[i] = memberRow{NameCI: "member", ID: primitive.NewObjectID()}
		}
		return rows
	}

	tests := []struct {
		name     string
		rows     []memberRow
		before   string
		after    string
		wantLen  int
		wantPrev bool
		wantNext bool
	}{
		{"empty directory", page(0), "", "", 0, false, false},
		{"short first page", page(3), "", "", 3, false, false},
		{"full first page with lookahead row", page(PageSize + 1), "", "", PageSize, false, true},
		{"forward page with more ahead", page(PageSize + 1), "", "c", PageSize, true, true},
		{"last forward page", page(3), "", "c", 3, true, false},
		{"backward page with more behind", page(PageSize + 1), "c", "", PageSize, true, true},
		{"backward page reaching the start", page(3), "c", "", 3, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := tt.rows
			res := TrimPage(&rows, tt.before, tt.after)
			if len(rows) != tt.wantLen {
				t.Errorf("rows len = %d, want %d", len(rows), tt.wantLen)
			}
			if res.HasPrev != tt.wantPrev || res.HasNext != tt.wantNext {
				t.Errorf("Result = {HasPrev:%v HasNext:%v}, want {%v %v}",
					res.HasPrev, res.HasNext, tt.wantPrev, tt.wantNext)
			}
		})
	}
}

func TestComputeRange(t *testing.T) {
	tests := []struct {
		name  string
		start int
		shown int
		want  Range
	}{
		{"no results", 1, 0, Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}},
		{"full first page", 1, PageSize, Range{Start: 1, End: PageSize, PrevStart: 1, NextStart: PageSize + 1}},
		{"partial first page", 1, 10, Range{Start: 1, End: 10, PrevStart: 1, NextStart: 11}},
		{"second page", PageSize + 1, PageSize, Range{Start: PageSize + 1, End: PageSize * 2, PrevStart: 1, NextStart: PageSize*2 + 1}},
		{"deep partial page", 101, 50, Range{Start: 101, End: 150, PrevStart: 51, NextStart: 151}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeRange(tt.start, tt.shown); got != tt.want {
				t.Errorf("ComputeRange(%d, %d) = %+v, want %+v", tt.start, tt.shown, got, tt.want)
			}
		})
	}
}

func TestReverse(t *testing.T) {
	rows := []memberRow{
		{NameCI: "ana"},
		{NameCI: "ben"},
		{NameCI: "cal"},
		{NameCI: "dee"},
	}
	Reverse(rows)

	want := []string{"dee", "cal", "ben", "ana"}
	for i, row := range rows {
		if row.NameCI != want[i] {
			t.Fatalf("Reverse() order = %v, want %v", rows, want)
		}
	}

	var empty []memberRow
	Reverse(empty)

	one := []memberRow{{NameCI: "solo"}}
	Reverse(one)
	if one[0].NameCI != "solo" {
		t.Errorf("Reverse() on single row changed it: %v", one)
	}
}

func TestBuildCursors(t *testing.T) {
	key := func(r memberRow) string { return r.NameCI }
	id := func(r memberRow) primitive.ObjectID { return r.ID }

	t.Run("empty page has no cursors", func(t *testing.T) {
		prev, next := BuildCursors(nil, key, id)
		if prev != "" || next != "" {
			t.Errorf("BuildCursors(nil) = (%q, %q), want empty pair", prev, next)
		}
	})

	t.Run("single row shares both cursors", func(t *testing.T) {
		rows := []memberRow{{NameCI: "ana", ID: primitive.NewObjectID()}}
		prev, next := BuildCursors(rows, key, id)
		if prev == "" || prev != next {
			t.Errorf("BuildCursors(single) = (%q, %q), want matching non-empty cursors", prev, next)
		}
	})

	t.Run("cursors point at the page edges", func(t *testing.T) {
		rows := []memberRow{
			{NameCI: "ana", ID: primitive.NewObjectID()},
			{NameCI: "ben", ID: primitive.NewObjectID()},
			{NameCI: "cal", ID: primitive.NewObjectID()},
		}
		prev, next := BuildCursors(rows, key, id)
		if prev == "" || next == "" || prev == next {
			t.Errorf("BuildCursors(page) = (%q, %q), want distinct non-empty cursors", prev, next)
		}
	})
}
