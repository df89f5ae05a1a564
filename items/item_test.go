package items

import (
	"errors"
	"testing"
	"time"
)

func TestNewItem_RejectsEmptyText(t *testing.T) {
	_, err := NewItem("uid-1", Draft{Kind: KindTodo, Text: "   "})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "text" {
		t.Fatalf("expected field text, got %q", verr.Field)
	}
}

func TestNewItem_WishNeedsRequester(t *testing.T) {
	_, err := NewItem("uid-1", Draft{Kind: KindWish, Text: "Bike", RequesterName: " "})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "requesterName" {
		t.Fatalf("expected requesterName ValidationError, got %v", err)
	}

	it, err := NewItem("uid-1", Draft{Kind: KindWish, Text: " Bike ", RequesterName: " Anna "})
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if it.Text != "Bike" || it.RequesterName != "Anna" {
		t.Fatalf("expected trimmed fields, got %+v", it)
	}
	if it.Priority != 0 {
		t.Fatalf("wishes carry no priority, got %d", it.Priority)
	}
}

func TestNewItem_RequiresOwner(t *testing.T) {
	if _, err := NewItem("", Draft{Kind: KindTodo, Text: "x"}); err == nil {
		t.Fatalf("expected error without owner")
	}
}

func TestNewItem_CoercesPriority(t *testing.T) {
	tests := []struct {
		kind Kind
		in   int
		want int
	}{
		{KindTodo, 0, 3},
		{KindTodo, 6, 3},
		{KindTodo, -1, 3},
		{KindTodo, 1, 1},
		{KindTodo, 5, 5},
		{KindShopping, 0, 2},
		{KindShopping, 4, 2},
		{KindShopping, 3, 3},
		{KindGoal, 4, 0},
	}
	for _, tt := range tests {
		it, err := NewItem("uid-1", Draft{Kind: tt.kind, Text: "x", Priority: tt.in})
		if err != nil {
			t.Fatalf("NewItem(%s, %d): %v", tt.kind, tt.in, err)
		}
		if it.Priority != tt.want {
			t.Fatalf("NewItem(%s, %d): priority %d, want %d", tt.kind, tt.in, it.Priority, tt.want)
		}
	}
}

func TestNewItem_GoalCategory(t *testing.T) {
	it, err := NewItem("uid-1", Draft{Kind: KindGoal, Text: "Run a marathon"})
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if it.Category != DefaultCategory {
		t.Fatalf("expected default category, got %q", it.Category)
	}

	it, err = NewItem("uid-1", Draft{Kind: KindGoal, Text: "Get promoted", Category: "career"})
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if it.Category != CategoryCareer {
		t.Fatalf("expected career, got %q", it.Category)
	}

	if _, err := NewItem("uid-1", Draft{Kind: KindGoal, Text: "x", Category: "hobbies"}); err == nil {
		t.Fatalf("expected unknown category to be rejected")
	}
}

func TestCyclePriority_Wraps(t *testing.T) {
	for _, k := range []Kind{KindTodo, KindShopping} {
		lo, hi, _ := PriorityRange(k)
		if got := CyclePriority(k, hi); got != 1 {
			t.Fatalf("%s: cycle from max = %d, want 1", k, got)
		}
		for v := lo; v < hi; v++ {
			if got := CyclePriority(k, v); got != v+1 {
				t.Fatalf("%s: cycle(%d) = %d, want %d", k, v, got, v+1)
			}
		}
		// Cycling range-size times returns to the start.
		for start := lo; start <= hi; start++ {
			v := start
			for i := 0; i < hi-lo+1; i++ {
				v = CyclePriority(k, v)
			}
			if v != start {
				t.Fatalf("%s: %d full cycles ended at %d", k, start, v)
			}
		}
	}
	if got := CyclePriority(KindGoal, 2); got != 0 {
		t.Fatalf("goals have no priority, got %d", got)
	}
}

func TestPatch_Validate(t *testing.T) {
	p6 := 6
	if err := SetPriority(p6).Validate(KindTodo); err == nil {
		t.Fatalf("expected priority 6 to be rejected for todo")
	}
	if err := SetPriority(3).Validate(KindShopping); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SetPriority(1).Validate(KindWish); err == nil {
		t.Fatalf("expected priority to be rejected for wish")
	}
	empty := ""
	if err := (Patch{Text: &empty}).Validate(KindTodo); err == nil {
		t.Fatalf("expected empty text to be rejected")
	}
	travel := CategoryTravel
	if err := (Patch{Category: &travel}).Validate(KindGoal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Patch{Category: &travel}).Validate(KindTodo); err == nil {
		t.Fatalf("expected category on todo to be rejected")
	}
}

func TestApplyAndRestore(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	it := Item{ID: "a", Owner: "uid-1", Kind: KindTodo, Text: "Buy milk", Priority: 3, Created: created}

	got := it.Apply(SetDone(true)).Apply(SetPriority(4))
	if !got.Done || got.Priority != 4 {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.ID != "a" || got.Owner != "uid-1" || got.Kind != KindTodo || !got.Created.Equal(created) {
		t.Fatalf("immutable fields changed: %+v", got)
	}

	r := got.Restore()
	if r.ID != "" {
		t.Fatalf("expected cleared id, got %q", r.ID)
	}
	r.ID = got.ID
	if r != got {
		t.Fatalf("restore changed more than the id: %+v vs %+v", r, got)
	}
}
