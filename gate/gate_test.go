package gate

import "testing"

func TestGate(t *testing.T) {
	g := New(map[Section]string{
		SectionGoals:  "5202",
		SectionWishes: "2025",
		SectionTodos:  "",
	})

	if g.Protected(SectionTodos) || !g.Unlocked(SectionTodos) {
		t.Fatalf("todos must be open without a secret")
	}
	if !g.Protected(SectionGoals) || g.Unlocked(SectionGoals) {
		t.Fatalf("goals must start locked")
	}

	for i := 0; i < 10; i++ {
		if g.Unlock(SectionGoals, "0000") {
			t.Fatalf("wrong secret unlocked goals")
		}
	}
	if !g.Unlock(SectionGoals, "5202") {
		t.Fatalf("right secret was rejected after wrong tries")
	}
	if !g.Unlocked(SectionGoals) {
		t.Fatalf("goals should stay unlocked")
	}
	if g.Unlocked(SectionWishes) {
		t.Fatalf("unlocking goals must not unlock wishes")
	}
	if g.Unlock(SectionWishes, "5202") {
		t.Fatalf("goals secret must not open wishes")
	}

	g.Close()
	if g.Unlocked(SectionGoals) {
		t.Fatalf("Close must lock every section again")
	}
}
