package reconcile

import (
	"slices"
	"testing"

	"github.com/steveyegge/pikpoint/internal/types"
)

func src(name string, completed bool) types.SourceTask {
	return types.SourceTask{ID: "t-" + name, Name: name, Completed: completed}
}

func brd(id int64, text string, complete bool) types.BoardTask {
	return types.BoardTask{ID: id, Text: text, Complete: complete}
}

func texts(tasks []types.BoardTask) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Text)
	}
	return out
}

func TestDedupFirstWins(t *testing.T) {
	got := DedupFirstWins([]types.SourceTask{src("A", false), src("A", true), src("B", false)})
	if len(got) != 2 {
		t.Fatalf("got %d tasks, want 2", len(got))
	}
	if got[0].Name != "A" || got[0].Completed {
		t.Errorf("first task = %+v, want incomplete A", got[0])
	}
	if got[1].Name != "B" {
		t.Errorf("second task = %q, want B", got[1].Name)
	}
}

func TestPlanTasksDedupSourceNames(t *testing.T) {
	plan := planTasks([]types.SourceTask{src("A", false), src("A", true), src("B", false)}, nil)
	if got := plan.desiredTexts(); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("desired = %v, want [A B]", got)
	}
	for _, d := range plan.Desired {
		if d.Complete {
			t.Errorf("%s should be incomplete", d.Text)
		}
	}
}

func TestPlanTasksCompletionTable(t *testing.T) {
	source := []types.SourceTask{
		src("create", false),
		src("keep", false),
		src("board-done", false),
		src("source-done", true),
		src("both-done", true),
		src("gone", true),
	}
	board := []types.BoardTask{
		brd(1, "keep", false),
		brd(2, "board-done", true),
		brd(3, "source-done", false),
		brd(4, "both-done", true),
		brd(5, "stray", false),
	}
	plan := planTasks(source, board)

	if got := plan.desiredTexts(); !slices.Equal(got, []string{"create", "keep", "board-done", "source-done"}) {
		t.Errorf("desired = %v", got)
	}
	if got := texts(plan.Delete); !slices.Equal(got, []string{"both-done", "stray"}) {
		t.Errorf("deleted = %v, want [both-done stray]", got)
	}
	if got := texts(plan.Complete); !slices.Equal(got, []string{"source-done"}) {
		t.Errorf("completed on board = %v", got)
	}
	if len(plan.WriteBack) != 1 || plan.WriteBack[0].Name != "board-done" {
		t.Errorf("write-backs = %+v, want board-done", plan.WriteBack)
	}
	for _, d := range plan.Desired {
		wantComplete := d.Text == "board-done" || d.Text == "source-done"
		if d.Complete != wantComplete {
			t.Errorf("%s complete = %v, want %v", d.Text, d.Complete, wantComplete)
		}
	}
}

func TestPlanTasksBoardDuplicates(t *testing.T) {
	plan := planTasks(
		[]types.SourceTask{src("X", false)},
		[]types.BoardTask{brd(1, "X", false), brd(2, "X", false)},
	)
	if len(plan.Delete) != 1 || plan.Delete[0].ID != 2 {
		t.Errorf("deleted = %+v, want only the second X", plan.Delete)
	}
	if !plan.Unchanged {
		t.Error("order should be unchanged")
	}
}

func TestPlanTasksOrder(t *testing.T) {
	tests := []struct {
		name      string
		source    []string
		board     []string
		unchanged bool
	}{
		{"same", []string{"X", "Y"}, []string{"X", "Y"}, true},
		{"swapped", []string{"Y", "X"}, []string{"X", "Y"}, false},
		{"new first", []string{"N", "X", "Y"}, []string{"X", "Y"}, true},
		{"new in the middle", []string{"X", "N", "Y"}, []string{"X", "Y"}, false},
		{"new last", []string{"X", "Y", "N"}, []string{"X", "Y"}, false},
		{"deletion keeps order", []string{"X", "Z"}, []string{"X", "Y", "Z"}, true},
		{"everything gone", nil, []string{"X", "Y"}, true},
		{"nothing at all", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var source []types.SourceTask
			for _, s := range tt.source {
				source = append(source, src(s, false))
			}
			var board []types.BoardTask
			for i, b := range tt.board {
				board = append(board, brd(int64(i+1), b, false))
			}
			plan := planTasks(source, board)
			if plan.Unchanged != tt.unchanged {
				t.Errorf("Unchanged = %v, want %v", plan.Unchanged, tt.unchanged)
			}
			if !slices.Equal(plan.desiredTexts(), tt.source) && len(tt.source) > 0 {
				t.Errorf("desired = %v, want %v", plan.desiredTexts(), tt.source)
			}
		})
	}
}

func TestInitialTasksSkipCompleted(t *testing.T) {
	got := initialTasks([]types.SourceTask{src("A", false), src("B", true), src("C", false)})
	if !slices.Equal(texts(got), []string{"A", "C"}) {
		t.Errorf("initial tasks = %v, want [A C]", texts(got))
	}
}
