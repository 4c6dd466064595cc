package types

import (
	"testing"
	"time"
)

func TestParseProjectStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected ProjectStatus
		wantErr  bool
	}{
		{"active", StatusActive, false},
		{"", StatusActive, false},
		{"on-hold", StatusOnHold, false},
		{"on_hold", StatusOnHold, false},
		{"OnHold", StatusOnHold, false},
		{"dropped", StatusDropped, false},
		{"done", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProjectStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProjectStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseProjectStatus(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	if c, err := ParseColor("Gray"); err != nil || c != ColorGrey {
		t.Errorf("ParseColor(Gray) = %q, %v; want grey", c, err)
	}
	if c, err := ParseColor(" teal "); err != nil || c != ColorTeal {
		t.Errorf("ParseColor(teal) = %q, %v", c, err)
	}
	if _, err := ParseColor("magenta"); err == nil {
		t.Error("expected error for magenta")
	}
	if len(Palette()) != 8 {
		t.Errorf("palette has %d colors, want 8", len(Palette()))
	}
}

func TestStoryBuildersDoNotAlias(t *testing.T) {
	orig := Story{
		ID:    7,
		Text:  "a",
		Owner: &User{UserName: "ann"},
		Tags:  []Tag{{ID: 1, Name: "home"}},
		Tasks: []BoardTask{{ID: 2, Text: "x"}},
	}

	changed := orig.WithText("b").WithOwner(&User{UserName: "bob"})
	changed.Tags[0].Name = "work"
	changed.Tasks[0].Complete = true

	if orig.Text != "a" {
		t.Errorf("orig.Text = %q, want a", orig.Text)
	}
	if orig.OwnerName() != "ann" {
		t.Errorf("orig owner = %q, want ann", orig.OwnerName())
	}
	if orig.Tags[0].Name != "home" {
		t.Errorf("orig tag mutated to %q", orig.Tags[0].Name)
	}
	if orig.Tasks[0].Complete {
		t.Error("orig task mutated")
	}
	if changed.OwnerName() != "bob" {
		t.Errorf("changed owner = %q, want bob", changed.OwnerName())
	}
}

func TestSourceProjectBuilders(t *testing.T) {
	due := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	p := SourceProject{
		ID:      "P1",
		Status:  StatusOnHold,
		DueDate: &due,
		Tasks:   []SourceTask{{ID: "t1", Name: "A", Contexts: []string{"Home"}}},
	}

	active := p.WithStatus(StatusActive)
	if p.Status != StatusOnHold || active.Status != StatusActive {
		t.Errorf("WithStatus: orig %q, copy %q", p.Status, active.Status)
	}

	done := p.WithTaskCompleted("t1")
	if p.Tasks[0].Completed {
		t.Error("WithTaskCompleted mutated the receiver")
	}
	if !done.Tasks[0].Completed {
		t.Error("WithTaskCompleted did not complete the task")
	}

	done.Tasks[0].Contexts[0] = "Work"
	if p.Tasks[0].Contexts[0] != "Home" {
		t.Error("task contexts alias the receiver")
	}
	*done.DueDate = due.AddDate(1, 0, 0)
	if !p.DueDate.Equal(due) {
		t.Error("due date aliases the receiver")
	}
}
