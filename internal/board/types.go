package board

import (
	"strings"
	"time"
)

// TimeLayout is the board's timestamp format. Values carry no zone.
const TimeLayout = "2006-01-02T15:04:05"

// Task status values on the wire.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

// Time decodes board timestamps, ignoring fractional seconds and zones.
type Time struct{ time.Time }

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(TimeLayout) + `"`), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	if len(s) > len(TimeLayout) {
		s = s[:len(TimeLayout)]
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

type pageResponse[T any] struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
	Items      []T `json:"items"`
}

// User is a board user.
type User struct {
	ID       int64  `json:"id,omitempty"`
	UserName string `json:"userName,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Project is a board project.
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreateTime  *Time  `json:"createTime,omitempty"`
	Owner       *User  `json:"owner,omitempty"`
}

// Phase is one column of a project.
type Phase struct {
	ID          int64  `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index"`
	Limit       int    `json:"limit,omitempty"`
}

// Tag is a project-level label.
type Tag struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Task is a checklist item on a story.
type Task struct {
	ID         int64  `json:"id,omitempty"`
	Text       string `json:"text"`
	Status     string `json:"status"`
	CreateTime *Time  `json:"createTime,omitempty"`
	FinishTime *Time  `json:"finishTime,omitempty"`
	FinishedBy *User  `json:"finishedBy,omitempty"`
}

// Story is a card.
type Story struct {
	ID       int64  `json:"id,omitempty"`
	Text     string `json:"text"`
	Details  string `json:"details,omitempty"`
	Size     string `json:"size,omitempty"`
	Priority string `json:"priority,omitempty"`
	Color    string `json:"color,omitempty"`
	Phase    *Phase `json:"phase,omitempty"`
	Creator  *User  `json:"creator,omitempty"`
	Owner    *User  `json:"owner,omitempty"`
	Tags     []Tag  `json:"tags,omitempty"`
	Tasks    []Task `json:"tasks,omitempty"`
}
