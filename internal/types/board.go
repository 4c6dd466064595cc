package types

import "time"

// BoardProject is a Kanban project on the board.
type BoardProject struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       *User  `json:"owner,omitempty"`
}

// Phase is one column of a board project's workflow.
type Phase struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index"`
	Limit       int    `json:"limit,omitempty"`
}

// User is a board user.
type User struct {
	ID       int64  `json:"id,omitempty"`
	UserName string `json:"user_name"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Tag is a board tag. Tags are identified by name within a pass.
type Tag struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// BoardTask is a checklist entry on a story. Its text is its identity for
// reconciliation; the ID only addresses it in API calls.
type BoardTask struct {
	ID         int64      `json:"id,omitempty"`
	Text       string     `json:"text"`
	Complete   bool       `json:"complete"`
	CreateTime *time.Time `json:"create_time,omitempty"`
	FinishTime *time.Time `json:"finish_time,omitempty"`
}

// Story is a card on the board, the projection of one source project.
type Story struct {
	ID       int64       `json:"id,omitempty"`
	Text     string      `json:"text"`
	Details  string      `json:"details,omitempty"`
	Size     string      `json:"size,omitempty"`
	Priority string      `json:"priority,omitempty"`
	Color    Color       `json:"color,omitempty"`
	Phase    Phase       `json:"phase"`
	Creator  *User       `json:"creator,omitempty"`
	Owner    *User       `json:"owner,omitempty"`
	Tags     []Tag       `json:"tags,omitempty"`
	Tasks    []BoardTask `json:"tasks,omitempty"`
}

// Clone returns a deep copy of s.
func (s Story) Clone() Story {
	out := s
	if s.Creator != nil {
		u := *s.Creator
		out.Creator = &u
	}
	if s.Owner != nil {
		u := *s.Owner
		out.Owner = &u
	}
	if s.Tags != nil {
		out.Tags = append([]Tag(nil), s.Tags...)
	}
	if s.Tasks != nil {
		out.Tasks = append([]BoardTask(nil), s.Tasks...)
	}
	return out
}

// WithText returns a copy of s with the given text.
func (s Story) WithText(text string) Story {
	out := s.Clone()
	out.Text = text
	return out
}

// WithDetails returns a copy of s with the given details.
func (s Story) WithDetails(details string) Story {
	out := s.Clone()
	out.Details = details
	return out
}

// WithColor returns a copy of s with the given color.
func (s Story) WithColor(c Color) Story {
	out := s.Clone()
	out.Color = c
	return out
}

// WithPhase returns a copy of s in the given phase.
func (s Story) WithPhase(p Phase) Story {
	out := s.Clone()
	out.Phase = p
	return out
}

// WithOwner returns a copy of s owned by u (nil clears the owner).
func (s Story) WithOwner(u *User) Story {
	out := s.Clone()
	if u == nil {
		out.Owner = nil
		return out
	}
	owner := *u
	out.Owner = &owner
	return out
}

// WithTags returns a copy of s carrying tags.
func (s Story) WithTags(tags []Tag) Story {
	out := s.Clone()
	out.Tags = append([]Tag(nil), tags...)
	return out
}

// WithTasks returns a copy of s carrying tasks.
func (s Story) WithTasks(tasks []BoardTask) Story {
	out := s.Clone()
	out.Tasks = append([]BoardTask(nil), tasks...)
	return out
}

// TagNames returns the names of the story's tags in board order.
func (s Story) TagNames() []string {
	names := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		names = append(names, t.Name)
	}
	return names
}

// OwnerName returns the owner's user name or "" when unowned.
func (s Story) OwnerName() string {
	if s.Owner == nil {
		return ""
	}
	return s.Owner.UserName
}
