package board

import (
	"time"

	"github.com/steveyegge/pikpoint/internal/types"
)

func timePtr(t *Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func userToDomain(u *User) *types.User {
	if u == nil {
		return nil
	}
	return &types.User{ID: u.ID, UserName: u.UserName, Name: u.Name, Email: u.Email}
}

func userFromDomain(u *types.User) *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, UserName: u.UserName, Name: u.Name, Email: u.Email}
}

func projectToDomain(p Project) types.BoardProject {
	return types.BoardProject{ID: p.ID, Name: p.Name, Description: p.Description, Owner: userToDomain(p.Owner)}
}

func phaseToDomain(p Phase) types.Phase {
	return types.Phase{ID: p.ID, Name: p.Name, Description: p.Description, Index: p.Index, Limit: p.Limit}
}

func taskToDomain(t Task) types.BoardTask {
	return types.BoardTask{
		ID:         t.ID,
		Text:       t.Text,
		Complete:   t.Status == StatusComplete,
		CreateTime: timePtr(t.CreateTime),
		FinishTime: timePtr(t.FinishTime),
	}
}

func taskFromDomain(t types.BoardTask) Task {
	status := StatusIncomplete
	if t.Complete {
		status = StatusComplete
	}
	return Task{ID: t.ID, Text: t.Text, Status: status}
}

func storyToDomain(s Story) types.Story {
	out := types.Story{
		ID:       s.ID,
		Text:     s.Text,
		Details:  s.Details,
		Size:     s.Size,
		Priority: s.Priority,
		Color:    types.Color(s.Color),
		Creator:  userToDomain(s.Creator),
		Owner:    userToDomain(s.Owner),
	}
	if s.Phase != nil {
		out.Phase = phaseToDomain(*s.Phase)
	}
	for _, t := range s.Tags {
		out.Tags = append(out.Tags, types.Tag{ID: t.ID, Name: t.Name})
	}
	for _, t := range s.Tasks {
		out.Tasks = append(out.Tasks, taskToDomain(t))
	}
	return out
}

// storyFromDomain builds the request body for create and update. Tags are
// never sent here; they have their own endpoint.
func storyFromDomain(s types.Story) Story {
	out := Story{
		Text:     s.Text,
		Details:  s.Details,
		Size:     s.Size,
		Priority: s.Priority,
		Color:    string(s.Color),
		Phase:    &Phase{ID: s.Phase.ID, Name: s.Phase.Name, Index: s.Phase.Index},
		Owner:    userFromDomain(s.Owner),
	}
	for _, t := range s.Tasks {
		out.Tasks = append(out.Tasks, taskFromDomain(t))
	}
	return out
}
