package types

import "time"

// SourceProject is a project in the source-of-truth task manager.
type SourceProject struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Note        string        `json:"note,omitempty" yaml:"note,omitempty"`
	FolderPath  string        `json:"folder,omitempty" yaml:"folder,omitempty"`   // e.g. "Work, Clients"
	ContextPath string        `json:"context,omitempty" yaml:"context,omitempty"` // e.g. "Office/Calls"
	Status      ProjectStatus `json:"status" yaml:"status"`
	Completed   bool          `json:"completed,omitempty" yaml:"completed,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	StartDate   *time.Time    `json:"start_date,omitempty" yaml:"start_date,omitempty"`

	// SingleActionList marks a bag of unrelated actions rather than a real project.
	SingleActionList bool `json:"single_action_list,omitempty" yaml:"single_action_list,omitempty"`

	Tasks []SourceTask `json:"tasks,omitempty" yaml:"tasks,omitempty"`
}

// SourceTask is one action inside a source project.
type SourceTask struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Completed bool     `json:"completed,omitempty" yaml:"completed,omitempty"`
	Contexts  []string `json:"contexts,omitempty" yaml:"contexts,omitempty"`
}

// ProjectFilter selects the source projects that take part in a pass.
type ProjectFilter func(*SourceProject) bool

// Clone returns a deep copy of p.
func (p SourceProject) Clone() SourceProject {
	out := p
	if p.DueDate != nil {
		d := *p.DueDate
		out.DueDate = &d
	}
	if p.StartDate != nil {
		d := *p.StartDate
		out.StartDate = &d
	}
	out.Tasks = cloneSourceTasks(p.Tasks)
	return out
}

// WithStatus returns a copy of p with the given status.
func (p SourceProject) WithStatus(s ProjectStatus) SourceProject {
	out := p.Clone()
	out.Status = s
	return out
}

// WithCompleted returns a copy of p with the completed flag set to c.
func (p SourceProject) WithCompleted(c bool) SourceProject {
	out := p.Clone()
	out.Completed = c
	return out
}

// WithTasks returns a copy of p carrying tasks.
func (p SourceProject) WithTasks(tasks []SourceTask) SourceProject {
	out := p.Clone()
	out.Tasks = cloneSourceTasks(tasks)
	return out
}

// WithTaskCompleted returns a copy of p where every task with the given ID is completed.
func (p SourceProject) WithTaskCompleted(taskID string) SourceProject {
	out := p.Clone()
	for i := range out.Tasks {
		if out.Tasks[i].ID == taskID {
			out.Tasks[i].Completed = true
		}
	}
	return out
}

func cloneSourceTasks(tasks []SourceTask) []SourceTask {
	if tasks == nil {
		return nil
	}
	out := make([]SourceTask, len(tasks))
	for i, t := range tasks {
		out[i] = t
		if t.Contexts != nil {
			out[i].Contexts = append([]string(nil), t.Contexts...)
		}
	}
	return out
}
