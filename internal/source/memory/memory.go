// Package memory implements an in-memory source of truth. It backs the engine
// tests and is the working set the file-based sources load into.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/steveyegge/pikpoint/internal/types"
)

// Store holds projects in insertion order. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	projects []types.SourceProject

	writes int
	calls  int
}

// New creates a store holding copies of the given projects.
func New(projects ...types.SourceProject) *Store {
	s := &Store{}
	for _, p := range projects {
		s.projects = append(s.projects, p.Clone())
	}
	return s
}

// Put inserts or replaces a project, keeping its position when it exists.
func (s *Store) Put(p types.SourceProject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == p.ID {
			s.projects[i] = p.Clone()
			return
		}
	}
	s.projects = append(s.projects, p.Clone())
}

// Remove deletes a project. Removing an unknown project is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			return
		}
	}
}

// Snapshot returns copies of all projects.
func (s *Store) Snapshot() []types.SourceProject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.SourceProject, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	return out
}

// WriteCount returns how many setter calls changed something.
func (s *Store) WriteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// SetterCalls returns how many times any setter was called, changed or not.
func (s *Store) SetterCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func (s *Store) ListProjects(ctx context.Context, filter types.ProjectFilter) ([]types.SourceProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.SourceProject
	for i := range s.projects {
		p := s.projects[i].Clone()
		if filter != nil && !filter(&p) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*types.SourceProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			p := s.projects[i].Clone()
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Store) ListTasks(ctx context.Context, projectID string) ([]types.SourceTask, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s not found", projectID)
	}
	return p.Tasks, nil
}

func (s *Store) SetProjectActive(ctx context.Context, id string) error {
	return s.updateProject(ctx, id, func(p *types.SourceProject) bool {
		if p.Status == types.StatusActive {
			return false
		}
		p.Status = types.StatusActive
		return true
	})
}

func (s *Store) SetProjectCompleted(ctx context.Context, id string) error {
	return s.updateProject(ctx, id, func(p *types.SourceProject) bool {
		if p.Completed {
			return false
		}
		p.Completed = true
		if p.Status == types.StatusOnHold {
			p.Status = types.StatusActive
		}
		return true
	})
}

func (s *Store) SetTaskCompleted(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for i := range s.projects {
		for j := range s.projects[i].Tasks {
			t := &s.projects[i].Tasks[j]
			if t.ID != taskID {
				continue
			}
			if !t.Completed {
				t.Completed = true
				s.writes++
			}
			return nil
		}
	}
	return fmt.Errorf("task %s not found", taskID)
}

func (s *Store) updateProject(ctx context.Context, id string, fn func(*types.SourceProject) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for i := range s.projects {
		if s.projects[i].ID == id {
			if fn(&s.projects[i]) {
				s.writes++
			}
			return nil
		}
	}
	return fmt.Errorf("project %s not found", id)
}
