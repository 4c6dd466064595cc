package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/pikpoint/internal/types"
)

const projectColumns = `id, name, note, folder, context, status, completed, due_date, start_date, single_action`

func scanProject(row interface{ Scan(...any) error }) (types.SourceProject, error) {
	var (
		p              types.SourceProject
		status         string
		completed      int
		singleAction   int
		dueDate, start sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Note, &p.FolderPath, &p.ContextPath, &status,
		&completed, &dueDate, &start, &singleAction)
	if err != nil {
		return p, err
	}
	p.Status = types.ProjectStatus(status)
	p.Completed = completed != 0
	p.SingleActionList = singleAction != 0
	if p.DueDate, err = parseTime(dueDate); err != nil {
		return p, fmt.Errorf("project %s: due date: %w", p.ID, err)
	}
	if p.StartDate, err = parseTime(start); err != nil {
		return p, fmt.Errorf("project %s: start date: %w", p.ID, err)
	}
	return p, nil
}

func parseTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ListProjects returns projects in position order. Tasks are not loaded.
func (s *Store) ListProjects(ctx context.Context, filter types.ProjectFilter) ([]types.SourceProject, error) {
	var out []types.SourceProject
	err := s.withRetry(ctx, func() error {
		out = nil
		rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY position, id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			if filter != nil && !filter(&p) {
				continue
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

// GetProject returns the project with its tasks, or nil if it doesn't exist.
func (s *Store) GetProject(ctx context.Context, id string) (*types.SourceProject, error) {
	var p types.SourceProject
	err := s.withRetry(ctx, func() error {
		var err error
		p, err = scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	if p.Tasks, err = s.loadTasks(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListTasks returns the ordered tasks of an existing project.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]types.SourceTask, error) {
	var n int
	err := s.withRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, projectID).Scan(&n)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up project %s: %w", projectID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("project %s not found", projectID)
	}
	return s.loadTasks(ctx, projectID)
}

func (s *Store) loadTasks(ctx context.Context, projectID string) ([]types.SourceTask, error) {
	var out []types.SourceTask
	err := s.withRetry(ctx, func() error {
		out = nil
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, name, completed, contexts FROM tasks WHERE project_id = ? ORDER BY position, id`, projectID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				t         types.SourceTask
				completed int
				contexts  string
			)
			if err := rows.Scan(&t.ID, &t.Name, &completed, &contexts); err != nil {
				return err
			}
			t.Completed = completed != 0
			if contexts != "" {
				t.Contexts = strings.Split(contexts, "\n")
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of %s: %w", projectID, err)
	}
	return out, nil
}

// SetProjectActive puts a project back to active.
func (s *Store) SetProjectActive(ctx context.Context, id string) error {
	return s.exec(ctx, "project", id, `UPDATE projects SET status = ? WHERE id = ?`, string(types.StatusActive), id)
}

// SetProjectCompleted completes a project and takes it off hold.
func (s *Store) SetProjectCompleted(ctx context.Context, id string) error {
	return s.exec(ctx, "project", id,
		`UPDATE projects SET completed = 1, status = CASE WHEN status = ? THEN ? ELSE status END WHERE id = ?`,
		string(types.StatusOnHold), string(types.StatusActive), id)
}

func (s *Store) SetTaskCompleted(ctx context.Context, taskID string) error {
	return s.exec(ctx, "task", taskID, `UPDATE tasks SET completed = 1 WHERE id = ?`, taskID)
}

// exec runs an idempotent update and reports a missing row as an error.
// Existence is checked separately since MySQL reports zero affected rows for
// an update that changes nothing.
func (s *Store) exec(ctx context.Context, kind, id, query string, args ...any) error {
	table := kind + "s"
	err := s.withRetry(ctx, func() error {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return errNotFound
		}
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("%s %s not found", kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", kind, id, err)
	}
	return nil
}

var errNotFound = errors.New("not found")
