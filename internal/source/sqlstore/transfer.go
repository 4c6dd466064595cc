package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/steveyegge/pikpoint/internal/types"
)

// ImportProjects replaces the stored projects with projects, keeping their
// order. Everything happens in one transaction.
func (s *Store) ImportProjects(ctx context.Context, projects []types.SourceProject) error {
	seen := make(map[string]bool)
	for _, p := range projects {
		if p.ID == "" {
			return fmt.Errorf("project %q has no id", p.Name)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate project id %s", p.ID)
		}
		seen[p.ID] = true
		for _, t := range p.Tasks {
			if t.ID == "" {
				return fmt.Errorf("task %q in project %s has no id", t.Name, p.ID)
			}
			if seen["task:"+t.ID] {
				return fmt.Errorf("duplicate task id %s", t.ID)
			}
			seen["task:"+t.ID] = true
		}
	}

	err := s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if err := importTx(ctx, tx, projects); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("failed to import projects: %w", err)
	}
	return nil
}

func importTx(ctx context.Context, tx *sql.Tx, projects []types.SourceProject) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return err
	}
	for i, p := range projects {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, position, name, note, folder, context, status, completed, due_date, start_date, single_action)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, p.Name, p.Note, p.FolderPath, p.ContextPath, string(p.Status), boolInt(p.Completed),
			formatTime(p.DueDate), formatTime(p.StartDate), boolInt(p.SingleActionList))
		if err != nil {
			return fmt.Errorf("project %s: %w", p.ID, err)
		}
		for j, t := range p.Tasks {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO tasks (id, project_id, position, name, completed, contexts) VALUES (?, ?, ?, ?, ?, ?)`,
				t.ID, p.ID, j, t.Name, boolInt(t.Completed), strings.Join(t.Contexts, "\n"))
			if err != nil {
				return fmt.Errorf("task %s: %w", t.ID, err)
			}
		}
	}
	return nil
}

// ExportProjects returns every project with its tasks.
func (s *Store) ExportProjects(ctx context.Context) ([]types.SourceProject, error) {
	projects, err := s.ListProjects(ctx, nil)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Tasks, err = s.loadTasks(ctx, projects[i].ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}
