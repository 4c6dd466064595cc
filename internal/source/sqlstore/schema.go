package sqlstore

import (
	"context"
	"fmt"
)

// Dates are stored as RFC 3339 text and contexts as newline-joined text so the
// same queries work unchanged on SQLite and MySQL.
var projectsTable = `
CREATE TABLE IF NOT EXISTS projects (
    id VARCHAR(191) NOT NULL PRIMARY KEY,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    note TEXT NOT NULL,
    folder TEXT NOT NULL,
    context TEXT NOT NULL,
    status VARCHAR(16) NOT NULL,
    completed INTEGER NOT NULL DEFAULT 0,
    due_date VARCHAR(40),
    start_date VARCHAR(40),
    single_action INTEGER NOT NULL DEFAULT 0
)`

var tasksTable = map[string]string{
	DriverSQLite: `
CREATE TABLE IF NOT EXISTS tasks (
    id VARCHAR(191) NOT NULL PRIMARY KEY,
    project_id VARCHAR(191) NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    completed INTEGER NOT NULL DEFAULT 0,
    contexts TEXT NOT NULL
)`,
	DriverMySQL: `
CREATE TABLE IF NOT EXISTS tasks (
    id VARCHAR(191) NOT NULL PRIMARY KEY,
    project_id VARCHAR(191) NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    completed INTEGER NOT NULL DEFAULT 0,
    contexts TEXT NOT NULL,
    KEY idx_tasks_project (project_id),
    CONSTRAINT fk_tasks_project FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE
)`,
}

var extraIndexes = map[string][]string{
	DriverSQLite: {`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`},
}

func (s *Store) initSchema(ctx context.Context) error {
	stmts := []string{projectsTable, tasksTable[s.driver]}
	stmts = append(stmts, extraIndexes[s.driver]...)
	for _, stmt := range stmts {
		err := s.withRetry(ctx, func() error {
			_, err := s.db.ExecContext(ctx, stmt)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
