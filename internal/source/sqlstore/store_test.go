package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/pikpoint/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "source.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleProjects() []types.SourceProject {
	due := time.Date(2026, 3, 12, 17, 0, 0, 0, time.UTC)
	return []types.SourceProject{
		{
			ID:          "P2",
			Name:        "Taxes",
			Note:        "receipts are in the drawer",
			FolderPath:  "Home",
			ContextPath: "Office",
			Status:      types.StatusOnHold,
			DueDate:     &due,
			Tasks: []types.SourceTask{
				{ID: "t1", Name: "Gather receipts", Contexts: []string{"Home", "Errands"}},
				{ID: "t2", Name: "File", Completed: true},
			},
		},
		{ID: "P1", Name: "Misc", Status: types.StatusActive, SingleActionList: true},
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.ImportProjects(ctx, sampleProjects()))

	got, err := s.ExportProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleProjects(), got)

	// A second import replaces rather than appends.
	require.NoError(t, s.ImportProjects(ctx, sampleProjects()[1:]))
	got, err = s.ExportProjects(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P1", got[0].ID)
}

func TestImportRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.ImportProjects(ctx, []types.SourceProject{{Name: "no id"}})
	assert.ErrorContains(t, err, "has no id")

	err = s.ImportProjects(ctx, []types.SourceProject{{ID: "A"}, {ID: "A"}})
	assert.ErrorContains(t, err, "duplicate project id")

	err = s.ImportProjects(ctx, []types.SourceProject{
		{ID: "A", Tasks: []types.SourceTask{{ID: "x"}}},
		{ID: "B", Tasks: []types.SourceTask{{ID: "x"}}},
	})
	assert.ErrorContains(t, err, "duplicate task id")
}

func TestListProjectsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.ImportProjects(ctx, sampleProjects()))

	all, err := s.ListProjects(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "P2", all[0].ID, "import order is kept")
	assert.Empty(t, all[0].Tasks, "ListProjects does not load tasks")

	active, err := s.ListProjects(ctx, func(p *types.SourceProject) bool { return p.Status == types.StatusActive })
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "P1", active[0].ID)
}

func TestGetProjectAndTasks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.ImportProjects(ctx, sampleProjects()))

	p, err := s.GetProject(ctx, "P2")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Len(t, p.Tasks, 2)

	missing, err := s.GetProject(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	tasks, err := s.ListTasks(ctx, "P2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "Errands"}, tasks[0].Contexts)

	_, err = s.ListTasks(ctx, "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestSetters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.ImportProjects(ctx, sampleProjects()))

	require.NoError(t, s.SetTaskCompleted(ctx, "t1"))
	require.NoError(t, s.SetTaskCompleted(ctx, "t1"), "setters are idempotent")
	tasks, err := s.ListTasks(ctx, "P2")
	require.NoError(t, err)
	assert.True(t, tasks[0].Completed)

	require.NoError(t, s.SetProjectCompleted(ctx, "P2"))
	p, err := s.GetProject(ctx, "P2")
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.Equal(t, types.StatusActive, p.Status, "completing takes a project off hold")

	require.NoError(t, s.SetProjectActive(ctx, "P1"))
	require.NoError(t, s.SetProjectActive(ctx, "P1"))

	assert.ErrorContains(t, s.SetProjectActive(ctx, "nope"), "not found")
	assert.ErrorContains(t, s.SetProjectCompleted(ctx, "nope"), "not found")
	assert.ErrorContains(t, s.SetTaskCompleted(ctx, "nope"), "not found")
}

func TestInMemoryAndClose(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ImportProjects(ctx, sampleProjects()))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.ListProjects(ctx, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "x")
	assert.ErrorContains(t, err, "unknown source driver")

	_, err = Open(context.Background(), DriverMySQL, "")
	assert.ErrorContains(t, err, "needs a DSN")
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.True(t, isRetryableError(errString("dial tcp: connection refused")))
	assert.True(t, isRetryableError(errString("driver: bad connection")))
	assert.False(t, isRetryableError(errString("Error 1062: Duplicate entry")))
}

type errString string

func (e errString) Error() string { return string(e) }
