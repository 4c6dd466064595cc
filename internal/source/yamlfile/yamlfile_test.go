package yamlfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/pikpoint/internal/types"
)

const sample = `projects:
  - id: P1
    name: Taxes
    folder: Home
    status: on_hold
    due_date: 2026-03-12T17:00:00Z
    tasks:
      - id: t1
        name: Gather receipts
        contexts: [Home]
      - id: t2
        name: File
  - id: P2
    name: Misc
    status: active
    single_action_list: true
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	return path
}

func TestOpenAndRead(t *testing.T) {
	ctx := context.Background()
	f, err := Open(writeSample(t))
	require.NoError(t, err)

	projects, err := f.ListProjects(ctx, nil)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, types.StatusOnHold, projects[0].Status)
	assert.True(t, projects[1].SingleActionList)
	require.NotNil(t, projects[0].DueDate)
	assert.True(t, projects[0].DueDate.Equal(time.Date(2026, 3, 12, 17, 0, 0, 0, time.UTC)))

	tasks, err := f.ListTasks(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home"}, tasks[0].Contexts)

	missing, err := f.GetProject(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "not found")

	bad := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("projects:\n  - id: A\n  - id: A\n"), 0o600))
	_, err = Open(bad)
	assert.ErrorContains(t, err, "duplicate project id")

	noID := filepath.Join(dir, "noid.yaml")
	require.NoError(t, os.WriteFile(noID, []byte("projects:\n  - name: X\n"), 0o600))
	_, err = Open(noID)
	assert.ErrorContains(t, err, "has no id")
}

func TestWriteBackPersists(t *testing.T) {
	ctx := context.Background()
	path := writeSample(t)
	f, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, f.SetTaskCompleted(ctx, "t1"))
	require.NoError(t, f.SetProjectCompleted(ctx, "P1"))
	assert.ErrorContains(t, f.SetProjectActive(ctx, "nope"), "not found")

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, reloaded[0].Tasks[0].Completed)
	assert.True(t, reloaded[0].Completed)
	assert.Equal(t, types.StatusActive, reloaded[0].Status)
}

func TestNoOpSetterDoesNotRewrite(t *testing.T) {
	ctx := context.Background()
	path := writeSample(t)
	f, err := Open(path)
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SetProjectActive(ctx, "P2"))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestExternalEditsAreSeen(t *testing.T) {
	ctx := context.Background()
	path := writeSample(t)
	f, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, Save(path, []types.SourceProject{{ID: "P9", Name: "New", Status: types.StatusActive}}))
	// Give the new file a distinct mtime even on coarse filesystems.
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	projects, err := f.ListProjects(ctx, nil)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "P9", projects[0].ID)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "source.yaml")
	require.NoError(t, Init(path))
	assert.ErrorContains(t, Init(path), "already exists")

	f, err := Open(path)
	require.NoError(t, err)
	projects, err := f.ListProjects(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, projects)
}
