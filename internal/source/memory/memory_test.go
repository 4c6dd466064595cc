package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/pikpoint/internal/types"
)

func seed() *Store {
	return New(
		types.SourceProject{ID: "P1", Name: "Taxes", Status: types.StatusOnHold,
			Tasks: []types.SourceTask{{ID: "t1", Name: "Gather"}}},
		types.SourceProject{ID: "P2", Name: "Garden", Status: types.StatusDropped},
	)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := seed()

	got, err := s.GetProject(ctx, "P1")
	require.NoError(t, err)
	got.Tasks[0].Name = "changed"

	again, err := s.GetProject(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "Gather", again.Tasks[0].Name)

	missing, err := s.GetProject(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.ListTasks(ctx, "nope")
	assert.Error(t, err)
}

func TestListProjectsFilterKeepsOrder(t *testing.T) {
	s := seed()
	s.Put(types.SourceProject{ID: "P0", Name: "Later", Status: types.StatusActive})

	all, err := s.ListProjects(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"P1", "P2", "P0"}, []string{all[0].ID, all[1].ID, all[2].ID})

	live, err := s.ListProjects(context.Background(), func(p *types.SourceProject) bool {
		return p.Status != types.StatusDropped
	})
	require.NoError(t, err)
	assert.Len(t, live, 2)

	s.Remove("P2")
	s.Remove("P2")
	assert.Len(t, s.Snapshot(), 2)
}

func TestSettersAreIdempotent(t *testing.T) {
	ctx := context.Background()
	s := seed()

	require.NoError(t, s.SetProjectCompleted(ctx, "P1"))
	require.NoError(t, s.SetProjectCompleted(ctx, "P1"))
	p, _ := s.GetProject(ctx, "P1")
	assert.True(t, p.Completed)
	assert.Equal(t, types.StatusActive, p.Status, "completion takes a project off hold")

	require.NoError(t, s.SetProjectActive(ctx, "P2"))
	require.NoError(t, s.SetProjectActive(ctx, "P2"))
	require.NoError(t, s.SetTaskCompleted(ctx, "t1"))
	require.NoError(t, s.SetTaskCompleted(ctx, "t1"))

	assert.Equal(t, 3, s.WriteCount())
	assert.Equal(t, 6, s.SetterCalls())

	assert.Error(t, s.SetTaskCompleted(ctx, "missing"))
	assert.Error(t, s.SetProjectActive(ctx, "missing"))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := seed()
	_, err := s.ListProjects(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.SetProjectActive(ctx, "P1"), context.Canceled)
	assert.Equal(t, 0, s.SetterCalls())
}
