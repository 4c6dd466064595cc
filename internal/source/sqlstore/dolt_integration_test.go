//go:build integration

package sqlstore

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/dolt"

	"github.com/steveyegge/pikpoint/internal/types"
)

// testcontainers panics when docker is missing, so probe first.
func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

func TestDoltServerSource(t *testing.T) {
	if !dockerAvailable() {
		t.Skip("docker not available")
	}
	ctx := context.Background()

	container, err := dolt.Run(ctx, "dolthub/dolt-sql-server:1.43.0",
		dolt.WithDatabase("pikpoint"),
		dolt.WithUsername("pk"),
		dolt.WithPassword("pk"),
	)
	if err != nil {
		t.Skipf("failed to start dolt container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	s, err := Open(ctx, DriverMySQL, dsn)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ImportProjects(ctx, sampleProjects()))
	require.NoError(t, s.SetProjectCompleted(ctx, "P2"))
	require.NoError(t, s.SetProjectCompleted(ctx, "P2"))

	got, err := s.ExportProjects(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Completed)
	assert.Equal(t, types.StatusActive, got[0].Status)
	assert.Equal(t, []string{"Home", "Errands"}, got[0].Tasks[0].Contexts)
}
