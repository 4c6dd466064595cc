package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/pikpoint/internal/types"
)

func TestSelection(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	later := now.AddDate(0, 0, 5)
	earlier := now.AddDate(0, 0, -5)
	sel := Selection{
		SkipStatuses:          []types.ProjectStatus{types.StatusDropped},
		SkipSingleActionLists: true,
		StartBefore:           now,
	}
	filter := sel.Filter()

	tests := []struct {
		name    string
		project types.SourceProject
		reason  string
	}{
		{"active", types.SourceProject{Status: types.StatusActive}, ""},
		{"on hold", types.SourceProject{Status: types.StatusOnHold}, ""},
		{"dropped", types.SourceProject{Status: types.StatusDropped}, "status dropped"},
		{"action list", types.SourceProject{Status: types.StatusActive, SingleActionList: true}, "single action list"},
		{"deferred", types.SourceProject{Status: types.StatusActive, StartDate: &later}, "starts 2026-03-15"},
		{"started", types.SourceProject{Status: types.StatusActive, StartDate: &earlier}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reason, sel.Explain(&tt.project))
			assert.Equal(t, tt.reason == "", filter(&tt.project))
		})
	}

	open := Selection{}
	assert.True(t, open.Filter()(&types.SourceProject{Status: types.StatusDropped, StartDate: &later}))
}

func TestColors(t *testing.T) {
	pick, err := Colors("", []ColorRule{
		{ContextPrefix: "Work", Color: types.ColorBlue},
		{FolderPrefix: "Home", Color: types.ColorOrange},
		{ContextPrefix: "Errands", FolderPrefix: "Home", Color: types.ColorRed},
	})
	require.NoError(t, err)

	tests := []struct {
		name          string
		context, path string
		want          types.Color
	}{
		{"context prefix", "Work/Calls", "", types.ColorBlue},
		{"case insensitive", "work", "", types.ColorBlue},
		{"whole segment only", "Workshop", "", types.ColorGreen},
		{"folder prefix", "", "Home, Repairs", types.ColorOrange},
		{"first rule wins", "Errands", "Home", types.ColorOrange},
		{"default", "Phone", "Misc", types.ColorGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := types.SourceProject{ContextPath: tt.context, FolderPath: tt.path}
			assert.Equal(t, tt.want, pick(&p))
		})
	}
}

func TestColorsValidation(t *testing.T) {
	_, err := Colors("pink", nil)
	assert.ErrorContains(t, err, "unknown default color")

	_, err = Colors(types.ColorGrey, []ColorRule{{Color: "mauve"}})
	assert.ErrorContains(t, err, "color rule 1")
}
