package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/steveyegge/pikpoint/internal/source/yamlfile"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "s.yaml")
	if err := yamlfile.Init(yamlPath); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"yaml", Options{Driver: DriverYAML, Path: yamlPath}, false},
		{"default is yaml", Options{Path: yamlPath}, false},
		{"sqlite", Options{Driver: DriverSQLite, Path: filepath.Join(dir, "s.db")}, false},
		{"missing yaml", Options{Driver: DriverYAML, Path: filepath.Join(dir, "nope.yaml")}, true},
		{"unknown", Options{Driver: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Open(ctx, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer src.Close()
			if _, err := src.ListProjects(ctx, nil); err != nil {
				t.Errorf("ListProjects: %v", err)
			}
		})
	}
}

func TestOpenSQLRejectsYAML(t *testing.T) {
	if _, err := OpenSQL(context.Background(), Options{Driver: DriverYAML}); err == nil {
		t.Error("expected error for yaml driver")
	}
}
