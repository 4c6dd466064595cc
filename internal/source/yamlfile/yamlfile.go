// Package yamlfile keeps the source of truth in a single YAML document. The
// file is re-read whenever it changes on disk and rewritten atomically after
// every write-back.
package yamlfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/source/memory"
	"github.com/steveyegge/pikpoint/internal/types"
)

var _ reconcile.Source = (*File)(nil)

// Document is the on-disk layout.
type Document struct {
	Projects []types.SourceProject `yaml:"projects"`
}

// File is a reconcile.Source backed by a YAML file.
type File struct {
	path string

	mu      sync.Mutex
	store   *memory.Store
	modTime time.Time
	size    int64
}

// Open loads path. The file must exist; see Init.
func Open(path string) (*File, error) {
	f := &File{path: path}
	if err := f.reload(true); err != nil {
		return nil, err
	}
	return f, nil
}

// Init writes an empty document unless path already exists.
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return Save(path, nil)
}

// Path returns the file the source reads.
func (f *File) Path() string { return f.path }

// Load reads the projects stored at path.
func Load(path string) ([]types.SourceProject, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	seen := make(map[string]bool, len(doc.Projects))
	for _, p := range doc.Projects {
		if p.ID == "" {
			return nil, fmt.Errorf("%s: project %q has no id", path, p.Name)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%s: duplicate project id %s", path, p.ID)
		}
		seen[p.ID] = true
	}
	return doc.Projects, nil
}

// Save writes projects to path using a temp file and rename.
func Save(path string, projects []types.SourceProject) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := yaml.Marshal(Document{Projects: projects})
	if err != nil {
		return fmt.Errorf("failed to marshal projects: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace source file: %w", err)
	}
	return nil
}

// reload re-reads the file when it changed since the last read. Callers hold mu
// unless this is the initial load.
func (f *File) reload(force bool) error {
	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("source file %s not found (run `pk source init`)", f.path)
		}
		return fmt.Errorf("failed to stat source file: %w", err)
	}
	if !force && info.ModTime().Equal(f.modTime) && info.Size() == f.size {
		return nil
	}
	projects, err := Load(f.path)
	if err != nil {
		return err
	}
	f.store = memory.New(projects...)
	f.modTime = info.ModTime()
	f.size = info.Size()
	return nil
}

func (f *File) current() (*memory.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.reload(false); err != nil {
		return nil, err
	}
	return f.store, nil
}

func (f *File) ListProjects(ctx context.Context, filter types.ProjectFilter) ([]types.SourceProject, error) {
	s, err := f.current()
	if err != nil {
		return nil, err
	}
	return s.ListProjects(ctx, filter)
}

func (f *File) GetProject(ctx context.Context, id string) (*types.SourceProject, error) {
	s, err := f.current()
	if err != nil {
		return nil, err
	}
	return s.GetProject(ctx, id)
}

func (f *File) ListTasks(ctx context.Context, projectID string) ([]types.SourceTask, error) {
	s, err := f.current()
	if err != nil {
		return nil, err
	}
	return s.ListTasks(ctx, projectID)
}

func (f *File) SetProjectActive(ctx context.Context, id string) error {
	return f.mutate(func(s *memory.Store) error { return s.SetProjectActive(ctx, id) })
}

func (f *File) SetProjectCompleted(ctx context.Context, id string) error {
	return f.mutate(func(s *memory.Store) error { return s.SetProjectCompleted(ctx, id) })
}

func (f *File) SetTaskCompleted(ctx context.Context, taskID string) error {
	return f.mutate(func(s *memory.Store) error { return s.SetTaskCompleted(ctx, taskID) })
}

// mutate applies fn to the freshest copy of the file and saves only when fn
// changed something.
func (f *File) mutate(fn func(*memory.Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.reload(false); err != nil {
		return err
	}
	before := f.store.WriteCount()
	if err := fn(f.store); err != nil {
		return err
	}
	if f.store.WriteCount() == before {
		return nil
	}
	if err := Save(f.path, f.store.Snapshot()); err != nil {
		return err
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}
	f.modTime = info.ModTime()
	f.size = info.Size()
	return nil
}
