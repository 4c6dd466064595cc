//go:build unix || windows

package lockfile

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestTryAcquireExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "source.lock")
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := TryAcquire(path, Info{RunID: "run-1", Command: "sync --watch", StartedAt: started})
	if err != nil {
		t.Fatalf("first TryAcquire: %v", err)
	}

	_, err = TryAcquire(path, Info{RunID: "run-2"})
	if !errors.Is(err, ErrLockBusy) {
		t.Fatalf("second TryAcquire: err = %v, want ErrLockBusy", err)
	}
	var busy *BusyError
	if !errors.As(err, &busy) || busy.Holder == nil {
		t.Fatalf("err = %#v, want *BusyError with holder", err)
	}
	if busy.Holder.RunID != "run-1" || busy.Holder.Command != "sync --watch" || !busy.Holder.StartedAt.Equal(started) {
		t.Errorf("holder = %+v", busy.Holder)
	}
	if busy.Holder.PID == 0 {
		t.Error("holder PID not recorded")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	again, err := TryAcquire(path, Info{RunID: "run-3"})
	if err != nil {
		t.Fatalf("TryAcquire after release: %v", err)
	}
	defer again.Release()
	info, err := ReadInfo(again.Path())
	if err != nil || info.RunID != "run-3" {
		t.Errorf("ReadInfo = %+v, %v", info, err)
	}
}

func TestReadInfoEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")
	l, err := TryAcquire(path, Info{})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadInfo(path); err == nil {
		t.Error("released lock file should read as empty")
	}
}
