//go:build !unix && !windows

package lockfile

import "os"

// No advisory locking here (js/wasm, plan9); passes are not serialized.
func flockExclusiveNonBlock(f *os.File) error { return nil }

func flockUnlock(f *os.File) error { return nil }
