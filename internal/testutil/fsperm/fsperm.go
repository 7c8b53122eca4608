// Package fsperm holds test assertions for on-disk state permissions.
package fsperm

import (
	"io/fs"
	"os"
	"runtime"
	"testing"
)

// PrivateDir is the mode directories holding store data are created with.
const PrivateDir fs.FileMode = 0o700

// AssertMode fails t unless path exists, has the expected kind and its
// permission bits equal want. Windows has no POSIX bits and only the kind is
// checked there.
func AssertMode(t testing.TB, path string, wantDir bool, want fs.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if info.IsDir() != wantDir {
		t.Fatalf("%s: expected dir=%v, got dir=%v", path, wantDir, info.IsDir())
	}
	if runtime.GOOS == "windows" {
		return
	}
	if got := info.Mode().Perm(); got != want {
		t.Fatalf("%s: expected perm %04o, got %04o", path, want, got)
	}
}
