// Package testutil contains helpers for tests that run the checker against
// scripts and fake servers in scratch directories.
package testutil

import (
	"os"
	"path/filepath"

	"github.com/shlevy/gnupg/pkg/must"
)

// Cleanuper is the part of testing.TB needed to undo filesystem changes.
type Cleanuper interface {
	Cleanup(func())
}

// TempDir creates a temporary directory for testing that will be removed
// after the test finishes. Symlinks in the returned path are resolved.
func TempDir(c Cleanuper) string {
	dir := must.OK1(os.MkdirTemp("", "asschktest"))
	dir = must.OK1(filepath.EvalSymlinks(dir))
	c.Cleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			println("failed to remove temp dir", dir)
		}
	})
	return dir
}

// InTempDir is like TempDir, but also changes into the directory, and changes
// back to the original working directory when the test finishes. It returns
// the temporary directory.
func InTempDir(c Cleanuper) string {
	tmpDir := TempDir(c)
	Chdir(c, tmpDir)
	return tmpDir
}

// Chdir changes into a directory, and restores the original working directory
// when a test finishes. It returns the directory for easier chaining.
func Chdir(c Cleanuper, dir string) string {
	oldWd := must.OK1(os.Getwd())
	must.OK(os.Chdir(dir))
	c.Cleanup(func() { must.OK(os.Chdir(oldWd)) })
	return dir
}

// Dir describes the layout of a directory. Its values may be a string for a
// regular file with mode 0600, a File, or a nested Dir.
type Dir map[string]any

// File describes a file with an explicit mode.
type File struct {
	Perm    os.FileMode
	Content string
}

// ApplyDir creates the given filesystem layout in the current directory.
func ApplyDir(dir Dir) {
	applyDir(dir, "")
}

func applyDir(dir Dir, prefix string) {
	for name, file := range dir {
		path := filepath.Join(prefix, name)
		switch file := file.(type) {
		case string:
			must.OK(os.WriteFile(path, []byte(file), 0600))
		case File:
			must.OK(os.WriteFile(path, []byte(file.Content), file.Perm))
			// WriteFile is subject to umask.
			must.OK(os.Chmod(path, file.Perm))
		case Dir:
			must.OK(os.MkdirAll(path, 0700))
			applyDir(file, path)
		default:
			panic("file is neither string, File nor Dir")
		}
	}
}
