// Package fsdump writes diagnostic artifacts into a directory.
package fsdump

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Dir struct {
	directory string
}

// New creates dir if it does not exist yet, existing files are kept.
func New(dir string) (Dir, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return Dir{}, fmt.Errorf("create dump dir: %w", err)
	}
	return Dir{directory: dir}, nil
}

func (d Dir) Path(id string) string {
	// ids come from remote input, keep them inside the directory
	id = strings.NewReplacer("/", "_", `\`, "_", "..", "_").Replace(id)
	return filepath.Join(d.directory, id)
}

func (d Dir) Write(id string, contents string) error {
	return os.WriteFile(d.Path(id), []byte(contents), 0o644)
}
