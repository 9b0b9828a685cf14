package codec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathOutsideWorkingDirectory is returned when a path escapes the folder
// context.
var ErrPathOutsideWorkingDirectory = errors.New("path outside working directory")

// ResolvePath turns a path argument into the path the plugin opens.
//
// Without folder context p is returned unchanged. Otherwise relative paths are
// joined to the working directory, and the cleaned result must lie inside it.
// When the path (or, for files not yet written, its parent directory) exists,
// its symlink-resolved form must lie inside the resolved working directory
// too. The returned path is the cleaned, unresolved one.
func ResolvePath(fc *FolderContext, p string) (string, error) {
	if fc == nil || fc.WorkingDirectory == "" {
		return p, nil
	}

	wd := filepath.Clean(fc.WorkingDirectory)
	resolved := p
	if !filepath.IsAbs(p) {
		resolved = wd + string(os.PathSeparator) + p
	}
	resolved = filepath.Clean(resolved)

	if !within(wd, resolved) {
		return "", ErrPathOutsideWorkingDirectory
	}

	realWD, err := filepath.EvalSymlinks(wd)
	if err != nil {
		// A missing working directory cannot hold symlinks.
		return resolved, nil
	}
	real, err := filepath.EvalSymlinks(resolved)
	if err != nil {
		dir, derr := filepath.EvalSymlinks(filepath.Dir(resolved))
		if derr != nil {
			return resolved, nil
		}
		real = filepath.Join(dir, filepath.Base(resolved))
	}
	if !within(realWD, real) {
		return "", ErrPathOutsideWorkingDirectory
	}
	return resolved, nil
}

// within reports whether path equals dir or lies below it. Both must be
// clean. "/tmp/project-evil" is not within "/tmp/project".
func within(dir, path string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, dir)
}
