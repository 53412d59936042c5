package hits

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/samber/lo"
)

// MoveResult reports the outcome of moving one file.
type MoveResult struct {
	Name        string
	Source      string
	Destination string
	// AlreadyMoved is set when the source is gone and the destination
	// exists, as left by an earlier run.
	AlreadyMoved bool
	Err          error
}

func (r MoveResult) OK() bool { return r.Err == nil }

// MoveFiles moves every named file from srcDir into destDir, creating
// destDir if needed. Each file is attempted independently. A file already
// moved by an earlier run counts as a success.
func MoveFiles(srcDir string, names []string, destDir string) []MoveResult {
	results := make([]MoveResult, len(names))
	mkErr := os.MkdirAll(destDir, 0755)
	for i, name := range names {
		res := MoveResult{
			Name:        name,
			Source:      filepath.Join(srcDir, name),
			Destination: filepath.Join(destDir, filepath.Base(name)),
		}
		switch {
		case mkErr != nil:
			res.Err = fmt.Errorf("creating %s: %w", destDir, mkErr)
		case alreadyMoved(res.Source, res.Destination):
			res.AlreadyMoved = true
		default:
			res.Err = moveFile(res.Source, res.Destination)
		}
		results[i] = res
	}
	return results
}

// FailedMoves returns the results that did not succeed.
func FailedMoves(results []MoveResult) []MoveResult {
	return lo.Filter(results, func(r MoveResult, _ int) bool { return !r.OK() })
}

func alreadyMoved(src, dst string) bool {
	if _, err := os.Stat(src); !errors.Is(err, fs.ErrNotExist) {
		return false
	}
	info, err := os.Stat(dst)
	return err == nil && !info.IsDir()
}

func moveFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}
	err = os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	// rename cannot cross filesystems
	if err := copyFile(src, dst, info.Mode()); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string, mode os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}
