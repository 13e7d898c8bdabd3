//go:build linux || darwin || freebsd

package pipeline

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// checkOutputDir verifies the directory is usable and, when minFree is set,
// that the filesystem holding it has at least minFree bytes available.
func checkOutputDir(path string, minFree uint64) error {
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("output directory %s: insufficient permissions: %w", path, err)
	}
	if minFree == 0 {
		return nil
	}
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return fmt.Errorf("statfs %s: %w", path, err)
	}
	free := uint64(st.Bavail) * uint64(st.Bsize)
	if free < minFree {
		return fmt.Errorf("%w on %s: %s available, %s required",
			ErrInsufficientSpace, path, humanize.IBytes(free), humanize.IBytes(minFree))
	}
	return nil
}
