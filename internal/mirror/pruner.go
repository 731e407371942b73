package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// pruneFrom removes replica entries whose name is absent from source.
// It only looks one level deep: surviving subdirectories are pruned by
// their own sync pass through copyInto.
func (s *Synchronizer) pruneFrom(source, replica string, st *Stats) error {
	entries, err := os.ReadDir(replica)
	if err != nil {
		return fmt.Errorf("list replica %q: %w", replica, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(source, entry.Name())
		_, err := os.Lstat(srcPath)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %q: %w", srcPath, err)
		}

		dstPath := filepath.Join(replica, entry.Name())
		if entry.IsDir() {
			if err := os.RemoveAll(dstPath); err != nil {
				return fmt.Errorf("remove folder %q: %w", dstPath, err)
			}
			st.FoldersRemoved++
			s.record(Event{Kind: EventRemovedFolder, Path: dstPath})
		} else {
			if err := os.Remove(dstPath); err != nil {
				return fmt.Errorf("remove file %q: %w", dstPath, err)
			}
			st.FilesRemoved++
			s.record(Event{Kind: EventRemovedFile, Path: dstPath})
		}
	}
	return nil
}
