package mirror

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// copyInto copies new and changed files from source's top level into
// replica and recurses into subdirectories through the full sync
// decision, so nested deletions are handled too.
func (s *Synchronizer) copyInto(source, replica string, st *Stats) error {
	entries, err := os.ReadDir(source)
	if err != nil {
		return fmt.Errorf("list source %q: %w", source, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(source, entry.Name())
		dstPath := filepath.Join(replica, entry.Name())

		switch {
		case entry.IsDir():
			if err := s.sync(srcPath, dstPath, st); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := s.copyFileEntry(entry, srcPath, dstPath, st); err != nil {
				return err
			}
		default:
			// symlinks, sockets, devices: out of scope, never fatal
			s.record(Event{Kind: EventSkipped, Path: srcPath})
		}
	}
	return nil
}

func (s *Synchronizer) copyFileEntry(entry fs.DirEntry, srcPath, dstPath string, st *Stats) error {
	srcInfo, err := entry.Info()
	if err != nil {
		return fmt.Errorf("stat %q: %w", srcPath, err)
	}

	dstInfo, err := os.Stat(dstPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %q: %w", dstPath, err)
	}

	// a directory squatting on a file path is replaced outright
	if err == nil && dstInfo.IsDir() {
		if err := os.RemoveAll(dstPath); err != nil {
			return fmt.Errorf("remove folder %q: %w", dstPath, err)
		}
		st.FoldersRemoved++
		s.record(Event{Kind: EventRemovedFolder, Path: dstPath})
		err = fs.ErrNotExist
	}

	if errors.Is(err, fs.ErrNotExist) {
		n, err := copyFile(srcPath, dstPath, srcInfo)
		if err != nil {
			return err
		}
		st.FilesCopied++
		st.BytesCopied += n
		s.record(Event{Kind: EventCopiedNew, Path: dstPath, From: srcPath, Size: n})
		return nil
	}

	// Copies preserve the source mtime, so equal mtimes mean the
	// replica file came from this source file. Unequal mtimes in
	// either direction are only worth a copy when the content really
	// differs; a touch-only change is never copied.
	if srcInfo.ModTime().Equal(dstInfo.ModTime()) {
		return nil
	}

	srcSum, err := FileDigest(srcPath)
	if err != nil {
		return err
	}
	dstSum, err := FileDigest(dstPath)
	if err != nil {
		return err
	}
	if srcSum == dstSum {
		return nil
	}

	n, err := copyFile(srcPath, dstPath, srcInfo)
	if err != nil {
		return err
	}
	st.FilesCopied++
	st.BytesCopied += n
	s.record(Event{Kind: EventCopiedUpdated, Path: dstPath, From: srcPath, Size: n})
	return nil
}

// copyFile copies src to dst preserving the permission bits and the
// modification time, and returns the number of bytes written.
func copyFile(src, dst string, srcInfo fs.FileInfo) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("create %q: %w", dst, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("close %q: %w", dst, err)
	}

	// dst may have pre-existed with different permissions
	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return n, fmt.Errorf("chmod %q: %w", dst, err)
	}
	if err := os.Chtimes(dst, time.Now(), srcInfo.ModTime()); err != nil {
		return n, fmt.Errorf("chtimes %q: %w", dst, err)
	}
	return n, nil
}
