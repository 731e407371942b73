package mirror

import (
	"crypto/md5"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// FileDigest streams the file's content through MD5 and returns the
// hex digest.
func FileDigest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer file.Close()

	h := md5.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// TreeDigest returns a digest over the directory's structure and
// contents. Two trees have equal digests iff they hold the same set of
// relative file paths with byte-identical contents. Empty directories
// and non-regular entries contribute nothing.
//
// Traversal is depth-first pre-order with per-level sorting: at each
// directory the files are folded in lexicographic order as
// (relative path, file digest), then each subdirectory is entered in
// lexicographic order. The order is part of the digest contract.
func TreeDigest(dir string) (string, error) {
	h := md5.New()
	if err := foldTree(h, dir, dir); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func foldTree(h hash.Hash, root, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %q: %w", dir, err)
	}

	var files, dirs []string
	for _, entry := range entries {
		switch {
		case entry.IsDir():
			dirs = append(dirs, entry.Name())
		case entry.Type().IsRegular():
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	sort.Strings(dirs)

	for _, name := range files {
		path := filepath.Join(dir, name)
		sum, err := FileDigest(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("rel path %q: %w", path, err)
		}
		io.WriteString(h, filepath.ToSlash(rel))
		io.WriteString(h, sum)
	}

	for _, name := range dirs {
		if err := foldTree(h, root, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
