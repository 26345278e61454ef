// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package hardlink

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// StageTree hardlinks src into dst. If src is a regular file, dst is
// created as a single hardlink. If src is a directory, the entire tree is
// recreated under dst with every regular file hardlinked individually and
// every subdirectory recreated with os.MkdirAll — the same shape as
// shutil.copytree(copy_function=os.link) in the upstream reference.
//
// StageTree refuses to overwrite an existing dst, since a pre-existing
// destination means the torrent has already been staged once.
func StageTree(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("destination already staged: %s", dst)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat destination %s: %w", dst, err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source %s: %w", src, err)
	}

	if !info.IsDir() {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create parent directory for %s: %w", dst, err)
		}
		return os.Link(src, dst)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("read symlink %s: %w", path, err)
			}
			return os.Symlink(linkTarget, target)
		}
		return os.Link(path, target)
	})
}
