package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// backupName returns "<dir>/<name>.<n><ext>", e.g. logs/jellyscout.2.log
func backupName(dir, name, ext string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%d%s", name, n, ext))
}

// rotateFiles shifts every numbered backup up by one, drops the ones beyond
// maxBackups and moves the live log to backup 1.
func rotateFiles(basePath string, maxBackups int) error {
	dir := filepath.Dir(basePath)
	ext := filepath.Ext(basePath)
	name := strings.TrimSuffix(filepath.Base(basePath), ext)

	backups, err := findBackups(dir, name, ext)
	if err != nil {
		return err
	}

	// Highest first so no rename overwrites a file still to be moved
	slices.Sort(backups)
	slices.Reverse(backups)

	for _, n := range backups {
		oldPath := backupName(dir, name, ext, n)
		if n >= maxBackups {
			os.Remove(oldPath)
			continue
		}
		newPath := backupName(dir, name, ext, n+1)
		if err := os.Rename(oldPath, newPath); err != nil {
			return fmt.Errorf("failed to rotate %s to %s: %w", oldPath, newPath, err)
		}
	}

	// The live log may be gone if someone removed it by hand
	if _, err := os.Stat(basePath); err == nil {
		if err := os.Rename(basePath, backupName(dir, name, ext, 1)); err != nil {
			return fmt.Errorf("failed to rotate current log: %w", err)
		}
	}

	return nil
}

// findBackups lists the numbers of the existing "<name>.<n><ext>" files in dir
func findBackups(dir, name, ext string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var backups []int
	prefix := name + "."
	for _, entry := range entries {
		fname := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(fname, prefix) || !strings.HasSuffix(fname, ext) {
			continue
		}

		// Skip names like jellyscout.old.log
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(fname, prefix), ext))
		if err != nil {
			continue
		}
		backups = append(backups, n)
	}

	return backups, nil
}
