package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/drawparse/drawparse/pkg/logger_i"
)

// EnsureUniqueFilename returns path if nothing exists there, otherwise the
// first "<stem>-N<ext>" sibling that does not exist yet. A trailing "-N" on
// the stem is stripped before a new counter is appended, so repeated
// collisions yield name-1, name-2 rather than name-1-1.
func EnsureUniqueFilename(path string) string {
	counter := 1
	for {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		ext := filepath.Ext(path)
		stem := strings.TrimSuffix(filepath.Base(path), ext)
		if idx := strings.LastIndex(stem, "-"); idx > 0 {
			if _, err := strconv.Atoi(stem[idx+1:]); err == nil {
				stem = stem[:idx]
			}
		}
		path = filepath.Join(filepath.Dir(path), fmt.Sprintf("%s-%d%s", stem, counter, ext))
		counter++
	}
}

// CreateDirs makes sure the temp and output areas exist.
func CreateDirs(tempDir, outputDir string) error {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return nil
}

// CleanTempDir removes regular files from the temp area, leaving the
// directory itself in place.
func CleanTempDir(tempDir string) {
	logger := logger_i.NewLogger("utils")
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Could not read temp dir", "dir", tempDir, "err", err)
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(tempDir, entry.Name())); err != nil {
			logger.Warn("Could not remove temp file", "file", entry.Name(), "err", err)
		}
	}
}

// PDFName is the input file's stem, used to prefix every derived artifact.
func PDFName(pdfPath string) string {
	base := filepath.Base(pdfPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CopyFile copies src to dst, overwriting dst.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
