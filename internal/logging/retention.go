package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const activeLogName = "pixelframe.log"

// CleanupOldLogs compresses rotated log files older than a day and deletes
// anything older than retentionDays. The active log file is never touched.
// A retentionDays of zero disables deletion but still compresses.
func CleanupOldLogs(logDir string, retentionDays int, logger *slog.Logger) error {
	if logDir == "" {
		return nil
	}
	if logger == nil {
		logger = NewNop()
	}

	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read log directory: %w", err)
	}

	now := time.Now()
	compressAfter := now.Add(-24 * time.Hour)
	var deleteBefore time.Time
	if retentionDays > 0 {
		deleteBefore = now.AddDate(0, 0, -retentionDays)
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == activeLogName {
			continue
		}
		if !strings.Contains(entry.Name(), ".log") {
			continue
		}
		path := filepath.Join(logDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}

		if !deleteBefore.IsZero() && info.ModTime().Before(deleteBefore) {
			if err := os.Remove(path); err != nil {
				logger.Warn("failed to delete expired log", "path", path, "error", err)
			} else {
				logger.Debug("deleted expired log", "path", path)
			}
			continue
		}

		if strings.HasSuffix(entry.Name(), ".gz") {
			continue
		}
		if info.ModTime().After(compressAfter) {
			continue
		}
		if err := compressLog(path); err != nil {
			logger.Warn("failed to compress log", "path", path, "error", err)
			continue
		}
		logger.Debug("compressed rotated log", "path", path)
	}
	return nil
}

func compressLog(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dstPath := path + ".gz"
	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		dst.Close()
		os.Remove(dstPath)
		return err
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return err
	}
	return os.Remove(path)
}
