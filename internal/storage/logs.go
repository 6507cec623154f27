package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stepci/pkg/utils"
)

// LogStorage writes per-step logs to disk, one directory per run.
type LogStorage struct {
	BaseDir string
}

// NewLogStorage creates a log storage handler rooted at baseDir.
func NewLogStorage(baseDir string) *LogStorage {
	return &LogStorage{BaseDir: baseDir}
}

// SaveStepLog writes the captured output for one step and returns the file
// path plus the SHA-256 digest of what was written. File names carry the
// step index so directory order matches execution order.
func (ls *LogStorage) SaveStepLog(runID string, index int, step, output string) (string, string, error) {
	dir := filepath.Join(ls.BaseDir, sanitize(runID))
	if err := os.MkdirAll(dir, 0o775); err != nil {
		return "", "", fmt.Errorf("create log dir: %w", err)
	}

	filename := fmt.Sprintf("%02d_%s.log", index, sanitize(step))
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return "", "", fmt.Errorf("write log: %w", err)
	}

	return path, utils.HashString(output), nil
}

// Verify recomputes a log file's digest and compares it to the one recorded
// at write time.
func (ls *LogStorage) Verify(path, digest string) error {
	actual, err := utils.HashFile(path)
	if err != nil {
		return err
	}
	if actual != digest {
		return fmt.Errorf("log digest mismatch for %s", path)
	}
	return nil
}

// sanitize strips characters unsafe in file names.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "step"
	}
	return b.String()
}
