// internal/store/file.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"autoflow/internal/common/logger"
	"autoflow/internal/models"
)

// FileBackend keeps the collection as one JSON document on disk, the
// flat-file scheme the admin tooling expects. Corrupt content is moved
// aside as a timestamped forensic file and the collection recovers empty
// rather than failing reads.
type FileBackend struct {
	path string
	log  logger.Logger
}

func NewFileBackend(path string, log logger.Logger) *FileBackend {
	return &FileBackend{path: path, log: log}
}

func (b *FileBackend) Load(ctx context.Context) ([]models.CreditApplication, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}

	var apps []models.CreditApplication
	if err := json.Unmarshal(data, &apps); err != nil {
		backup := b.quarantine()
		b.log.Error("store file is corrupt, recovering with empty collection", map[string]interface{}{
			"path":   b.path,
			"backup": backup,
			"error":  err.Error(),
		})
		return nil, nil
	}
	return apps, nil
}

func (b *FileBackend) Save(ctx context.Context, apps []models.CreditApplication) error {
	if apps == nil {
		apps = []models.CreditApplication{}
	}
	data, err := json.MarshalIndent(apps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	// Write-then-rename so a crash mid-write never truncates the live file.
	tmp, err := os.CreateTemp(dir, ".applications-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// quarantine moves the unreadable store file aside and returns the backup
// path, or empty if the rename itself failed.
func (b *FileBackend) quarantine() string {
	backup := fmt.Sprintf("%s.corrupt-%s", b.path, time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(b.path, backup); err != nil {
		b.log.Error("failed to preserve corrupt store file", map[string]interface{}{
			"path":  b.path,
			"error": err.Error(),
		})
		return ""
	}
	return backup
}
