// internal/uploads/storage.go
package uploads

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage is the file-storage capability consumed by the upload handler
// and the store's cleanup operations. Implementations deal in stored
// filenames only; callers never pass paths.
type Storage interface {
	Save(filename string, data []byte) error
	Delete(filename string) error
	List() ([]string, error)
	Size(filename string) (int64, error)
}

// DiskStorage keeps uploads as flat files under a single directory.
type DiskStorage struct {
	dir string
}

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskStorage{dir: dir}, nil
}

func (s *DiskStorage) Save(filename string, data []byte) error {
	return os.WriteFile(filepath.Join(s.dir, filename), data, 0o644)
}

func (s *DiskStorage) Delete(filename string) error {
	return os.Remove(filepath.Join(s.dir, filename))
}

func (s *DiskStorage) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *DiskStorage) Size(filename string) (int64, error) {
	info, err := os.Stat(filepath.Join(s.dir, filename))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Dir returns the storage directory, for serving files statically.
func (s *DiskStorage) Dir() string {
	return s.dir
}

// UniqueName generates a collision-free stored filename preserving the
// original extension. Distinct from the record token generator on purpose:
// stored names are public-ish, tokens are secrets.
func UniqueName(originalName string) string {
	ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
	if ext == "" {
		return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.New().String())
	}
	return fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), uuid.New().String(), ext)
}
