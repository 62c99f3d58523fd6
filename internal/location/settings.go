package location

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
)

type settingsFile struct {
	Location string `json:"location"`
}

// SettingsStore persists the selected current location in a small JSON file
type SettingsStore struct {
	mu   sync.Mutex
	path string
	dir  *Directory
}

func NewSettingsStore(path string, dir *Directory) *SettingsStore {
	return &SettingsStore{path: path, dir: dir}
}

// Current returns the stored location name. A missing file means unset.
func (s *SettingsStore) Current() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read location settings: %w", err)
	}

	var f settingsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", false, fmt.Errorf("failed to parse location settings %s: %w", s.path, err)
	}
	if f.Location == "" {
		return "", false, nil
	}
	return f.Location, true, nil
}

// SetCurrent validates name against the directory and stores it atomically
func (s *SettingsStore) SetCurrent(name string) (domain.LocationInfo, error) {
	info, err := s.dir.ByName(name)
	if err != nil {
		return domain.LocationInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(settingsFile{Location: info.Name}, "", "  ")
	if err != nil {
		return domain.LocationInfo{}, err
	}
	if err := writeFileAtomic(s.path, raw); err != nil {
		return domain.LocationInfo{}, fmt.Errorf("failed to save location settings: %w", err)
	}
	return info, nil
}

// CurrentConfig returns the selected location first and the other second
func (s *SettingsStore) CurrentConfig() (domain.LocationConfig, error) {
	name, _, err := s.Current()
	if err != nil {
		return domain.LocationConfig{}, err
	}
	return s.dir.Resolve(name)
}

// writeFileAtomic writes to a temp file in the target directory and renames it into place
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
