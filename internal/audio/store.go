package audio

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// ArtifactStore persists audio and returns a handle the caller can serve.
type ArtifactStore interface {
	Save(data []byte) (string, error)
}

// FileStore writes artifacts as <uuid>.mp3 under Dir. Handles are
// URLPrefix joined with the filename.
type FileStore struct {
	Dir       string
	URLPrefix string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir, urlPrefix string) *FileStore {
	if dir == "" {
		dir = filepath.Join("static", "audio")
	}
	if urlPrefix == "" {
		urlPrefix = "static/audio"
	}
	return &FileStore{Dir: dir, URLPrefix: urlPrefix}
}

// Save writes data under a fresh unique filename.
func (s *FileStore) Save(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to store empty audio")
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(s.Dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	return path.Join(s.URLPrefix, filename), nil
}
