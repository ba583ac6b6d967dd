// Package profile loads and saves the workshop profile of each user.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/satheeshds/repairbook/fsutil"
	"github.com/satheeshds/repairbook/models"
)

// Store loads and saves profiles. Load never fails: anything that cannot
// be read yields the default profile.
type Store interface {
	Load(ctx context.Context, userID string) models.WorkshopProfile
	Save(ctx context.Context, userID string, p models.WorkshopProfile) error
}

const profileFile = "profile.json"

// FileStore keeps <root>/<user>/profile.json.
type FileStore struct {
	root string
	log  *slog.Logger
}

func NewFileStore(root string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{root: root, log: log}
}

func (s *FileStore) path(userID string) (string, error) {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	return filepath.Join(s.root, userID, profileFile), nil
}

func (s *FileStore) Load(ctx context.Context, userID string) models.WorkshopProfile {
	path, err := s.path(userID)
	if err != nil {
		s.log.Warn("profile path rejected", "user", userID, "error", err)
		return models.DefaultProfile()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.DefaultProfile()
	}
	if err != nil {
		s.log.Warn("profile unreadable, using defaults", "path", path, "error", err)
		return models.DefaultProfile()
	}
	p, err := models.MergeProfile(data)
	if err != nil {
		s.log.Warn("profile corrupt, using defaults", "path", path, "error", err)
	}
	return p
}

// Save overwrites the stored profile.
func (s *FileStore) Save(ctx context.Context, userID string, p models.WorkshopProfile) error {
	path, err := s.path(userID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}
