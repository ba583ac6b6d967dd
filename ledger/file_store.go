package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/satheeshds/repairbook/fsutil"
	"github.com/satheeshds/repairbook/models"
)

const (
	dayFilePrefix = "invoices_"
	dayFileSuffix = ".json"
	counterFile   = "counter.json"
)

// ErrInvalidUser is returned for user ids that cannot name a directory.
var ErrInvalidUser = errors.New("invalid user id")

// FileStore keeps one JSON array per user per day under root:
//
//	<root>/<user>/invoices_YYYY-MM-DD.json
//	<root>/<user>/counter.json
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

func (s *FileStore) userDir(userID string) (string, error) {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUser, userID)
	}
	return filepath.Join(s.root, userID), nil
}

func (s *FileStore) dayPath(userID, day string) (string, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dayFilePrefix+day+dayFileSuffix), nil
}

// readRaw returns the entries of a day file exactly as stored. A missing
// file yields exists=false and no error.
func readRaw(path string) (entries []json.RawMessage, exists bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, true, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, true, nil
}

func (s *FileStore) ReadDay(ctx context.Context, userID, day string) Day {
	result := Day{Date: day, Records: []models.InvoiceRecord{}}
	path, err := s.dayPath(userID, day)
	if err != nil {
		result.State, result.Err = DayUnreadable, err
		return result
	}
	raw, exists, err := readRaw(path)
	switch {
	case !exists:
		result.State = DayAbsent
		return result
	case err != nil:
		result.State, result.Err = DayUnreadable, err
		return result
	}

	for i, entry := range raw {
		rec, bad, err := models.DecodeRecord(entry)
		if err != nil {
			s.log.Warn("skipping malformed ledger entry", "path", path, "index", i, "error", err)
			continue
		}
		if len(bad) > 0 {
			s.log.Warn("ledger entry has unreadable fields", "path", path, "index", i, "fields", bad)
		}
		result.Records = append(result.Records, rec)
	}
	result.State = DayLoaded
	return result
}

// Append adds rec to the end of the day file. Existing entries are
// written back with their content unchanged, whether or not they decode.
// An unreadable file is moved aside rather than overwritten.
func (s *FileStore) Append(ctx context.Context, userID, day string, rec models.InvoiceRecord) error {
	path, err := s.dayPath(userID, day)
	if err != nil {
		return err
	}
	entries, _, err := readRaw(path)
	if err != nil {
		quarantine := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if rerr := os.Rename(path, quarantine); rerr != nil {
			return fmt.Errorf("quarantining unreadable day file: %w", rerr)
		}
		s.log.Warn("unreadable day file moved aside", "path", path, "moved_to", quarantine, "error", err)
		entries = nil
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding invoice: %w", err)
	}
	entries = append(entries, encoded)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding day file: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing day file: %w", err)
	}
	return nil
}

func (s *FileStore) ListDays(ctx context.Context, userID string) ([]string, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	days := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, dayFilePrefix) || !strings.HasSuffix(name, dayFileSuffix) {
			continue
		}
		days = append(days, strings.TrimSuffix(strings.TrimPrefix(name, dayFilePrefix), dayFileSuffix))
	}
	sort.Strings(days)
	return days, nil
}

func (s *FileStore) ClearDay(ctx context.Context, userID, day string) (bool, error) {
	path, err := s.dayPath(userID, day)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("removing day file: %w", err)
	}
	return true, nil
}

type counterState struct {
	Counter *int `json:"counter"`
}

func (s *FileStore) LoadCounter(ctx context.Context, userID string) (int, bool, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return 0, false, err
	}
	path := filepath.Join(dir, counterFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		s.log.Warn("counter file unreadable", "path", path, "error", err)
		return 0, false, nil
	}
	var st counterState
	if err := json.Unmarshal(data, &st); err != nil || st.Counter == nil {
		s.log.Warn("counter file corrupt", "path", path, "error", err)
		return 0, false, nil
	}
	return *st.Counter, true, nil
}

func (s *FileStore) SaveCounter(ctx context.Context, userID string, n int) error {
	dir, err := s.userDir(userID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(counterState{Counter: &n})
	if err != nil {
		return fmt.Errorf("encoding counter: %w", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(dir, counterFile), data); err != nil {
		return fmt.Errorf("writing counter: %w", err)
	}
	return nil
}
