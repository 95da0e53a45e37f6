package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/salonbot/core/logger"
	"github.com/m3rciful/salonbot/internal/fsutil"
	"github.com/m3rciful/salonbot/internal/metrics"
)

// Backup identifies the snapshot written by ClearWithBackup.
type Backup struct {
	Path  string
	Count int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for stamps and backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store holds the review collection in memory and mirrors every change to
// disk before returning.
type Store struct {
	path      string
	backupDir string
	now       func() time.Time

	mu    sync.RWMutex
	items []Review
}

// Open loads the collection at path. A missing file is an empty collection.
func Open(path, backupDir string, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("reviews: file path is required")
	}
	if strings.TrimSpace(backupDir) == "" {
		backupDir = filepath.Join(filepath.Dir(path), "backups")
	}
	s := &Store{path: path, backupDir: backupDir, now: time.Now, items: []Review{}}
	for _, opt := range opts {
		opt(s)
	}
	for _, dir := range []string{filepath.Dir(path), backupDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("reviews: create dir %s: %w", dir, err)
		}
	}

	items, err := readFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		s.items = items
	}
	metrics.SetReviews(len(s.items))
	return s, nil
}

// Path returns the live collection file.
func (s *Store) Path() string { return s.path }

// BackupDir returns the directory holding clear snapshots.
func (s *Store) BackupDir() string { return s.backupDir }

// Append validates r, stamps it and persists the whole collection.
// When persisting fails the collection is left as it was.
func (s *Store) Append(ctx context.Context, r Review) (Review, error) {
	if !ValidRating(r.Rating) {
		return Review{}, fmt.Errorf("%w: got %d", ErrInvalidRating, r.Rating)
	}
	start := time.Now()
	r.UserName = strings.TrimSpace(r.UserName)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stamped under the lock so timestamps follow insertion order.
	r.Date, r.Timestamp = stamp(s.now())

	next := append(s.items[:len(s.items):len(s.items)], r)
	if err := s.persist(next); err != nil {
		logger.LogEvent(ctx, logger.Store, slog.LevelError, "review.append",
			slog.String("outcome", "fail"),
			slog.Any("err", err),
		)
		return Review{}, err
	}
	s.items = next
	metrics.SetReviews(len(next))

	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "review.append",
		slog.String("outcome", "ok"),
		slog.Int("rating", r.Rating),
		slog.Int("count", len(next)),
		slog.Duration("duration", logger.Took(start)),
	)
	return r, nil
}

// List returns a copy of the collection in insertion order.
func (s *Store) List(_ context.Context) []Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Review(nil), s.items...)
}

// Len returns the number of stored reviews.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Stats scans the collection and returns aggregates.
func (s *Store) Stats(_ context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return computeStats(s.items)
}

// ClearWithBackup snapshots the collection into a new backup file, then
// persists an empty collection. Nothing is removed unless the snapshot was written.
func (s *Store) ClearWithBackup(ctx context.Context) (Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := Backup{
		Path:  filepath.Join(s.backupDir, backupName(s.now())),
		Count: len(s.items),
	}
	data, err := encode(s.items)
	if err == nil {
		err = fsutil.WriteFileExclusive(backup.Path, data, 0o644)
	}
	if err != nil {
		logger.LogEvent(ctx, logger.Store, slog.LevelError, "review.clear",
			slog.String("outcome", "fail"),
			slog.String("backup", backup.Path),
			slog.Any("err", err),
		)
		return Backup{}, fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}

	if err := s.persist([]Review{}); err != nil {
		logger.LogEvent(ctx, logger.Store, slog.LevelError, "review.clear",
			slog.String("outcome", "fail"),
			slog.String("backup", backup.Path),
			slog.Any("err", err),
		)
		return Backup{}, err
	}
	s.items = []Review{}
	metrics.SetReviews(0)

	logger.LogEvent(ctx, logger.Store, slog.LevelWarn, "review.clear",
		slog.String("outcome", "ok"),
		slog.String("backup", backup.Path),
		slog.Int("count", backup.Count),
	)
	return backup, nil
}

// LoadBackup reads a snapshot written by ClearWithBackup.
func LoadBackup(path string) ([]Review, error) {
	return readFile(path)
}

func (s *Store) persist(items []Review) error {
	data, err := encode(items)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("reviews: persist: %w", err)
	}
	return nil
}

func backupName(t time.Time) string {
	return fmt.Sprintf("reviews_backup_%d_%s.json", t.Unix(), uuid.NewString()[:8])
}

func encode(items []Review) ([]byte, error) {
	if items == nil {
		items = []Review{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, fmt.Errorf("reviews: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func readFile(path string) ([]Review, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("reviews: read %s: %w", path, err)
	}
	items := []Review{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("reviews: decode %s: %w", path, err)
	}
	return items, nil
}
