// Package assets keeps one current binary file per logical name on disk.
package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/salonbot/core/logger"
	"github.com/m3rciful/salonbot/internal/fsutil"
)

// Logical asset names used by the bot.
const (
	Price        = "price"
	Availability = "availability"
	Welcome      = "welcome"
)

const (
	defaultKind = "jpg"
	// metaKind is the sidecar extension; content never uses it.
	metaKind = "json"
)

var (
	// ErrNotFound is returned when nothing was ever stored under a name.
	ErrNotFound = errors.New("assets: not found")
	// ErrInvalidName is returned for names outside [a-z0-9_-].
	ErrInvalidName = errors.New("assets: invalid name")

	namePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)
	kindPattern = regexp.MustCompile(`^[a-z0-9]{1,8}$`)
)

// Asset describes the current content stored under Name.
type Asset struct {
	Name  string    `json:"name"`
	Kind  string    `json:"kind"`
	SetBy int64     `json:"set_by"`
	SetAt time.Time `json:"set_at"`
	Size  int64     `json:"size"`
}

// FileName returns the on-disk file name of the asset content.
func (a Asset) FileName() string { return a.Name + "." + a.Kind }

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for SetAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a directory of single-slot assets. Writes are serialized; reads
// share a read lock.
type Store struct {
	dir string
	mu  sync.RWMutex
	now func() time.Time
}

// New creates the directory if needed and returns a Store rooted at dir.
func New(dir string, opts ...Option) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("assets: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create dir %s: %w", dir, err)
	}
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// NormalizeKind maps a file extension or MIME hint to a short lowercase kind.
func NormalizeKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if i := strings.LastIndexAny(kind, "./"); i >= 0 {
		kind = kind[i+1:]
	}
	switch kind {
	case "jpeg":
		kind = "jpg"
	case "", metaKind:
		return defaultKind
	}
	if !kindPattern.MatchString(kind) {
		return defaultKind
	}
	return kind
}

// Put replaces the content stored under name.
func (s *Store) Put(ctx context.Context, name string, data []byte, kind string, setBy int64) (Asset, error) {
	if !namePattern.MatchString(name) {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	start := time.Now()
	asset := Asset{
		Name:  name,
		Kind:  NormalizeKind(kind),
		SetBy: setBy,
		SetAt: s.now().UTC(),
		Size:  int64(len(data)),
	}
	meta, err := json.Marshal(asset)
	if err != nil {
		return Asset{}, fmt.Errorf("assets: encode metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fsutil.WriteFileAtomic(filepath.Join(s.dir, asset.FileName()), data, 0o644); err != nil {
		logger.LogEvent(ctx, logger.Store, slog.LevelError, "asset.put",
			slog.String("asset", name),
			slog.String("outcome", "fail"),
			slog.Any("err", err),
		)
		return Asset{}, err
	}
	// The content rename is the commit point. Without a current sidecar the
	// stale one is dropped so lookup falls back to the new content file.
	if err := fsutil.WriteFileAtomic(s.metaPath(name), meta, 0o644); err != nil {
		logger.LogEvent(ctx, logger.Store, slog.LevelWarn, "asset.put",
			slog.String("asset", name),
			slog.String("op", "metadata"),
			slog.Any("err", err),
		)
		if rmErr := os.Remove(s.metaPath(name)); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.LogEvent(ctx, logger.Store, slog.LevelError, "asset.put",
				slog.String("asset", name),
				slog.String("outcome", "fail"),
				slog.Any("err", rmErr),
			)
			return Asset{}, fmt.Errorf("assets: metadata for %s: %w", name, errors.Join(err, rmErr))
		}
	}
	s.removeStale(ctx, asset)

	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "asset.put",
		slog.String("asset", name),
		slog.String("outcome", "ok"),
		slog.String("kind", asset.Kind),
		slog.Int64("size", asset.Size),
		slog.Duration("duration", logger.Took(start)),
	)
	return asset, nil
}

// Get returns the current content and metadata for name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, Asset, error) {
	if !namePattern.MatchString(name) {
		return nil, Asset{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, err := s.lookup(name)
	if err != nil {
		return nil, Asset{}, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, asset.FileName()))
	if errors.Is(err, os.ErrNotExist) {
		return nil, Asset{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, Asset{}, fmt.Errorf("assets: read %s: %w", name, err)
	}
	asset.Size = int64(len(data))
	logger.LogEvent(ctx, logger.Store, slog.LevelDebug, "asset.get",
		slog.String("asset", name),
		slog.Int64("size", asset.Size),
	)
	return data, asset, nil
}

// Exists reports whether name currently has content.
func (s *Store) Exists(name string) bool {
	if !namePattern.MatchString(name) {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := s.lookup(name)
	return err == nil
}

func (s *Store) metaPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// lookup resolves metadata from the sidecar. Files placed by an operator have
// no sidecar; the first name.<ext> file is used for them.
func (s *Store) lookup(name string) (Asset, error) {
	raw, err := os.ReadFile(s.metaPath(name))
	switch {
	case err == nil:
		var a Asset
		if err := json.Unmarshal(raw, &a); err != nil {
			return Asset{}, fmt.Errorf("assets: decode metadata for %s: %w", name, err)
		}
		a.Name = name
		return a, nil
	case !errors.Is(err, os.ErrNotExist):
		return Asset{}, fmt.Errorf("assets: read metadata for %s: %w", name, err)
	}

	for _, path := range s.contentFiles(name) {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return Asset{
			Name:  name,
			Kind:  strings.TrimPrefix(filepath.Ext(path), "."),
			SetAt: info.ModTime().UTC(),
			Size:  info.Size(),
		}, nil
	}
	return Asset{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (s *Store) contentFiles(name string) []string {
	matches, _ := filepath.Glob(filepath.Join(s.dir, name+".*"))
	out := matches[:0]
	for _, m := range matches {
		if filepath.Ext(m) == "."+metaKind {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func (s *Store) removeStale(ctx context.Context, keep Asset) {
	current := filepath.Join(s.dir, keep.FileName())
	for _, path := range s.contentFiles(keep.Name) {
		if path == current {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.LogEvent(ctx, logger.Store, slog.LevelWarn, "asset.cleanup",
				slog.String("asset", keep.Name),
				slog.String("path", path),
				slog.Any("err", err),
			)
		}
	}
}
