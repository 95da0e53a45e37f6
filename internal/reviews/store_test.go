package reviews

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/salonbot/internal/metrics"
)

var fixedNow = time.Date(2024, 5, 17, 14, 30, 0, 500_000_000, time.UTC)

func openStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "reviews.json"), filepath.Join(dir, "backups"),
		WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestAppendThenListKeepsOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for r := MinRating; r <= MaxRating; r++ {
		text := strings.Repeat("x", r)
		if _, err := s.Append(ctx, Review{UserID: int64(r), UserName: "Ann", Rating: r, Text: text}); err != nil {
			t.Fatalf("append %d: %v", r, err)
		}
		list := s.List(ctx)
		last := list[len(list)-1]
		if last.Rating != r || last.Text != text {
			t.Fatalf("last = %+v, want rating %d text %q", last, r, text)
		}
	}
	if got := s.List(ctx)[0]; got.Date != "17.05.2024 14:30" || got.Timestamp != 1715956200.5 {
		t.Fatalf("stamp = %q %v", got.Date, got.Timestamp)
	}
}

func TestAppendRejectsInvalidRating(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for _, r := range []int{0, 6, -1} {
		if _, err := s.Append(ctx, Review{Rating: r}); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d: expected ErrInvalidRating, got %v", r, err)
		}
	}
	if n := len(s.List(ctx)); n != 0 {
		t.Fatalf("list len = %d", n)
	}
}

func TestStatsScenario(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if _, err := s.Append(ctx, Review{Rating: 5, Text: "Great"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Append(ctx, Review{Rating: 3, Text: "Ok"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	st := s.Stats(ctx)
	if st.Count != 2 || !st.HasAverage || !st.Average.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("stats = %+v", st)
	}
	if st.Histogram != [MaxRating + 1]int{0, 0, 0, 1, 0, 1} {
		t.Fatalf("histogram = %v", st.Histogram)
	}
	if !st.Percent(5).Equal(decimal.NewFromInt(50)) || !st.Percent(4).IsZero() {
		t.Fatalf("percent 5 = %s, 4 = %s", st.Percent(5), st.Percent(4))
	}
	if !st.Equal(s.Stats(ctx)) {
		t.Fatalf("stats not stable across reads")
	}
}

func TestStatsEmpty(t *testing.T) {
	st := openStore(t).Stats(context.Background())
	if st.Count != 0 || st.HasAverage || !st.Percent(5).IsZero() {
		t.Fatalf("empty stats = %+v", st)
	}
}

func TestReopenLoadsPersisted(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if _, err := s.Append(ctx, Review{UserID: 9, UserName: "Bob <b>", Rating: 4, Text: "Loved it"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"user_name": "Bob <b>"`) {
		t.Fatalf("unexpected encoding:\n%s", raw)
	}

	again, err := Open(s.Path(), s.BackupDir())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reflect.DeepEqual(again.List(ctx), s.List(ctx)) {
		t.Fatalf("reopened %+v, want %+v", again.List(ctx), s.List(ctx))
	}
}

func TestOpenCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := Open(path, ""); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestAppendRollsBackOnPersistFailure(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if _, err := s.Append(ctx, Review{Rating: 2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := os.Remove(s.Path()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(s.Path(), "blocker"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := s.Append(ctx, Review{Rating: 5}); err == nil {
		t.Fatalf("expected persist error")
	}
	if n := s.Len(); n != 1 {
		t.Fatalf("len after failed append = %d, want 1", n)
	}
}

func TestClearWithBackup(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for _, r := range []int{5, 1, 3} {
		if _, err := s.Append(ctx, Review{Rating: r, Text: "t"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	before := s.List(ctx)

	b, err := s.ClearWithBackup(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if b.Count != 3 || !strings.HasPrefix(filepath.Base(b.Path), "reviews_backup_1715956200_") {
		t.Fatalf("backup = %+v", b)
	}
	if n := len(s.List(ctx)); n != 0 {
		t.Fatalf("list after clear = %d", n)
	}
	restored, err := LoadBackup(b.Path)
	if err != nil {
		t.Fatalf("load backup: %v", err)
	}
	if !reflect.DeepEqual(restored, before) {
		t.Fatalf("backup %+v, want %+v", restored, before)
	}

	again, err := Open(s.Path(), s.BackupDir())
	if err != nil || again.Len() != 0 {
		t.Fatalf("reopen after clear: len=%d err=%v", again.Len(), err)
	}

	second, err := s.ClearWithBackup(ctx)
	if err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if second.Path == b.Path {
		t.Fatalf("backup name reused: %s", b.Path)
	}
}

func TestClearRefusesWithoutBackup(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if _, err := s.Append(ctx, Review{Rating: 4}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := os.RemoveAll(s.BackupDir()); err != nil {
		t.Fatalf("remove backups: %v", err)
	}
	if err := os.WriteFile(s.BackupDir(), []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("block backups: %v", err)
	}

	if _, err := s.ClearWithBackup(ctx); !errors.Is(err, ErrBackupFailed) {
		t.Fatalf("expected ErrBackupFailed, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("collection changed after failed backup")
	}
	again, err := Open(s.Path(), t.TempDir())
	if err != nil || again.Len() != 1 {
		t.Fatalf("disk changed after failed backup: len=%d err=%v", again.Len(), err)
	}
}

func TestConcurrentAppendTimestampsFollowOrder(t *testing.T) {
	dir := t.TempDir()
	var tick atomic.Int64
	clock := func() time.Time { return fixedNow.Add(time.Duration(tick.Add(1)) * time.Millisecond) }
	s, err := Open(filepath.Join(dir, "reviews.json"), "", WithClock(clock))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Append(ctx, Review{UserID: int64(i), Rating: 1 + i%5}); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	list := s.List(ctx)
	if len(list) != 20 {
		t.Fatalf("len = %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Timestamp <= list[i-1].Timestamp {
			t.Fatalf("review %d stamped %v after %v", i, list[i].Timestamp, list[i-1].Timestamp)
		}
	}
}

func TestStoreKeepsReviewGaugeCurrent(t *testing.T) {
	reg := metrics.InitRegistry()
	gauge := func() string {
		rec := httptest.NewRecorder()
		metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		for _, line := range strings.Split(rec.Body.String(), "\n") {
			if strings.HasPrefix(line, "salonbot_reviews_stored ") {
				return strings.TrimPrefix(line, "salonbot_reviews_stored ")
			}
		}
		return ""
	}

	s := openStore(t)
	ctx := context.Background()
	if got := gauge(); got != "0" {
		t.Fatalf("gauge after open = %q", got)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, Review{Rating: 5}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if got := gauge(); got != "3" {
		t.Fatalf("gauge after appends = %q", got)
	}
	if _, err := s.ClearWithBackup(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := gauge(); got != "0" {
		t.Fatalf("gauge after clear = %q", got)
	}
}
