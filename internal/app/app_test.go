package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	coreconfig "github.com/m3rciful/salonbot/core/config"
	"github.com/m3rciful/salonbot/internal/bot"
)

func noLogger(*coreconfig.Config) error { return nil }

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &Config{
		Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "42:xyz"}},
		Salon:  SalonConfig{MasterPassword: " secret ", MasterContact: "@master"},
		Storage: StorageConfig{
			AssetsDir:   filepath.Join(dir, "assets"),
			ReviewsFile: filepath.Join(dir, "reviews", "reviews.json"),
		},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := testConfig(t)
	if cfg.Salon.MasterPassword != "secret" {
		t.Fatalf("password = %q", cfg.Salon.MasterPassword)
	}
	if cfg.Session.Backend != SessionMemory {
		t.Fatalf("backend = %q", cfg.Session.Backend)
	}
	want := filepath.Join(filepath.Dir(cfg.Storage.ReviewsFile), "backups")
	if cfg.Storage.BackupDir != want {
		t.Fatalf("backup dir = %q, want %q", cfg.Storage.BackupDir, want)
	}
	if cfg.Health.Environment != "development" {
		t.Fatalf("environment = %q", cfg.Health.Environment)
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	token := coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}
	cases := map[string]*Config{
		"no password":   {Config: token},
		"bad backend":   {Config: token, Salon: SalonConfig{MasterPassword: "p"}, Session: SessionConfig{Backend: "etcd"}},
		"redis no addr": {Config: token, Salon: SalonConfig{MasterPassword: "p"}, Session: SessionConfig{Backend: "redis"}},
		"negative ttl":  {Config: token, Salon: SalonConfig{MasterPassword: "p"}, Session: SessionConfig{PendingTTL: -time.Second}},
	}
	for name, cfg := range cases {
		if err := Normalize(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNormalizeBotTokenFallback(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-bot-token")
	cfg := &Config{Salon: SalonConfig{MasterPassword: "p"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.Token != "from-bot-token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := strings.Join([]string{
		"telegram:",
		"  token: file-token",
		"salon:",
		"  master_contact: \"@file\"",
		"session:",
		"  backend: memory",
		"  pending_ttl: 10m",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MASTER_PASSWORD", "env-secret")
	t.Setenv("RAILWAY_ENVIRONMENT", "production")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "file-token" || cfg.Salon.MasterContact != "@file" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Salon.MasterPassword != "env-secret" || cfg.Health.Environment != "production" {
		t.Fatalf("env overlay not applied: %+v", cfg)
	}
	if cfg.Session.PendingTTL != 10*time.Minute {
		t.Fatalf("pending ttl = %v", cfg.Session.PendingTTL)
	}
	if cfg.CoreConfig() != &cfg.Config {
		t.Fatalf("core config should point at the embedded config")
	}
}

type fakeTransport struct{ sent []bot.Message }

func (f *fakeTransport) Send(_ context.Context, _ int64, msg bot.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Fetch(context.Context, bot.PhotoVariant) ([]byte, string, error) {
	return []byte("img"), "jpg", nil
}

func TestBootstrapMemory(t *testing.T) {
	cfg := testConfig(t)
	a, err := Bootstrap(context.Background(), cfg, BootstrapOptions{LoggerInit: noLogger})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer a.Close()

	for _, dir := range []string{cfg.Storage.AssetsDir, cfg.Storage.BackupDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("dir %s not created: %v", dir, err)
		}
	}
	if a.Services() != nil {
		t.Fatalf("health server should be disabled without listen address")
	}

	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("run options: %v", err)
	}
	if len(opts.Routes) != 4 || opts.OnStart == nil || opts.Config != a.CoreConfig() {
		t.Fatalf("run options = %+v", opts)
	}

	tr := &fakeTransport{}
	ev := bot.Event{ChatID: 1, UserID: 1, Kind: bot.KindText, Text: "/start"}
	if err := a.Router.Handle(context.Background(), tr, ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("sent = %d messages", len(tr.sent))
	}
}

func TestBootstrapWithHealth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Health.Listen = "127.0.0.1:0"
	a, err := Bootstrap(context.Background(), cfg, BootstrapOptions{LoggerInit: noLogger})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer a.Close()
	if len(a.Services()) != 1 {
		t.Fatalf("services = %d", len(a.Services()))
	}
}

func TestBootstrapRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Session.Backend = SessionRedis
	cfg.Session.Redis.Addr = mr.Addr()

	a, err := Bootstrap(context.Background(), cfg, BootstrapOptions{LoggerInit: noLogger})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer a.Close()

	if err := a.Router.Handle(context.Background(), &fakeTransport{}, bot.Event{ChatID: 9, UserID: 9, Kind: bot.KindText, Text: "/start"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := mr.HGet("salonbot:chat:9", "menu"); got == "" {
		t.Fatalf("menu not stored in redis")
	}
}

func TestBootstrapRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Session.Backend = SessionRedis
	cfg.Session.Redis.Addr = addr
	if _, err := Bootstrap(context.Background(), cfg, BootstrapOptions{LoggerInit: noLogger}); err == nil {
		t.Fatalf("expected bootstrap to fail without redis")
	}
}
