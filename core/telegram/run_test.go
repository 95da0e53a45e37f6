package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRedactToken(t *testing.T) {
	got := RedactToken(`Post "https://api.telegram.org/bot123:ABC/sendMessage": timeout`, "123:ABC")
	if strings.Contains(got, "123:ABC") || !strings.Contains(got, "<token>") {
		t.Fatalf("token not redacted: %s", got)
	}
	if got := RedactToken("plain", ""); got != "plain" {
		t.Fatalf("empty token changed input: %s", got)
	}
}

func TestDeleteWebhook(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := deleteWebhook(context.Background(), srv.Client(), srv.URL, "42:xyz"); err != nil {
		t.Fatalf("deleteWebhook: %v", err)
	}
	if path != "/bot42:xyz/deleteWebhook" {
		t.Fatalf("path = %q", path)
	}
}

func TestDeleteWebhookStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	if err := deleteWebhook(context.Background(), srv.Client(), srv.URL, "t"); err == nil {
		t.Fatalf("expected status error")
	}
}
