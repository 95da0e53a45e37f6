package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" || Outcome(errors.New("x")) != "fail" || Outcome(context.Canceled) != "cancelled" {
		t.Fatalf("unexpected outcome labels")
	}
}

func TestObserveAndServe(t *testing.T) {
	reg := InitRegistry()
	ObserveStore("reviews", "append", nil)
	ObserveUpdate("message", 15*time.Millisecond, nil)
	SetReviews(3)
	ObserveHTTP("/health", "GET", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"salonbot_reviews_stored 3",
		`salonbot_updates_total{kind="message",outcome="ok"}`,
		`salonbot_store_operations_total{op="append",outcome="ok",store="reviews"}`,
		`salonbot_http_requests_total{method="GET",route="/health",status="200"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
