package tgbot

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/salonbot/internal/bot"

	tele "gopkg.in/telebot.v4"
)

func newContext(t *testing.T, u tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b.NewContext(u)
}

var (
	testChat   = &tele.Chat{ID: 10}
	testSender = &tele.User{ID: 20, FirstName: "Anna", LastName: " "}
)

func TestToEventText(t *testing.T) {
	c := newContext(t, tele.Update{Message: &tele.Message{Chat: testChat, Sender: testSender, Text: "hello"}})
	ev, ok := ToEvent(c)
	if !ok {
		t.Fatalf("text update skipped")
	}
	if ev.Kind != bot.KindText || ev.Text != "hello" || ev.ChatID != 10 || ev.UserID != 20 {
		t.Fatalf("event = %+v", ev)
	}
	if ev.DisplayName != "Anna" {
		t.Fatalf("display name = %q", ev.DisplayName)
	}
}

func TestToEventPhoto(t *testing.T) {
	photo := &tele.Photo{File: tele.File{FileID: "big", FileSize: 900}, Width: 1280, Height: 720}
	c := newContext(t, tele.Update{Message: &tele.Message{Chat: testChat, Sender: testSender, Photo: photo}})
	ev, ok := ToEvent(c)
	if !ok || ev.Kind != bot.KindPhoto {
		t.Fatalf("event = %+v ok=%v", ev, ok)
	}
	if len(ev.Photos) != 1 || ev.Photos[0].FileID != "big" || ev.Photos[0].Width != 1280 {
		t.Fatalf("photos = %+v", ev.Photos)
	}
}

func TestToEventImageDocument(t *testing.T) {
	doc := &tele.Document{File: tele.File{FileID: "doc"}, MIME: "image/png"}
	c := newContext(t, tele.Update{Message: &tele.Message{Chat: testChat, Sender: testSender, Document: doc}})
	ev, ok := ToEvent(c)
	if !ok || ev.Kind != bot.KindPhoto || ev.Photos[0].MIME != "image/png" {
		t.Fatalf("event = %+v ok=%v", ev, ok)
	}
}

func TestToEventSkipsOtherDocuments(t *testing.T) {
	doc := &tele.Document{File: tele.File{FileID: "doc"}, MIME: "application/pdf"}
	c := newContext(t, tele.Update{Message: &tele.Message{Chat: testChat, Sender: testSender, Document: doc}})
	if _, ok := ToEvent(c); ok {
		t.Fatalf("pdf document should be skipped")
	}
}

func TestToEventCallback(t *testing.T) {
	msg := &tele.Message{Chat: testChat}
	c := newContext(t, tele.Update{Callback: &tele.Callback{ID: "1", Sender: testSender, Message: msg, Data: "rating|4"}})
	ev, ok := ToEvent(c)
	if !ok || ev.Kind != bot.KindCallback {
		t.Fatalf("event = %+v ok=%v", ev, ok)
	}
	if ev.CallbackData != "rating|4" || ev.ChatID != 10 || ev.UserID != 20 {
		t.Fatalf("event = %+v", ev)
	}
}

type recordingHandler struct {
	events []bot.Event
	err    error
}

func (h *recordingHandler) Handle(ctx context.Context, tr bot.Transport, ev bot.Event) error {
	h.events = append(h.events, ev)
	if h.err != nil {
		return h.err
	}
	return tr.Send(ctx, ev.ChatID, bot.Message{Text: "reply"})
}

func TestAdapterDispatchesToHandler(t *testing.T) {
	api := &fakeAPI{}
	tr := NewTransport("")
	tr.Bind(api)
	h := &recordingHandler{}
	a := NewAdapter(h, tr)

	routes := a.Routes()
	if len(routes) != 4 {
		t.Fatalf("routes = %d", len(routes))
	}
	c := newContext(t, tele.Update{ID: 5, Message: &tele.Message{Chat: testChat, Sender: testSender, Text: "/start"}})
	if err := routes[0].Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(h.events) != 1 || h.events[0].Text != "/start" {
		t.Fatalf("events = %+v", h.events)
	}
	if len(api.sent) != 1 {
		t.Fatalf("sent = %d", len(api.sent))
	}
}

func TestAdapterReturnsHandlerError(t *testing.T) {
	tr := NewTransport("")
	tr.Bind(&fakeAPI{})
	want := errors.New("boom")
	a := NewAdapter(&recordingHandler{err: want}, tr)

	c := newContext(t, tele.Update{Message: &tele.Message{Chat: testChat, Sender: testSender, Text: "x"}})
	if err := a.Routes()[0].Handler(c); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestAdapterSkipsUnsupportedUpdate(t *testing.T) {
	h := &recordingHandler{}
	a := NewAdapter(h, NewTransport(""))
	doc := &tele.Document{File: tele.File{FileID: "doc"}, MIME: "text/plain"}
	c := newContext(t, tele.Update{Message: &tele.Message{Chat: testChat, Sender: testSender, Document: doc}})
	if err := a.Routes()[2].Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(h.events) != 0 {
		t.Fatalf("handler called for unsupported document")
	}
}
