package tgbot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/m3rciful/salonbot/core/logger"
	coretelegram "github.com/m3rciful/salonbot/core/telegram"
	"github.com/m3rciful/salonbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/salonbot/core/telegram/helpers"
	tgrouter "github.com/m3rciful/salonbot/core/telegram/router"
	"github.com/m3rciful/salonbot/internal/bot"

	tele "gopkg.in/telebot.v4"
)

const textRateLimited = "⏳ Too many messages, please slow down."

// Handler is the part of bot.Router used by the adapter.
type Handler interface {
	Handle(ctx context.Context, tr bot.Transport, ev bot.Event) error
}

// Adapter turns telebot updates into router events.
type Adapter struct {
	handler   Handler
	transport *Transport
}

// NewAdapter returns an Adapter dispatching to h and replying through tr.
func NewAdapter(h Handler, tr *Transport) *Adapter {
	return &Adapter{handler: h, transport: tr}
}

// Routes returns the telebot endpoints served by the adapter.
func (a *Adapter) Routes() []coretelegram.Route {
	return []coretelegram.Route{
		{Endpoint: tele.OnText, Handler: a.onUpdate("text")},
		{Endpoint: tele.OnPhoto, Handler: a.onUpdate("photo")},
		{Endpoint: tele.OnDocument, Handler: a.onUpdate("document")},
		{Endpoint: tele.OnCallback, Handler: a.onUpdate("callback")},
	}
}

// OnStart binds the transport to the running bot.
func (a *Adapter) OnStart(_ context.Context, rt coretelegram.Runtime) error {
	a.transport.Bind(rt.Bot)
	return nil
}

// OnLimited answers a rate limited update.
func (a *Adapter) OnLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: textRateLimited})
	}
	return c.Send(textRateLimited)
}

func (a *Adapter) onUpdate(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return tgrouter.Handled(c, name, func() (tgrouter.Summary, error) {
			ctx := tghelpers.BuildContext(nil, c)
			if cb := c.Callback(); cb != nil {
				// Clears the loading indicator on the pressed button.
				if err := c.Respond(); err != nil {
					logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.respond", slog.Any("err", err))
				}
			}
			ev, ok := ToEvent(c)
			if !ok {
				return tgrouter.Summary{Outcome: "skip"}, nil
			}
			tr := &countingTransport{Transport: a.transport}
			err := a.handler.Handle(ctx, tr, ev)
			return tgrouter.Summary{Extras: []slog.Attr{
				slog.Int("messages", tr.count()),
				slog.String("kind", string(ev.Kind)),
			}}, err
		})
	}
}

// ToEvent converts a telebot update. ok is false for updates the router
// does not handle, such as non-image documents.
func ToEvent(c tele.Context) (bot.Event, bool) {
	chat, sender := c.Chat(), c.Sender()
	if chat == nil || sender == nil {
		return bot.Event{}, false
	}
	ev := bot.Event{
		ChatID:      chat.ID,
		UserID:      sender.ID,
		DisplayName: strings.TrimSpace(sender.FirstName + " " + sender.LastName),
	}

	if cb := c.Callback(); cb != nil {
		key, payload := callbacks.Parse(cb)
		ev.Kind = bot.KindCallback
		ev.CallbackData = key
		if payload != "" {
			ev.CallbackData = callbacks.Join(key, payload)
		}
		return ev, true
	}

	msg := c.Message()
	if msg == nil {
		return bot.Event{}, false
	}
	switch {
	case msg.Photo != nil:
		ev.Kind = bot.KindPhoto
		ev.Photos = []bot.PhotoVariant{{
			FileID:   msg.Photo.FileID,
			Width:    msg.Photo.Width,
			Height:   msg.Photo.Height,
			FileSize: msg.Photo.FileSize,
		}}
	case msg.Document != nil:
		if !strings.HasPrefix(strings.ToLower(msg.Document.MIME), "image/") {
			return bot.Event{}, false
		}
		ev.Kind = bot.KindPhoto
		ev.Photos = []bot.PhotoVariant{{
			FileID:   msg.Document.FileID,
			FileSize: msg.Document.FileSize,
			MIME:     msg.Document.MIME,
		}}
	default:
		ev.Kind = bot.KindText
		ev.Text = msg.Text
	}
	return ev, true
}

// countingTransport counts messages sent while handling one update.
type countingTransport struct {
	*Transport
	mu sync.Mutex
	n  int
}

func (c *countingTransport) Send(ctx context.Context, chatID int64, msg bot.Message) error {
	err := c.Transport.Send(ctx, chatID, msg)
	if err == nil {
		c.mu.Lock()
		c.n++
		c.mu.Unlock()
	}
	return err
}

func (c *countingTransport) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
