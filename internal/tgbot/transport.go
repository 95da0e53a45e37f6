// Package tgbot connects the salon router to Telegram through telebot.
package tgbot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/m3rciful/salonbot/core/logger"
	coretelegram "github.com/m3rciful/salonbot/core/telegram"
	"github.com/m3rciful/salonbot/core/telegram/keyboard"
	"github.com/m3rciful/salonbot/internal/bot"
	"github.com/m3rciful/salonbot/internal/metrics"

	tele "gopkg.in/telebot.v4"
)

// MaxDownloadBytes caps photo downloads; the Bot API serves files up to 20 MB.
const MaxDownloadBytes = 20 << 20

// ErrNotBound is returned before Bind attached a running bot.
var ErrNotBound = errors.New("tgbot: transport not bound to a bot")

// API is the subset of *tele.Bot used by Transport.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	FileByID(fileID string) (tele.File, error)
	File(file *tele.File) (io.ReadCloser, error)
}

// Transport sends router messages through the Bot API.
type Transport struct {
	token string

	mu  sync.RWMutex
	api API
}

// NewTransport returns an unbound Transport. token is only used to redact logs.
func NewTransport(token string) *Transport {
	return &Transport{token: token}
}

// Bind attaches api. Called once the bot is built.
func (t *Transport) Bind(api API) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.api = api
}

func (t *Transport) client() (API, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.api == nil {
		return nil, ErrNotBound
	}
	return t.api, nil
}

// Send implements bot.Transport.
func (t *Transport) Send(ctx context.Context, chatID int64, msg bot.Message) error {
	api, err := t.client()
	if err != nil {
		return err
	}
	opts := &tele.SendOptions{ReplyMarkup: Markup(msg.Keyboard)}
	if msg.Markdown {
		opts.ParseMode = tele.ModeMarkdown
	}

	var (
		what interface{} = msg.Text
		kind             = "text"
	)
	if msg.Image != nil {
		kind = "photo"
		what = &tele.Photo{File: tele.FromReader(bytes.NewReader(msg.Image.Data)), Caption: msg.Text}
	}

	start := time.Now()
	_, err = api.Send(tele.ChatID(chatID), what, opts)
	metrics.ObserveSend(kind, err)
	if err != nil {
		err = t.redact(err)
		logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.send",
			slog.String("outcome", "fail"),
			slog.String("kind", kind),
			slog.Any("err", err),
		)
		return &bot.TransportError{Op: "send", Err: err}
	}
	if logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.send",
			slog.String("outcome", "ok"),
			slog.String("kind", kind),
			slog.Bool("kb", msg.Keyboard != nil),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return nil
}

// Fetch implements bot.Transport. The returned kind is the extension of the
// stored Telegram file path.
func (t *Transport) Fetch(ctx context.Context, photo bot.PhotoVariant) ([]byte, string, error) {
	api, err := t.client()
	if err != nil {
		return nil, "", err
	}
	start := time.Now()
	file, err := api.FileByID(photo.FileID)
	if err != nil {
		return nil, "", &bot.TransportError{Op: "file", Err: t.redact(err)}
	}
	rc, err := api.File(&file)
	if err != nil {
		return nil, "", &bot.TransportError{Op: "download", Err: t.redact(err)}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxDownloadBytes+1))
	if err != nil {
		return nil, "", &bot.TransportError{Op: "download", Err: t.redact(err)}
	}
	if len(data) > MaxDownloadBytes {
		return nil, "", &bot.TransportError{Op: "download", Err: fmt.Errorf("file exceeds %d bytes", MaxDownloadBytes)}
	}
	kind := path.Ext(file.FilePath)
	if kind == "" {
		kind = photo.MIME
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "tg.fetch",
		slog.String("outcome", "ok"),
		slog.Int("size", len(data)),
		slog.Duration("duration", logger.Took(start)),
	)
	return data, kind, nil
}

func (t *Transport) redact(err error) error {
	if err == nil || t.token == "" {
		return err
	}
	return redactedError{msg: coretelegram.RedactToken(err.Error(), t.token), err: err}
}

// redactedError hides the bot token from Error while keeping the chain.
type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }

// Markup converts a router keyboard to telebot markup.
func Markup(kb *bot.Keyboard) *tele.ReplyMarkup {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return keyboard.RemoveKeyboard()
	case len(kb.Inline) > 0:
		rows := make([][]keyboard.InlineBtn, 0, len(kb.Inline))
		for _, row := range kb.Inline {
			r := make([]keyboard.InlineBtn, 0, len(row))
			for _, b := range row {
				r = append(r, keyboard.InlineBtn{Text: b.Text, Data: b.Data})
			}
			rows = append(rows, r)
		}
		return keyboard.InlineButtonsRows(rows...)
	case len(kb.Reply) > 0:
		return keyboard.ReplyButtons(kb.Reply...)
	}
	return nil
}
