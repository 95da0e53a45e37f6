package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Separator splits a callback key from its payload in raw button data.
const Separator = "|"

// Split parses "key|payload" data. Payload is empty when the separator is missing.
func Split(data string) (string, string) {
	data = strings.TrimPrefix(data, "\f")
	key, payload, _ := strings.Cut(data, Separator)
	return strings.TrimSpace(key), payload
}

// Join encodes a key and payload as raw button data.
func Join(key, payload string) string {
	return key + Separator + payload
}

// Parse returns key and payload of cb. Buttons registered with a telebot unique
// arrive with Unique set; raw buttons carry both parts in Data.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return Split(cb.Data)
}

// Key returns the callback key of the current update.
func Key(c tele.Context) string {
	k, _ := Parse(c.Callback())
	return k
}
