// Package bot implements the salon conversation: menus, the review flow and
// master uploads, independent of the chat transport.
package bot

import (
	"context"
	"fmt"
)

// EventKind classifies an inbound event.
type EventKind string

const (
	KindText     EventKind = "text"
	KindPhoto    EventKind = "photo"
	KindCallback EventKind = "callback"
)

// PhotoVariant is one resolution of an uploaded photo.
type PhotoVariant struct {
	FileID   string
	Width    int
	Height   int
	FileSize int64
	MIME     string
}

// Event is an inbound update from a chat.
type Event struct {
	ChatID       int64
	UserID       int64
	Kind         EventKind
	Text         string
	CallbackData string
	DisplayName  string
	Photos       []PhotoVariant
}

// InlineButton is a button attached to a message that sends Data back.
type InlineButton struct {
	Text string
	Data string
}

// Keyboard describes the markup of an outbound message. Reply and Inline are
// mutually exclusive; Remove hides the current reply keyboard.
type Keyboard struct {
	Reply  [][]string
	Inline [][]InlineButton
	Remove bool
}

// Image is binary photo content to send.
type Image struct {
	Name string
	Data []byte
}

// Message is an outbound message. With Image set, Text is the caption.
type Message struct {
	Text     string
	Image    *Image
	Keyboard *Keyboard
	Markdown bool
}

// Transport delivers messages and downloads uploaded photos.
type Transport interface {
	Send(ctx context.Context, chatID int64, msg Message) error
	Fetch(ctx context.Context, photo PhotoVariant) ([]byte, string, error)
}

// TransportError wraps a failed Send or Fetch.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Code is used as err_code in logs.
func (e *TransportError) Code() string { return "TRANSPORT_FAILURE" }

// BestPhoto returns the variant with the largest area, then the largest file.
func BestPhoto(variants []PhotoVariant) (PhotoVariant, bool) {
	var (
		best  PhotoVariant
		found bool
	)
	for _, v := range variants {
		if v.FileID == "" {
			continue
		}
		if !found {
			best, found = v, true
			continue
		}
		area, bestArea := int64(v.Width)*int64(v.Height), int64(best.Width)*int64(best.Height)
		if area > bestArea || (area == bestArea && v.FileSize > best.FileSize) {
			best = v
		}
	}
	return best, found
}
