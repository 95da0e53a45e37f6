// Package session keeps transient per-chat roles and per-user pending continuations.
package session

import (
	"context"
	"time"
)

// Role is the conversation role chosen in a chat.
type Role string

const (
	RoleUnset  Role = ""
	RoleClient Role = "client"
	RoleMaster Role = "master"
)

// String renders RoleUnset as "unset" for logs.
func (r Role) String() string {
	if r == RoleUnset {
		return "unset"
	}
	return string(r)
}

// Menu names the keyboard currently shown in a chat. Values are owned by the router.
type Menu string

// Tag says what the next message from a user is expected to be.
type Tag string

const (
	TagReviewText         Tag = "review_text"
	TagMasterSecret       Tag = "master_secret"
	TagUploadPrice        Tag = "upload_price"
	TagUploadAvailability Tag = "upload_availability"
)

// Pending is a single-use continuation.
type Pending struct {
	Tag    Tag       `json:"tag"`
	Rating int       `json:"rating,omitempty"`
	SetAt  time.Time `json:"set_at"`
}

// Store holds session state. TakePending returns a continuation at most once.
type Store interface {
	Role(ctx context.Context, chatID int64) (Role, error)
	SetRole(ctx context.Context, chatID int64, role Role) error
	Menu(ctx context.Context, chatID int64) (Menu, error)
	SetMenu(ctx context.Context, chatID int64, menu Menu) error

	SetPending(ctx context.Context, userID int64, p Pending) error
	TakePending(ctx context.Context, userID int64) (Pending, bool, error)
	ClearPending(ctx context.Context, userID int64) error
}

// Option configures a Store implementation.
type Option func(*options)

type options struct {
	ttl    time.Duration
	now    func() time.Time
	prefix string
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, prefix: "salonbot"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPendingTTL expires continuations older than ttl. Zero keeps them forever.
func WithPendingTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithKeyPrefix sets the redis key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}
