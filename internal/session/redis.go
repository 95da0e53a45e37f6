package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	fieldRole = "role"
	fieldMenu = "menu"
)

type redisStore struct {
	c    redis.UniversalClient
	opts options
}

// NewRedisStore returns a Store shared by every replica connected to c.
// Chat state lives in a hash per chat; a pending continuation is a plain key
// read with GETDEL.
func NewRedisStore(c redis.UniversalClient, opts ...Option) Store {
	return &redisStore{c: c, opts: buildOptions(opts)}
}

func (r *redisStore) chatKey(chatID int64) string {
	return fmt.Sprintf("%s:chat:%d", r.opts.prefix, chatID)
}

func (r *redisStore) pendingKey(userID int64) string {
	return fmt.Sprintf("%s:pending:%d", r.opts.prefix, userID)
}

func (r *redisStore) field(ctx context.Context, chatID int64, name string) (string, error) {
	v, err := r.c.HGet(ctx, r.chatKey(chatID), name).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: redis hget %s: %w", name, err)
	}
	return v, nil
}

func (r *redisStore) setField(ctx context.Context, chatID int64, name, value string) error {
	if err := r.c.HSet(ctx, r.chatKey(chatID), name, value).Err(); err != nil {
		return fmt.Errorf("session: redis hset %s: %w", name, err)
	}
	return nil
}

func (r *redisStore) Role(ctx context.Context, chatID int64) (Role, error) {
	v, err := r.field(ctx, chatID, fieldRole)
	return Role(v), err
}

func (r *redisStore) SetRole(ctx context.Context, chatID int64, role Role) error {
	return r.setField(ctx, chatID, fieldRole, string(role))
}

func (r *redisStore) Menu(ctx context.Context, chatID int64) (Menu, error) {
	v, err := r.field(ctx, chatID, fieldMenu)
	return Menu(v), err
}

func (r *redisStore) SetMenu(ctx context.Context, chatID int64, menu Menu) error {
	return r.setField(ctx, chatID, fieldMenu, string(menu))
}

func (r *redisStore) SetPending(ctx context.Context, userID int64, p Pending) error {
	if p.SetAt.IsZero() {
		p.SetAt = r.opts.now()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("session: encode pending: %w", err)
	}
	if err := r.c.Set(ctx, r.pendingKey(userID), b, r.opts.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set pending: %w", err)
	}
	return nil
}

func (r *redisStore) TakePending(ctx context.Context, userID int64) (Pending, bool, error) {
	b, err := r.c.GetDel(ctx, r.pendingKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Pending{}, false, nil
	}
	if err != nil {
		return Pending{}, false, fmt.Errorf("session: redis getdel pending: %w", err)
	}
	var p Pending
	if err := json.Unmarshal(b, &p); err != nil {
		return Pending{}, false, fmt.Errorf("session: decode pending: %w", err)
	}
	return p, true, nil
}

func (r *redisStore) ClearPending(ctx context.Context, userID int64) error {
	if err := r.c.Del(ctx, r.pendingKey(userID)).Err(); err != nil {
		return fmt.Errorf("session: redis del pending: %w", err)
	}
	return nil
}
