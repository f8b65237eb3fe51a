package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "sketchcanvas:canvas:"
	redisIndexKey  = "sketchcanvas:canvases"
)

// RedisStore keeps each canvas as a JSON string value and tracks IDs in a
// set, so several API instances can share one store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the server at url (redis://[:pass@]host:port/db)
// and verifies the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	if len(ids) == 0 {
		return []Summary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load canvases: %w", err)
	}

	list := make([]Summary, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Index entry without a value; deleted concurrently.
			continue
		}
		var c Canvas
		if err := json.Unmarshal([]byte(str), &c); err != nil {
			continue
		}
		list = append(list, c.Summary())
	}
	sortSummaries(list)
	return list, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Canvas, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	var c Canvas
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse canvas %s: %w", id, err)
	}
	return &c, nil
}

func (s *RedisStore) Create(ctx context.Context, name string, drawings []json.RawMessage) (*Canvas, error) {
	c, err := newCanvas(name, drawings)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal canvas: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisKey(c.ID), data, 0)
		p.SAdd(ctx, redisIndexKey, c.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store canvas: %w", err)
	}
	return c, nil
}

// Replace uses WATCH so a concurrent Delete is not undone.
func (s *RedisStore) Replace(ctx context.Context, id, name string, drawings []json.RawMessage) error {
	key := redisKey(id)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var c Canvas
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("parse canvas %s: %w", id, err)
		}
		if err := c.apply(name, drawings); err != nil {
			return err
		}
		out, err := json.Marshal(&c)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("replace canvas %s: concurrent modification: %w", id, err)
	}
	return err
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, redisKey(id))
		p.SRem(ctx, redisIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete canvas: %w", err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
