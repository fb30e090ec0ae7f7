package treestore

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "tree:"
	indexPrefix   = "treeidx:"
	channelPrefix = "treewatch:"
	casAttempts   = 5
)

// Redis stores each path as a string key and keeps a per-top-segment set so
// subtrees can be listed without scanning the keyspace. Watch is built on
// pub/sub: every mutation publishes the changed path on its top segment's
// channel and watchers re-list their prefix.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a store on an existing redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the document at path.
func (s *Redis) Get(ctx context.Context, path string) (json.RawMessage, error) {
	val, err := s.client.Get(ctx, keyPrefix+path).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(val), nil
}

// Set replaces the document at path.
func (s *Redis) Set(ctx context.Context, path string, value any) error {
	if !validPath(path) {
		return errors.New("treestore: invalid path")
	}
	raw, err := marshal(value)
	if err != nil {
		return err
	}
	top := topSegment(path)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+path, string(raw), 0)
	pipe.SAdd(ctx, indexPrefix+top, path)
	pipe.Publish(ctx, channelPrefix+top, path)
	_, err = pipe.Exec(ctx)
	return err
}

// Update merges fields into the document at path, guarded against
// concurrent writers with an optimistic transaction.
func (s *Redis) Update(ctx context.Context, path string, fields map[string]any) error {
	if !validPath(path) {
		return errors.New("treestore: invalid path")
	}
	key := keyPrefix + path
	top := topSegment(path)
	txf := func(tx *redis.Tx) error {
		existing, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		merged, err := mergeFields(json.RawMessage(existing), fields)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(merged), 0)
			pipe.SAdd(ctx, indexPrefix+top, path)
			pipe.Publish(ctx, channelPrefix+top, path)
			return nil
		})
		return err
	}
	for i := 0; i < casAttempts; i++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return errors.New("treestore: update contention")
}

// Push stores value under an auto-generated child key.
func (s *Redis) Push(ctx context.Context, path string, value any) (string, error) {
	key := uuid.NewString()
	return key, s.Set(ctx, path+"/"+key, value)
}

// Delete removes the document at path.
func (s *Redis) Delete(ctx context.Context, path string) error {
	top := topSegment(path)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keyPrefix+path)
	pipe.SRem(ctx, indexPrefix+top, path)
	pipe.Publish(ctx, channelPrefix+top, path)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the subtree under prefix.
func (s *Redis) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	paths, err := s.client.SMembers(ctx, indexPrefix+topSegment(prefix)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage)
	var keys []string
	var rels []string
	for _, p := range paths {
		if rel, ok := underPrefix(p, prefix); ok {
			keys = append(keys, keyPrefix+p)
			rels = append(rels, rel)
		}
	}
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // index entry without a live key, skip
		}
		out[rels[i]] = json.RawMessage(str)
	}
	return out, nil
}

// CompareAndSwapField sets a string field only if it currently equals expect.
func (s *Redis) CompareAndSwapField(ctx context.Context, path, field, expect, next string) (bool, error) {
	key := keyPrefix + path
	top := topSegment(path)
	swapped := false
	txf := func(tx *redis.Tx) error {
		existing, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, _ := fieldString(json.RawMessage(existing), field)
		if cur != expect {
			return nil
		}
		merged, err := mergeFields(json.RawMessage(existing), map[string]any{field: next})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(merged), 0)
			pipe.Publish(ctx, channelPrefix+top, path)
			return nil
		})
		if err == nil {
			swapped = true
		}
		return err
	}
	for i := 0; i < casAttempts; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return swapped, err
	}
	return false, errors.New("treestore: cas contention")
}

// Watch streams subtree snapshots for prefix.
func (s *Redis) Watch(ctx context.Context, prefix string) (<-chan Snapshot, func()) {
	out := make(chan Snapshot, 8)
	watchCtx, cancel := context.WithCancel(ctx)
	pubsub := s.client.Subscribe(watchCtx, channelPrefix+topSegment(prefix))

	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-watchCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if _, match := underPrefix(msg.Payload, prefix); !match {
					continue
				}
				items, err := s.List(watchCtx, prefix)
				if err != nil {
					if watchCtx.Err() == nil {
						log.Printf("treestore: watch list %s failed: %v", prefix, err)
					}
					continue
				}
				snap := Snapshot{Prefix: prefix, Items: items}
				select {
				case out <- snap:
				case <-watchCtx.Done():
					return
				}
			}
		}
	}()
	return out, cancel
}
