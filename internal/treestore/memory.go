package treestore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Memory is a mutex-guarded in-process store for dev and tests, mirroring
// the memory/redis split of the swipe queue.
type Memory struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
	subs map[int]*memSub
	next int
}

type memSub struct {
	prefix string
	ch     chan Snapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]json.RawMessage),
		subs: make(map[int]*memSub),
	}
}

// Get returns the document at path.
func (m *Memory) Get(_ context.Context, path string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[path]
	if !ok {
		return nil, ErrNotFound
	}
	return raw, nil
}

// Set replaces the document at path.
func (m *Memory) Set(_ context.Context, path string, value any) error {
	if !validPath(path) {
		return errors.New("treestore: invalid path")
	}
	raw, err := marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[path] = raw
	m.notifyLocked(path)
	m.mu.Unlock()
	return nil
}

// Update merges fields into the document at path.
func (m *Memory) Update(_ context.Context, path string, fields map[string]any) error {
	if !validPath(path) {
		return errors.New("treestore: invalid path")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	merged, err := mergeFields(m.data[path], fields)
	if err != nil {
		return err
	}
	m.data[path] = merged
	m.notifyLocked(path)
	return nil
}

// Push stores value under an auto-generated child key.
func (m *Memory) Push(ctx context.Context, path string, value any) (string, error) {
	key := uuid.NewString()
	return key, m.Set(ctx, path+"/"+key, value)
}

// Delete removes the document at path.
func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	if _, ok := m.data[path]; ok {
		delete(m.data, path)
		m.notifyLocked(path)
	}
	m.mu.Unlock()
	return nil
}

// List returns the subtree under prefix.
func (m *Memory) List(_ context.Context, prefix string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(prefix), nil
}

// CompareAndSwapField sets a string field only if it currently equals expect.
func (m *Memory) CompareAndSwapField(_ context.Context, path, field, expect, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[path]
	if !ok {
		return false, ErrNotFound
	}
	cur, _ := fieldString(raw, field)
	if cur != expect {
		return false, nil
	}
	merged, err := mergeFields(raw, map[string]any{field: next})
	if err != nil {
		return false, err
	}
	m.data[path] = merged
	m.notifyLocked(path)
	return true, nil
}

// Watch streams subtree snapshots for prefix.
func (m *Memory) Watch(ctx context.Context, prefix string) (<-chan Snapshot, func()) {
	sub := &memSub{prefix: prefix, ch: make(chan Snapshot, 8)}
	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = sub
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(sub.ch)
		})
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return sub.ch, cancel
}

// notifyLocked fans the changed path out to matching watchers. Callers hold
// the write lock. A slow consumer loses intermediate snapshots, never the
// latest one.
func (m *Memory) notifyLocked(path string) {
	for _, sub := range m.subs {
		if _, ok := underPrefix(path, sub.prefix); !ok {
			continue
		}
		snap := Snapshot{Prefix: sub.prefix, Items: m.snapshotLocked(sub.prefix)}
		select {
		case sub.ch <- snap:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}

func (m *Memory) snapshotLocked(prefix string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	for p, raw := range m.data {
		if rel, ok := underPrefix(p, prefix); ok {
			out[rel] = raw
		}
	}
	return out
}
