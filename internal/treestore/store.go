package treestore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// The tree store keeps JSON documents addressed by slash-separated paths,
// preserving the path schema the mobile clients were built against:
//
//	students/{id}            instructors/{id}
//	Rooms_Information/{room} {Building}_Rooms_Information/{room}
//	RFID_Cards/{uid}         Room_Requests/{id}
//	Requesting_Room          Requesting_Classroom/{room}
//	Reader_Assignments/{building}/{room}
//
// Watchers receive whole-subtree snapshots on every change under their
// prefix; there is no incremental diff contract, and no ordering guarantee
// across unrelated prefixes.

// ErrNotFound is returned when no document exists at a path.
var ErrNotFound = errors.New("treestore: path not found")

// Snapshot is the full state of a subtree at some point in time. Keys are
// paths relative to the watched/listed prefix.
type Snapshot struct {
	Prefix string
	Items  map[string]json.RawMessage
}

// Store is the abstraction over tree store backends.
type Store interface {
	// Get returns the document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Set replaces the document at path.
	Set(ctx context.Context, path string, value any) error
	// Update merges fields into the document at path, creating it if absent.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Push stores value under an auto-generated child key and returns the key.
	Push(ctx context.Context, path string, value any) (string, error)
	// Delete removes the document at path. Deleting an absent path is not an error.
	Delete(ctx context.Context, path string) error
	// List returns every document under prefix, keyed by relative path.
	// An empty subtree yields an empty map, never an error.
	List(ctx context.Context, prefix string) (map[string]json.RawMessage, error)
	// CompareAndSwapField sets a single string field only if its current
	// value equals expect. Returns false when the guard fails.
	CompareAndSwapField(ctx context.Context, path, field, expect, next string) (bool, error)
	// Watch streams subtree snapshots for prefix until the returned cancel
	// func is called or ctx is done. The channel is closed on teardown.
	Watch(ctx context.Context, prefix string) (<-chan Snapshot, func())
}

// topSegment returns the first path segment; watch fan-out and the redis
// subtree index are keyed by it.
func topSegment(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// underPrefix reports whether path is prefix itself or a descendant of it,
// and returns the relative remainder.
func underPrefix(path, prefix string) (string, bool) {
	if path == prefix {
		return "", true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix)+1:], true
	}
	return "", false
}

func validPath(path string) bool {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return false
	}
	return !strings.Contains(path, "//")
}

func marshal(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// mergeFields applies a field merge onto an existing raw document. A nil or
// non-object existing document is treated as empty.
func mergeFields(existing json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &doc)
	}
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		doc[k] = b
	}
	return json.Marshal(doc)
}

// fieldString extracts a string field from a raw document.
func fieldString(raw json.RawMessage, field string) (string, bool) {
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", false
	}
	b, ok := doc[field]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", false
	}
	return s, true
}
