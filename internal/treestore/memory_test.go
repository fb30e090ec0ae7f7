package treestore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemorySetGet(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	err := s.Set(ctx, "RFID_Cards/ab:cd", map[string]string{"Name": "Reyes"})
	assert.NoError(t, err)

	raw, err := s.Get(ctx, "RFID_Cards/ab:cd")
	assert.NoError(t, err)

	var doc map[string]string
	assert.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Reyes", doc["Name"])
}

func TestMemoryGetMissing(t *testing.T) {
	s := NewMemory()

	_, err := s.Get(context.Background(), "Rooms_Information/101")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryInvalidPaths(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	for _, p := range []string{"", "/leading", "trailing/", "a//b"} {
		assert.Error(t, s.Set(ctx, p, "x"), "path %q", p)
	}
}

func TestMemoryListEmptySubtree(t *testing.T) {
	s := NewMemory()

	items, err := s.List(context.Background(), "Room_Requests")
	assert.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestMemoryListRelativeKeys(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	assert.NoError(t, s.Set(ctx, "students/1001", map[string]string{"id": "1001"}))
	assert.NoError(t, s.Set(ctx, "students/1002", map[string]string{"id": "1002"}))
	assert.NoError(t, s.Set(ctx, "instructors/77", map[string]string{"id": "77"}))

	items, err := s.List(ctx, "students")
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Contains(t, items, "1001")
	assert.Contains(t, items, "1002")
}

func TestMemoryUpdateMergesFields(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	assert.NoError(t, s.Set(ctx, "Rooms_Information/205", map[string]string{
		"Instructor": "Cruz",
		"Section":    "BSIT-3A",
	}))
	assert.NoError(t, s.Update(ctx, "Rooms_Information/205", map[string]any{
		"Section": "BSIT-3B",
	}))

	raw, err := s.Get(ctx, "Rooms_Information/205")
	assert.NoError(t, err)
	var doc map[string]string
	assert.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Cruz", doc["Instructor"])
	assert.Equal(t, "BSIT-3B", doc["Section"])
}

func TestMemoryUpdateCreatesMissing(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	assert.NoError(t, s.Update(ctx, "Rooms_Information/110", map[string]any{"Instructor": "N/A"}))

	raw, err := s.Get(ctx, "Rooms_Information/110")
	assert.NoError(t, err)
	v, ok := fieldString(raw, "Instructor")
	assert.True(t, ok)
	assert.Equal(t, "N/A", v)
}

func TestMemoryPushGeneratesDistinctKeys(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	k1, err := s.Push(ctx, "Requesting_Room", map[string]string{"roomNumber": "205"})
	assert.NoError(t, err)
	k2, err := s.Push(ctx, "Requesting_Room", map[string]string{"roomNumber": "206"})
	assert.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	items, err := s.List(ctx, "Requesting_Room")
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Contains(t, items, k1)
	assert.Contains(t, items, k2)
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	assert.NoError(t, s.Set(ctx, "RFID_Cards/x", "v"))
	assert.NoError(t, s.Delete(ctx, "RFID_Cards/x"))
	assert.NoError(t, s.Delete(ctx, "RFID_Cards/x"))

	_, err := s.Get(ctx, "RFID_Cards/x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCompareAndSwapField(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	assert.NoError(t, s.Set(ctx, "Room_Requests/77", map[string]string{"status": "Pending"}))

	swapped, err := s.CompareAndSwapField(ctx, "Room_Requests/77", "status", "Pending", "Accepted")
	assert.NoError(t, err)
	assert.True(t, swapped)

	// second decision loses the guard
	swapped, err = s.CompareAndSwapField(ctx, "Room_Requests/77", "status", "Pending", "Rejected")
	assert.NoError(t, err)
	assert.False(t, swapped)

	raw, err := s.Get(ctx, "Room_Requests/77")
	assert.NoError(t, err)
	v, _ := fieldString(raw, "status")
	assert.Equal(t, "Accepted", v)
}

func TestMemoryCompareAndSwapMissingDoc(t *testing.T) {
	s := NewMemory()

	_, err := s.CompareAndSwapField(context.Background(), "Room_Requests/none", "status", "Pending", "Accepted")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryWatchDeliversSnapshots(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	snaps, cancel := s.Watch(ctx, "RFID_Cards")
	defer cancel()

	assert.NoError(t, s.Set(ctx, "RFID_Cards/ab", map[string]string{"Room": "205"}))

	select {
	case snap := <-snaps:
		assert.Equal(t, "RFID_Cards", snap.Prefix)
		assert.Contains(t, snap.Items, "ab")
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	// writes outside the prefix are not delivered
	assert.NoError(t, s.Set(ctx, "Rooms_Information/101", "x"))
	select {
	case snap := <-snaps:
		t.Fatalf("unexpected snapshot for prefix %q", snap.Prefix)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryWatchCancelClosesChannel(t *testing.T) {
	s := NewMemory()

	snaps, cancel := s.Watch(context.Background(), "Room_Requests")
	cancel()
	cancel() // safe to call twice

	_, open := <-snaps
	assert.False(t, open)

	// writes after cancel do not panic
	assert.NoError(t, s.Set(context.Background(), "Room_Requests/1", "v"))
}

func TestUnderPrefix(t *testing.T) {
	rel, ok := underPrefix("students/1001", "students")
	assert.True(t, ok)
	assert.Equal(t, "1001", rel)

	rel, ok = underPrefix("students", "students")
	assert.True(t, ok)
	assert.Equal(t, "", rel)

	_, ok = underPrefix("students_archive/1", "students")
	assert.False(t, ok)
}
