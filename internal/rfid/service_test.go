package rfid

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"classtrack/internal/queue"
	"classtrack/internal/treestore"
	"classtrack/internal/validate"
)

func TestSwipeTogglesVisit(t *testing.T) {
	svc := NewService(treestore.NewMemory(), nil, nil)
	ctx := context.Background()

	rec, err := svc.Swipe(ctx, SwipeInput{
		UID: "23:3f:b1:d9", Name: "Cruz", Institute: "ICS",
		Building: "New Building", Room: "205", At: "08:15",
	})
	assert.NoError(t, err)
	assert.Equal(t, "08:15", rec.TimeIn)
	assert.Empty(t, rec.TimeOut)
	assert.True(t, rec.Open())

	rec, err = svc.Swipe(ctx, SwipeInput{UID: "23:3f:b1:d9", At: "10:00"})
	assert.NoError(t, err)
	assert.Equal(t, "08:15", rec.TimeIn)
	assert.Equal(t, "10:00", rec.TimeOut)
	assert.False(t, rec.Open())

	// a third tap starts a fresh visit, carrying the profile fields over
	rec, err = svc.Swipe(ctx, SwipeInput{UID: "23:3f:b1:d9", At: "13:00"})
	assert.NoError(t, err)
	assert.Equal(t, "13:00", rec.TimeIn)
	assert.Empty(t, rec.TimeOut)
	assert.Equal(t, "Cruz", rec.Name)
	assert.Equal(t, "205", rec.Room)
}

func TestSwipeRequiresUID(t *testing.T) {
	svc := NewService(treestore.NewMemory(), nil, nil)

	_, err := svc.Swipe(context.Background(), SwipeInput{At: "08:00"})
	var vErr *validate.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestSwipeDefaultsStamp(t *testing.T) {
	svc := NewService(treestore.NewMemory(), nil, nil)

	rec, err := svc.Swipe(context.Background(), SwipeInput{UID: "aa:bb"})
	assert.NoError(t, err)
	assert.Regexp(t, `^\d{2}:\d{2}$`, rec.TimeIn)
}

func TestSwipePublishesWork(t *testing.T) {
	q := queue.NewInMemory(4)
	svc := NewService(treestore.NewMemory(), nil, q)
	ctx := context.Background()

	_, err := svc.Swipe(ctx, SwipeInput{UID: "aa:bb", At: "08:00"})
	assert.NoError(t, err)
	_, err = svc.Swipe(ctx, SwipeInput{UID: "aa:bb", At: "10:00"})
	assert.NoError(t, err)

	msgs, err := q.Consume(ctx)
	assert.NoError(t, err)

	var work SwipeWork
	msg := <-msgs
	assert.Equal(t, "swipe", msg.Type)
	assert.NoError(t, json.Unmarshal(msg.Body, &work))
	assert.Equal(t, "aa:bb", work.UID)
	assert.Equal(t, "in", work.Direction)

	msg = <-msgs
	assert.NoError(t, json.Unmarshal(msg.Body, &work))
	assert.Equal(t, "out", work.Direction)
}

func TestLogsSortedSkipsMalformed(t *testing.T) {
	store := treestore.NewMemory()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.Swipe(ctx, SwipeInput{UID: "bb:02", At: "08:00"})
	assert.NoError(t, err)
	_, err = svc.Swipe(ctx, SwipeInput{UID: "aa:01", At: "09:00"})
	assert.NoError(t, err)
	assert.NoError(t, store.Set(ctx, CardsPath+"/broken", json.RawMessage(`[]`)))

	logs, err := svc.Logs(ctx)
	assert.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, "aa:01", logs[0].UID)
	assert.Equal(t, "bb:02", logs[1].UID)
}

func TestLatest(t *testing.T) {
	svc := NewService(treestore.NewMemory(), nil, nil)
	ctx := context.Background()

	rec, err := svc.Latest(ctx, "no:such:card")
	assert.NoError(t, err)
	assert.Nil(t, rec)

	_, err = svc.Swipe(ctx, SwipeInput{UID: "aa:bb", At: "08:00"})
	assert.NoError(t, err)

	rec, err = svc.Latest(ctx, "aa:bb")
	assert.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, "08:00", rec.TimeIn)
}

func TestLatestTreatsCorruptRecordAsAbsent(t *testing.T) {
	store := treestore.NewMemory()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, CardsPath+"/23:3f:b1:d9", json.RawMessage(`"corrupt"`)))

	rec, err := svc.Latest(ctx, "23:3f:b1:d9")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestHistoryWithoutRepo(t *testing.T) {
	svc := NewService(treestore.NewMemory(), nil, nil)

	events, err := svc.History(context.Background(), "", "", "", 50, 0)
	assert.NoError(t, err)
	assert.Nil(t, events)
}
