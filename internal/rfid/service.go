package rfid

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"time"

	"classtrack/internal/queue"
	"classtrack/internal/treestore"
	"classtrack/internal/validate"
)

// CardsPath is the live attendance subtree.
const CardsPath = "RFID_Cards"

// Service ingests swipes from the reader bridge and serves the log views.
// Each swipe replaces the card's live record, appends an audit row and
// hands the event to the worker for assignment reconciliation.
type Service struct {
	store treestore.Store
	repo  *Repository
	q     queue.Queue
}

// NewService creates a service. repo may be nil when Postgres is not
// reachable; the live tree keeps working and audit rows are skipped.
func NewService(store treestore.Store, repo *Repository, q queue.Queue) *Service {
	return &Service{store: store, repo: repo, q: q}
}

// SwipeInput is one card tap reported by the reader bridge.
type SwipeInput struct {
	UID       string `json:"uid" binding:"required"`
	Name      string `json:"name"`
	Institute string `json:"institute"`
	Building  string `json:"building"`
	Room      string `json:"room"`
	At        string `json:"at"` // HH:MM, reader clock; defaults to server time
}

// Swipe toggles the card's visit: an open record gets its TimeOut stamped,
// anything else starts a fresh visit with TimeIn set and TimeOut empty.
func (s *Service) Swipe(ctx context.Context, in SwipeInput) (Record, error) {
	if in.UID == "" {
		return Record{}, validate.NewError("", validate.FieldError{Field: "uid", Error: "required"})
	}
	stamp := in.At
	if stamp == "" {
		stamp = time.Now().UTC().Format("15:04")
	}

	path := CardsPath + "/" + in.UID
	var rec Record
	direction := "in"
	raw, err := s.store.Get(ctx, path)
	if err == nil {
		_ = json.Unmarshal(raw, &rec)
	} else if !errors.Is(err, treestore.ErrNotFound) {
		return Record{}, err
	}

	if rec.Open() {
		rec.TimeOut = stamp
		direction = "out"
	} else {
		rec = Record{
			UID:       in.UID,
			Name:      pick(in.Name, rec.Name),
			Institute: pick(in.Institute, rec.Institute),
			Building:  pick(in.Building, rec.Building),
			Room:      pick(in.Room, rec.Room),
			TimeIn:    stamp,
			TimeOut:   "",
		}
	}
	if err := s.store.Set(ctx, path, rec); err != nil {
		return Record{}, err
	}

	eventID := ""
	if s.repo != nil {
		evt, err := s.repo.InsertEvent(ctx, Event{
			CardUID:   rec.UID,
			Name:      rec.Name,
			Institute: rec.Institute,
			Building:  rec.Building,
			Room:      rec.Room,
			Direction: direction,
		})
		if err != nil {
			log.Printf("rfid: audit insert failed for %s: %v", rec.UID, err)
		} else {
			eventID = evt.ID
		}
	}
	if s.q != nil {
		if err := s.q.Publish(ctx, queue.Message{Type: "swipe", Body: []byte(swipeBody(rec.UID, direction, eventID))}); err != nil {
			log.Printf("rfid: queue publish failed for %s: %v", rec.UID, err)
		}
	}
	return rec, nil
}

// SwipeWork is the queue payload handed to the worker.
type SwipeWork struct {
	UID       string `json:"uid"`
	Direction string `json:"direction"`
	EventID   string `json:"event_id,omitempty"`
}

func swipeBody(uid, direction, eventID string) string {
	b, _ := json.Marshal(SwipeWork{UID: uid, Direction: direction, EventID: eventID})
	return string(b)
}

// Logs returns every live card record, ordered by UID for stable tables.
// Malformed entries are skipped rather than failing the whole view.
func (s *Service) Logs(ctx context.Context) ([]Record, error) {
	items, err := s.store.List(ctx, CardsPath)
	if err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(items))
	for key, raw := range items {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.UID == "" {
			rec.UID = key
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].UID < recs[j].UID })
	return recs, nil
}

// Latest returns the live record for a card, or nil when none exists. An
// unparseable record reads as absent; one bad write must not take a room
// board down.
func (s *Service) Latest(ctx context.Context, uid string) (*Record, error) {
	raw, err := s.store.Get(ctx, CardsPath+"/"+uid)
	if errors.Is(err, treestore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil
	}
	if rec.UID == "" {
		rec.UID = uid
	}
	return &rec, nil
}

// History returns paged audit rows; empty when no repo is configured.
func (s *Service) History(ctx context.Context, cardUID, building, room string, limit, offset int) ([]Event, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListEvents(ctx, cardUID, building, room, limit, offset)
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
