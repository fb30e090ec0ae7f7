package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"classtrack/internal/rfid"
	"classtrack/internal/treestore"
)

// ReadersPath is the room-to-reader mapping table:
// Reader_Assignments/{building key}/{room} -> {"kind":"rfid","uid":...}.
const ReadersPath = "Reader_Assignments"

// Service answers the schedule boards: per-room status, building listings
// and the explicit stale-assignment reconciliation.
type Service struct {
	store treestore.Store
	cards *rfid.Service
}

// NewService creates a service.
func NewService(store treestore.Store, cards *rfid.Service) *Service {
	return &Service{store: store, cards: cards}
}

// RoomInfo is one board cell: the room, its derived status and whatever
// could be read for it. Assignment is nil when the record is absent or
// malformed; the board renders a placeholder, never an error.
type RoomInfo struct {
	Room       string       `json:"room"`
	Status     Status       `json:"status"`
	Assignment *Assignment  `json:"assignment,omitempty"`
	Card       *rfid.Record `json:"card,omitempty"`
}

// SourceFor resolves a room's status capability from the mapping table.
// Rooms without a mapping are assignment-only.
func (s *Service) SourceFor(ctx context.Context, b Building, room string) (Source, error) {
	raw, err := s.store.Get(ctx, ReadersPath+"/"+b.Key+"/"+room)
	if errors.Is(err, treestore.ErrNotFound) {
		return Source{Kind: AssignmentOnly}, nil
	}
	if err != nil {
		return Source{}, err
	}
	var src Source
	if err := json.Unmarshal(raw, &src); err != nil || src.UID == "" {
		return Source{Kind: AssignmentOnly}, nil
	}
	src.Kind = RfidBacked
	return src, nil
}

// RoomStatus derives one room's status and returns the backing records.
func (s *Service) RoomStatus(ctx context.Context, b Building, room string) (RoomInfo, error) {
	info := RoomInfo{Room: room}
	info.Assignment = s.assignment(ctx, b, room)

	src, err := s.SourceFor(ctx, b, room)
	if err != nil {
		return info, err
	}
	if src.Kind == RfidBacked {
		card, err := s.cards.Latest(ctx, src.UID)
		if err != nil {
			return info, err
		}
		info.Card = card
	}
	scheduled := info.Assignment != nil && info.Assignment.Scheduled()
	info.Status = ComputeStatus(src, info.Card, scheduled)
	return info, nil
}

// ListRooms derives the whole board for a building in two subtree reads
// plus the card lookups for mapped rooms.
func (s *Service) ListRooms(ctx context.Context, b Building) ([]RoomInfo, error) {
	assignments, err := s.store.List(ctx, b.Base)
	if err != nil {
		return nil, err
	}
	sources, err := s.sources(ctx, b)
	if err != nil {
		return nil, err
	}

	var out []RoomInfo
	for _, floor := range b.Floors {
		for _, n := range floor.Rooms {
			room := fmt.Sprintf("%d", n)
			info := RoomInfo{Room: room}
			if raw, ok := assignments[room]; ok {
				var a Assignment
				if err := json.Unmarshal(raw, &a); err == nil {
					info.Assignment = &a
				}
			}
			src, ok := sources[room]
			if !ok {
				src = Source{Kind: AssignmentOnly}
			}
			if src.Kind == RfidBacked {
				card, err := s.cards.Latest(ctx, src.UID)
				if err != nil {
					return nil, err
				}
				info.Card = card
			}
			scheduled := info.Assignment != nil && info.Assignment.Scheduled()
			info.Status = ComputeStatus(src, info.Card, scheduled)
			out = append(out, info)
		}
	}
	return out, nil
}

// ReconcileStaleAssignment clears a room's schedule fields to the sentinel
// when its reader shows a completed visit. This is the mutation the legacy
// status query performed as a side effect; callers opt in explicitly (the
// worker does, the read path never does). Returns true when a clear was
// written.
func (s *Service) ReconcileStaleAssignment(ctx context.Context, b Building, room string) (bool, error) {
	src, err := s.SourceFor(ctx, b, room)
	if err != nil {
		return false, err
	}
	if src.Kind != RfidBacked {
		return false, nil
	}
	card, err := s.cards.Latest(ctx, src.UID)
	if err != nil {
		return false, err
	}
	if card == nil || card.TimeOut == "" {
		return false, nil
	}
	a := s.assignment(ctx, b, room)
	if a == nil || !a.Scheduled() {
		return false, nil
	}
	if err := s.store.Update(ctx, b.Base+"/"+room, Cleared()); err != nil {
		return false, err
	}
	return true, nil
}

// RoomForCard finds the building/room a card UID is mapped to, if any.
func (s *Service) RoomForCard(ctx context.Context, uid string) (Building, string, bool, error) {
	items, err := s.store.List(ctx, ReadersPath)
	if err != nil {
		return Building{}, "", false, err
	}
	for rel, raw := range items {
		var src Source
		if err := json.Unmarshal(raw, &src); err != nil || src.UID != uid {
			continue
		}
		parts := strings.SplitN(rel, "/", 2)
		if len(parts) != 2 {
			continue
		}
		b, ok := BuildingFor(parts[0])
		if !ok {
			continue
		}
		return b, parts[1], true, nil
	}
	return Building{}, "", false, nil
}

// SeedReaders installs mapping rows from "building/room=uid" pairs without
// overwriting rows operators have edited.
func (s *Service) SeedReaders(ctx context.Context, seeds string) error {
	for _, pair := range strings.Split(seeds, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		eq := strings.LastIndex(pair, "=")
		if eq < 0 {
			log.Printf("rooms: skipping malformed reader seed %q", pair)
			continue
		}
		slash := strings.LastIndex(pair[:eq], "/")
		if slash < 0 {
			log.Printf("rooms: skipping malformed reader seed %q", pair)
			continue
		}
		buildingKey, room, uid := pair[:slash], pair[slash+1:eq], pair[eq+1:]
		b, ok := BuildingFor(strings.TrimSpace(buildingKey))
		if !ok {
			log.Printf("rooms: skipping reader seed for unknown building %q", buildingKey)
			continue
		}
		path := ReadersPath + "/" + b.Key + "/" + strings.TrimSpace(room)
		if _, err := s.store.Get(ctx, path); err == nil {
			continue
		} else if !errors.Is(err, treestore.ErrNotFound) {
			return err
		}
		src := Source{Kind: RfidBacked, UID: strings.TrimSpace(uid)}
		if err := s.store.Set(ctx, path, src); err != nil {
			return err
		}
	}
	return nil
}

// sources loads the building's slice of the mapping table keyed by room.
func (s *Service) sources(ctx context.Context, b Building) (map[string]Source, error) {
	items, err := s.store.List(ctx, ReadersPath+"/"+b.Key)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Source, len(items))
	for room, raw := range items {
		var src Source
		if err := json.Unmarshal(raw, &src); err != nil || src.UID == "" {
			continue
		}
		src.Kind = RfidBacked
		out[room] = src
	}
	return out, nil
}

func (s *Service) assignment(ctx context.Context, b Building, room string) *Assignment {
	raw, err := s.store.Get(ctx, b.Base+"/"+room)
	if err != nil {
		return nil
	}
	var a Assignment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil
	}
	return &a
}
