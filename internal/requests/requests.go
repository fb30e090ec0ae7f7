package requests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"classtrack/internal/rooms"
	"classtrack/internal/treestore"
	"classtrack/internal/validate"
)

// Tree store subtrees the request flows write to. Targeted requests land at
// Room_Requests/{recipient id}; the two quick flows from the room boards
// push under Requesting_Room and Requesting_Classroom/{room}.
const (
	InboxPath     = "Room_Requests"
	OccupiedPath  = "Requesting_Room"
	ClassroomPath = "Requesting_Classroom"
)

// StatusPending is the only non-terminal request state; Accepted and
// Rejected are terminal.
const (
	StatusPending  = "Pending"
	StatusAccepted = "Accepted"
	StatusRejected = "Rejected"
)

var (
	// ErrAlreadyDecided is returned when a decision hits a request that is
	// no longer Pending; the record is left untouched.
	ErrAlreadyDecided = errors.New("request already decided")
	// ErrNotFound is returned when no request exists at the id.
	ErrNotFound = errors.New("request not found")
	// ErrBadVerdict rejects verdicts outside Accepted/Rejected.
	ErrBadVerdict = errors.New("verdict must be Accepted or Rejected")
)

// Request is the petition record, field names as the clients wrote them.
type Request struct {
	BuildingType string `json:"buildingType"`
	RoomNumber   string `json:"roomNumber"`
	Instructor   string `json:"instructor"`
	Section      string `json:"section"`
	Email        string `json:"email"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	RequesterID  string `json:"yourInstructorId"`
	Status       string `json:"status"`
	RequestDate  string `json:"requestDate"`
}

// Service owns the request lifecycle: creation with client-side validation
// and the guarded Pending->Accepted/Rejected transition.
type Service struct {
	store treestore.Store
	board *rooms.Service
}

// NewService creates a service. board handles the assignment write on
// acceptance.
func NewService(store treestore.Store, board *rooms.Service) *Service {
	return &Service{store: store, board: board}
}

// Create validates and writes a targeted request into the recipient's
// inbox. Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, recipientID string, req Request) (Request, error) {
	fieldErrs := validate.Required(map[string]string{
		"recipientId": recipientID,
		"roomNumber":  req.RoomNumber,
		"instructor":  req.Instructor,
		"section":     req.Section,
		"email":       req.Email,
		"date":        req.Date,
		"time":        req.Time,
		"requesterId": req.RequesterID,
	})
	if len(fieldErrs) > 0 {
		return Request{}, validate.NewError("please fill in all fields", fieldErrs...)
	}
	if !validate.Email(req.Email) {
		return Request{}, validate.NewError("", validate.FieldError{Field: "email", Error: "invalid email address"})
	}
	req.Status = StatusPending
	req.RequestDate = time.Now().UTC().Format(time.RFC3339)
	if err := s.store.Set(ctx, InboxPath+"/"+recipientID, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// RequestOccupied records a quick petition for a currently scheduled room;
// the room's schedule snapshot rides along for the recipient's context.
func (s *Service) RequestOccupied(ctx context.Context, room string, snapshot rooms.Assignment) (string, error) {
	if room == "" {
		return "", validate.NewError("", validate.FieldError{Field: "roomNumber", Error: "required"})
	}
	return s.store.Push(ctx, OccupiedPath, map[string]any{
		"roomNumber": room,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"details":    snapshot,
		"status":     StatusPending,
	})
}

// RequestVacant records an instructor's claim on an unscheduled room.
func (s *Service) RequestVacant(ctx context.Context, room string, req Request) (string, error) {
	fieldErrs := validate.Required(map[string]string{
		"roomNumber": room,
		"instructor": req.Instructor,
		"section":    req.Section,
		"email":      req.Email,
		"time":       req.Time,
	})
	if len(fieldErrs) > 0 {
		return "", validate.NewError("please fill out all fields", fieldErrs...)
	}
	if !validate.Email(req.Email) {
		return "", validate.NewError("", validate.FieldError{Field: "email", Error: "invalid email address"})
	}
	req.RoomNumber = room
	req.Status = StatusPending
	req.RequestDate = time.Now().UTC().Format(time.RFC3339)
	return s.store.Push(ctx, ClassroomPath+"/"+room, req)
}

// Decide transitions a request out of Pending with a compare-and-set on
// the status field only; every other field is left as written. A lost race
// or an already terminal record yields ErrAlreadyDecided. Acceptance also
// installs the request's schedule into the room's assignment record.
func (s *Service) Decide(ctx context.Context, id, verdict string) (Request, error) {
	if verdict != StatusAccepted && verdict != StatusRejected {
		return Request{}, ErrBadVerdict
	}
	path := InboxPath + "/" + id
	swapped, err := s.store.CompareAndSwapField(ctx, path, "status", StatusPending, verdict)
	if errors.Is(err, treestore.ErrNotFound) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	req, gerr := s.get(ctx, path)
	if !swapped {
		if gerr != nil {
			return Request{}, gerr
		}
		return req, ErrAlreadyDecided
	}
	if gerr != nil {
		return Request{}, gerr
	}
	if verdict == StatusAccepted && s.board != nil {
		if err := s.installAssignment(ctx, req); err != nil {
			// The decision already won the swap; the accept stands even
			// though the room assignment is missing.
			log.Printf("requests: request %s accepted but assignment install failed for %s room %s: %v", id, req.BuildingType, req.RoomNumber, err)
			return req, fmt.Errorf("request accepted, assignment install failed: %w", err)
		}
	}
	return req, nil
}

// ListFor returns the recipient's inbox as a single-element slice, matching
// the one-request-per-recipient keying of the inbox subtree.
func (s *Service) ListFor(ctx context.Context, recipientID string) ([]Decided, error) {
	req, err := s.get(ctx, InboxPath+"/"+recipientID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []Decided{{ID: recipientID, Request: req}}, nil
}

// Decided pairs a request with its inbox key.
type Decided struct {
	ID string `json:"id"`
	Request
}

// ListAll returns every inbox entry, skipping malformed records so one bad
// write cannot blank the whole notification list.
func (s *Service) ListAll(ctx context.Context) ([]Decided, error) {
	items, err := s.store.List(ctx, InboxPath)
	if err != nil {
		return nil, err
	}
	out := make([]Decided, 0, len(items))
	for id, raw := range items {
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			continue
		}
		out = append(out, Decided{ID: id, Request: req})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestDate > out[j].RequestDate })
	return out, nil
}

func (s *Service) get(ctx context.Context, path string) (Request, error) {
	raw, err := s.store.Get(ctx, path)
	if errors.Is(err, treestore.ErrNotFound) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// installAssignment writes the accepted schedule onto the room record.
func (s *Service) installAssignment(ctx context.Context, req Request) error {
	b, ok := rooms.BuildingFor(req.BuildingType)
	if !ok {
		b, _ = rooms.BuildingFor("new")
	}
	return s.store.Set(ctx, b.Base+"/"+req.RoomNumber, rooms.Assignment{
		Instructor:   req.Instructor,
		Section:      req.Section,
		Email:        req.Email,
		Date:         req.Date,
		Time:         req.Time,
		InstructorID: req.RequesterID,
	})
}
