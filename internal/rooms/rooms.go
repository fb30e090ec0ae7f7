package rooms

import (
	"classtrack/internal/rfid"
)

// Status of a room as shown on the schedule boards.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusOccupied  Status = "Occupied"
	StatusAvailable Status = "Available"
)

// Sentinel marks a cleared assignment field.
const Sentinel = "N/A"

// Assignment is the schedule record at {building base}/{room}. Presence of
// real (non-sentinel) fields means the room is scheduled.
type Assignment struct {
	Instructor   string `json:"Instructor"`
	Section      string `json:"Section"`
	Email        string `json:"Email"`
	Date         string `json:"Date"`
	Time         string `json:"Time"`
	InstructorID string `json:"InstructorID"`
}

// Scheduled reports whether the assignment holds a live schedule.
func (a Assignment) Scheduled() bool {
	for _, v := range []string{a.Instructor, a.Section, a.Email, a.Date, a.Time, a.InstructorID} {
		if v != "" && v != Sentinel {
			return true
		}
	}
	return false
}

// Cleared is the sentinel assignment written when a visit completes.
func Cleared() map[string]any {
	return map[string]any{
		"Instructor":   Sentinel,
		"Section":      Sentinel,
		"Email":        Sentinel,
		"Date":         Sentinel,
		"Time":         Sentinel,
		"InstructorID": Sentinel,
	}
}

// SourceKind selects how a room's status is derived.
type SourceKind string

const (
	// AssignmentOnly rooms have no reader; occupancy is the presence of a
	// schedule record.
	AssignmentOnly SourceKind = "assignment"
	// RfidBacked rooms derive status from their reader's card record.
	RfidBacked SourceKind = "rfid"
)

// Source is the per-room status capability, selected via the
// Reader_Assignments mapping table rather than a hardcoded room check.
type Source struct {
	Kind SourceKind `json:"kind"`
	UID  string     `json:"uid,omitempty"`
}

// ComputeStatus derives a room's status. It is a pure function: clearing a
// stale assignment is a separate, explicit reconciliation call.
//
// RFID-backed rooms: no correlated record means the reader has not reported
// yet (Pending); an open visit is Occupied; a completed visit frees the
// room. Assignment-only rooms are occupied exactly when scheduled.
func ComputeStatus(src Source, rec *rfid.Record, scheduled bool) Status {
	if src.Kind == RfidBacked {
		if rec == nil {
			return StatusPending
		}
		if rec.TimeOut != "" {
			return StatusAvailable
		}
		if rec.TimeIn != "" {
			return StatusOccupied
		}
		return StatusPending
	}
	if scheduled {
		return StatusOccupied
	}
	return StatusAvailable
}

// Floor is a named run of room numbers.
type Floor struct {
	Name  string `json:"name"`
	Rooms []int  `json:"rooms"`
}

// Building binds a key used in URLs to the tree store base path and the
// floor layout drawn on the boards.
type Building struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Base   string  `json:"-"` // assignment subtree, e.g. NB_Rooms_Information
	Floors []Floor `json:"floors"`
}

func roomRange(start, count int) []int {
	rooms := make([]int, count)
	for i := range rooms {
		rooms[i] = start + i
	}
	return rooms
}

// Buildings is the campus layout. The old building keeps the legacy
// unprefixed Rooms_Information base.
var Buildings = []Building{
	{
		Key:  "old",
		Name: "Old Building",
		Base: "Rooms_Information",
		Floors: []Floor{
			{Name: "1st Floor", Rooms: roomRange(101, 10)},
			{Name: "2nd Floor", Rooms: roomRange(201, 10)},
		},
	},
	{
		Key:  "new",
		Name: "New Building",
		Base: "NB_Rooms_Information",
		Floors: []Floor{
			{Name: "1st Floor", Rooms: roomRange(101, 10)},
			{Name: "2nd Floor", Rooms: roomRange(201, 10)},
			{Name: "3rd Floor", Rooms: roomRange(301, 10)},
		},
	},
}

// BuildingFor resolves a URL key or display name.
func BuildingFor(key string) (Building, bool) {
	for _, b := range Buildings {
		if b.Key == key || b.Name == key {
			return b, true
		}
	}
	return Building{}, false
}
