package rfid

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists the immutable swipe audit history in Postgres. The
// live record at RFID_Cards/{uid} only ever shows the latest visit; the
// audit rows keep every one.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the audit table if it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS swipe_events (
		id          TEXT PRIMARY KEY,
		card_uid    TEXT NOT NULL,
		name        TEXT NOT NULL DEFAULT '',
		institute   TEXT NOT NULL DEFAULT '',
		building    TEXT NOT NULL DEFAULT '',
		room        TEXT NOT NULL DEFAULT '',
		direction   TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL DEFAULT 'recorded',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_swipe_events_card ON swipe_events(card_uid);
	CREATE INDEX IF NOT EXISTS idx_swipe_events_time ON swipe_events(occurred_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Event is one audit row.
type Event struct {
	ID         string    `json:"id"`
	CardUID    string    `json:"card_uid"`
	Name       string    `json:"name"`
	Institute  string    `json:"institute"`
	Building   string    `json:"building"`
	Room       string    `json:"room"`
	Direction  string    `json:"direction"` // in | out
	OccurredAt time.Time `json:"occurred_at"`
	Status     string    `json:"status"` // recorded | closed
	CreatedAt  time.Time `json:"created_at"`
}

// InsertEvent writes a new audit row.
func (r *Repository) InsertEvent(ctx context.Context, evt Event) (Event, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	if evt.Status == "" {
		evt.Status = "recorded"
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO swipe_events (id, card_uid, name, institute, building, room, direction, occurred_at, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at
	`, evt.ID, evt.CardUID, evt.Name, evt.Institute, evt.Building, evt.Room, evt.Direction, evt.OccurredAt, evt.Status)
	if err := row.Scan(&evt.CreatedAt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// GetEvent returns a single audit row by id.
func (r *Repository) GetEvent(ctx context.Context, id string) (Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, card_uid, name, institute, building, room, direction, occurred_at, status, created_at
		FROM swipe_events WHERE id = $1
	`, id)
	var evt Event
	if err := row.Scan(&evt.ID, &evt.CardUID, &evt.Name, &evt.Institute, &evt.Building, &evt.Room, &evt.Direction, &evt.OccurredAt, &evt.Status, &evt.CreatedAt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// UpdateEventStatus marks a row after worker processing.
func (r *Repository) UpdateEventStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE swipe_events SET status = $2 WHERE id = $1`, id, status)
	return err
}

// ListEvents returns audit rows with basic filters, newest first.
func (r *Repository) ListEvents(ctx context.Context, cardUID, building, room string, limit, offset int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT id, card_uid, name, institute, building, room, direction, occurred_at, status, created_at FROM swipe_events`
	args := []any{}
	clauses := []string{}
	if cardUID != "" {
		clauses = append(clauses, "card_uid = $"+itoa(len(args)+1))
		args = append(args, cardUID)
	}
	if building != "" {
		clauses = append(clauses, "building = $"+itoa(len(args)+1))
		args = append(args, building)
	}
	if room != "" {
		clauses = append(clauses, "room = $"+itoa(len(args)+1))
		args = append(args, room)
	}
	if len(clauses) > 0 {
		query += " WHERE " + joinClauses(clauses, " AND ")
	}
	query += " ORDER BY occurred_at DESC LIMIT $" + itoa(len(args)+1) + " OFFSET $" + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.CardUID, &evt.Name, &evt.Institute, &evt.Building, &evt.Room, &evt.Direction, &evt.OccurredAt, &evt.Status, &evt.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}

// OpenEvent returns the most recent "in" row for a card that has not been
// closed yet, or nil.
func (r *Repository) OpenEvent(ctx context.Context, cardUID string) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, card_uid, name, institute, building, room, direction, occurred_at, status, created_at
		FROM swipe_events
		WHERE card_uid = $1 AND direction = 'in' AND status = 'recorded'
		ORDER BY occurred_at DESC
		LIMIT 1
	`, cardUID)
	var evt Event
	if err := row.Scan(&evt.ID, &evt.CardUID, &evt.Name, &evt.Institute, &evt.Building, &evt.Room, &evt.Direction, &evt.OccurredAt, &evt.Status, &evt.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &evt, nil
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}
