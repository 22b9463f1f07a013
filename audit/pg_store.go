package audit

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PaulFidika/plankit/entitlements"
)

// PGStore writes decision events to a Postgres table.
type PGStore struct {
	pg     *pgxpool.Pool
	schema string
}

// NewPGStore builds a store against the given schema (default "gating").
func NewPGStore(pg *pgxpool.Pool, schema string) *PGStore {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "gating"
	}
	return &PGStore{pg: pg, schema: s}
}

func (s *PGStore) eventsTable() string { return s.schema + ".decision_events" }

// LogDecision appends one decision row. A nil pool is a no-op so callers can
// wire the store unconditionally.
func (s *PGStore) LogDecision(ctx context.Context, ev Event) error {
	if s.pg == nil {
		return nil
	}
	id := uuid.New()
	_, err := s.pg.Exec(ctx,
		`INSERT INTO `+s.eventsTable()+` (id, request_id, user_id, widget, allowed, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, ev.RequestID, ev.UserID, ev.Widget, ev.Allowed, string(ev.Reason), ev.At)
	return err
}

// RecentDenials returns the user's latest denied decisions, newest first.
func (s *PGStore) RecentDenials(ctx context.Context, userID string, limit int) ([]Event, error) {
	out := []Event{}
	if s.pg == nil || userID == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pg.Query(ctx,
		`SELECT request_id, user_id, widget, allowed, reason, created_at
		 FROM `+s.eventsTable()+`
		 WHERE user_id = $1 AND allowed = false
		 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ev Event
		var reason string
		if err := rows.Scan(&ev.RequestID, &ev.UserID, &ev.Widget, &ev.Allowed, &reason, &ev.At); err != nil {
			return nil, err
		}
		ev.Reason = entitlements.ReasonCode(reason)
		out = append(out, ev)
	}
	return out, rows.Err()
}
