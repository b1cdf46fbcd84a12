package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nivaan/loanpilot/internal/domain"
)

// Warehouse stores one conversation row and at most one extracted-fields row
// per session. Re-upserting the same session replaces the previous row, so
// every turn can safely resend the full log.
type Warehouse struct {
	pool *pgxpool.Pool
}

func NewWarehouse(pool *pgxpool.Pool) *Warehouse {
	return &Warehouse{pool: pool}
}

// UpsertConversation implements domain.Warehouse.
func (w *Warehouse) UpsertConversation(ctx context.Context, sessionID string, turns []domain.Turn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}

	_, err = w.pool.Exec(ctx, `
		INSERT INTO conversations (session_id, turns, turn_count, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id) DO UPDATE
		SET turns = EXCLUDED.turns,
		    turn_count = EXCLUDED.turn_count,
		    updated_at = now()`,
		sessionID, payload, len(turns))
	if err != nil {
		return fmt.Errorf("upsert conversation %s: %w", sessionID, err)
	}
	return nil
}

// UpsertExtractedFields implements domain.Warehouse.
func (w *Warehouse) UpsertExtractedFields(ctx context.Context, rec domain.ExtractedFields) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	_, err = w.pool.Exec(ctx, `
		INSERT INTO extracted_fields (session_id, name, phone, email, fields, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (session_id) DO UPDATE
		SET name = EXCLUDED.name,
		    phone = EXCLUDED.phone,
		    email = EXCLUDED.email,
		    fields = EXCLUDED.fields,
		    updated_at = now()`,
		rec.SessionID, rec.Contact.Name, rec.Contact.Phone, rec.Contact.Email, fields)
	if err != nil {
		return fmt.Errorf("upsert extracted fields %s: %w", rec.SessionID, err)
	}
	return nil
}
