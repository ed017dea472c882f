// Package history implements the durable, capacity-bounded log of
// completed label purchases.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labelrun/labelrun/pkg/provider"
)

// DefaultCapacity is the number of entries retained before FIFO
// eviction kicks in.
const DefaultCapacity = 100

// Entry is a durable record of a completed label purchase: the
// shipment request plus the winning label result.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Provider       string  `json:"provider"`
	ProviderName   string  `json:"provider_name"`
	Rate           float64 `json:"rate"`
	TrackingNumber string  `json:"tracking_number"`
	LabelURL       string  `json:"label_url"`
	TrackingURL    string  `json:"tracking_url"`

	From   provider.Address `json:"from"`
	To     provider.Address `json:"to"`
	Weight float64          `json:"weight"`
}

// Log is a SQLite-backed append log. Oldest entries are evicted past
// the configured capacity.
type Log struct {
	db       *sql.DB
	capacity int
}

// NewLog creates a history log over an opened database. A non-positive
// capacity falls back to DefaultCapacity.
func NewLog(db *sql.DB, capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{db: db, capacity: capacity}
}

// Append stores a new entry, assigning an id and timestamp when the
// caller left them empty, and evicts the oldest entries beyond
// capacity. The stored entry is returned.
func (l *Log) Append(ctx context.Context, e Entry) (*Entry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history (
			id, seq, provider, provider_name, rate,
			tracking_number, label_url, tracking_url,
			from_name, from_street, from_city, from_state, from_zip,
			to_name, to_street, to_city, to_state, to_zip,
			weight, created_at
		) VALUES (
			?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM history), ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?
		)`,
		e.ID, e.Provider, e.ProviderName, e.Rate,
		e.TrackingNumber, e.LabelURL, e.TrackingURL,
		e.From.Name, e.From.Street, e.From.City, e.From.State, e.From.Zip,
		e.To.Name, e.To.Street, e.To.City, e.To.State, e.To.Zip,
		e.Weight, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert history entry: %w", err)
	}

	// FIFO eviction: drop the lowest sequence numbers past capacity.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM history WHERE seq <= (
			SELECT MAX(seq) FROM history
		) - ?`, l.capacity)
	if err != nil {
		return nil, fmt.Errorf("evict history entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return &e, nil
}

// List returns all entries, newest first.
func (l *Log) List(ctx context.Context) ([]Entry, error) {
	return l.query(ctx, `SELECT `+columns+` FROM history ORDER BY seq DESC`)
}

// Search returns entries whose text fields contain q, newest first.
// An empty query returns everything.
func (l *Log) Search(ctx context.Context, q string) ([]Entry, error) {
	if q == "" {
		return l.List(ctx)
	}
	pattern := "%" + q + "%"
	return l.query(ctx, `
		SELECT `+columns+` FROM history
		WHERE provider LIKE ?1 COLLATE NOCASE
		   OR provider_name LIKE ?1 COLLATE NOCASE
		   OR tracking_number LIKE ?1 COLLATE NOCASE
		   OR from_name LIKE ?1 COLLATE NOCASE
		   OR from_city LIKE ?1 COLLATE NOCASE
		   OR from_zip LIKE ?1 COLLATE NOCASE
		   OR to_name LIKE ?1 COLLATE NOCASE
		   OR to_city LIKE ?1 COLLATE NOCASE
		   OR to_zip LIKE ?1 COLLATE NOCASE
		ORDER BY seq DESC`, pattern)
}

// Remove deletes one entry by id. Removing a missing id is not an error.
func (l *Log) Remove(ctx context.Context, id string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove history entry: %w", err)
	}
	return nil
}

// Clear deletes all entries.
func (l *Log) Clear(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Count returns the number of retained entries.
func (l *Log) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

const columns = `id, provider, provider_name, rate,
	tracking_number, label_url, tracking_url,
	from_name, from_street, from_city, from_state, from_zip,
	to_name, to_street, to_city, to_state, to_zip,
	weight, created_at`

func (l *Log) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(
			&e.ID, &e.Provider, &e.ProviderName, &e.Rate,
			&e.TrackingNumber, &e.LabelURL, &e.TrackingURL,
			&e.From.Name, &e.From.Street, &e.From.City, &e.From.State, &e.From.Zip,
			&e.To.Name, &e.To.Street, &e.To.City, &e.To.State, &e.To.Zip,
			&e.Weight, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
