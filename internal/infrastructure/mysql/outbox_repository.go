package mysql

import (
	"context"
	"database/sql"
	"time"

	"auction-marketplace/internal/domain"
)

type MySQLOutboxRepository struct {
	db *sql.DB
}

func NewMySQLOutboxRepository(db *sql.DB) *MySQLOutboxRepository {
	return &MySQLOutboxRepository{db: db}
}

func (r *MySQLOutboxRepository) Enqueue(ctx context.Context, entry *domain.OutboxEntry) error {
	query := `
        INSERT INTO outbox (id, kind, auction_id, amount, bidder, status,
            attempts, next_attempt, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, string(entry.Kind), entry.AuctionID, entry.Amount, entry.Bidder,
		string(entry.Status), entry.Attempts, entry.NextAttempt, entry.CreatedAt)
	return err
}

func (r *MySQLOutboxRepository) FetchDue(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEntry, error) {
	query := `
        SELECT id, kind, auction_id, amount, bidder, status, attempts,
            next_attempt, created_at
        FROM outbox
        WHERE delivered_at IS NULL AND next_attempt <= ?
        ORDER BY created_at ASC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.OutboxEntry
	for rows.Next() {
		var entry domain.OutboxEntry
		var kind, status string

		err := rows.Scan(&entry.ID, &kind, &entry.AuctionID, &entry.Amount,
			&entry.Bidder, &status, &entry.Attempts, &entry.NextAttempt, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}

		entry.Kind = domain.OutboxKind(kind)
		entry.Status = domain.AuctionStatus(status)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

func (r *MySQLOutboxRepository) MarkDelivered(ctx context.Context, id string) error {
	query := `UPDATE outbox SET delivered_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

func (r *MySQLOutboxRepository) RecordFailure(ctx context.Context, id string, attempts int, nextAttempt time.Time) error {
	query := `UPDATE outbox SET attempts = ?, next_attempt = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, attempts, nextAttempt, id)
	return err
}
