package repository

import (
	"context"
	"strings"

	"github.com/Shootle/txtcoin/internal/model"
	"github.com/jmoiron/sqlx"
)

// CHCommandsRepository stores and lists command audit events in ClickHouse.
type CHCommandsRepository interface {
	Insert(ctx context.Context, ev model.CommandEvent) error
	ListBySender(ctx context.Context, sender string, outcome model.Outcome, limit, offset int) ([]model.CommandEvent, error)
}

type chCommandsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHCommandsRepository(ch *sqlx.DB) CHCommandsRepository {
	return &chCommandsRepository{ch: ch}
}

// Insert writes a single event; clickhouse-go batches INSERTs through a prepared
// statement inside a transaction.
func (r *chCommandsRepository) Insert(ctx context.Context, ev model.CommandEvent) error {
	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO txtcoin.command_events
		    (sender, command, args, outcome, reply, duration_ms, created_at)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx,
		ev.Sender, ev.Command, ev.Args, ev.Outcome.String(), ev.Reply, ev.DurationMs, ev.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *chCommandsRepository) ListBySender(ctx context.Context, sender string, outcome model.Outcome, limit, offset int) ([]model.CommandEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT sender, command, args, outcome, reply, duration_ms, created_at
		FROM txtcoin.command_events
		WHERE 1 = 1
	`)
	var args []any

	if sender != "" {
		sb.WriteString(" AND sender = ?")
		args = append(args, sender)
	}
	if outcome != "" {
		sb.WriteString(" AND outcome = ?")
		args = append(args, outcome.String())
	}

	sb.WriteString(" ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	var rows []model.CommandEvent
	if err := r.ch.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, err
	}
	return rows, nil
}
