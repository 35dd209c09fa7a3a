package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "smart-response/errors"
	"smart-response/web/types"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStore is the optional interaction log.
type PostgresStore struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err)
	}
	logger.Info("Successfully connected to the database")
	return &PostgresStore{DB: db, logger: logger}, nil
}

// EnsureSchema creates the required tables if they do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
            id UUID PRIMARY KEY,
            channel_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            query TEXT NOT NULL,
            trigger_id TEXT DEFAULT '',
            kind TEXT NOT NULL,
            steps TEXT[] DEFAULT '{}'::TEXT[],
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_channel_user ON interactions(channel_id, user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return apperrors.Join(apperrors.ErrDatabaseOperation, fmt.Errorf("failed to execute schema statement: %w", err))
		}
	}
	return nil
}

// RecordInteraction stores one answered message. A zero ID or timestamp is
// filled in.
func (s *PostgresStore) RecordInteraction(ctx context.Context, in types.Interaction) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	steps := in.Steps
	if steps == nil {
		steps = []string{}
	}

	query := `
		INSERT INTO interactions (id, channel_id, user_id, query, trigger_id, kind, steps, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.DB.ExecContext(ctx, query, in.ID, in.ChannelID, in.UserID, in.Query, in.TriggerID, in.Kind, pq.Array(steps), in.CreatedAt)
	if err != nil {
		return apperrors.Join(apperrors.ErrDatabaseOperation, fmt.Errorf("failed to record interaction: %w", err))
	}
	return nil
}

// RecentInteractions returns the newest interactions first.
func (s *PostgresStore) RecentInteractions(ctx context.Context, limit int) ([]types.Interaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := `
		SELECT id, channel_id, user_id, query, trigger_id, kind, steps, created_at
		FROM interactions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err)
	}
	defer rows.Close()

	var out []types.Interaction
	for rows.Next() {
		var in types.Interaction
		var triggerID sql.NullString
		var steps pq.StringArray
		if err := rows.Scan(&in.ID, &in.ChannelID, &in.UserID, &in.Query, &triggerID, &in.Kind, &steps, &in.CreatedAt); err != nil {
			return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err)
		}
		in.TriggerID = triggerID.String
		in.Steps = []string(steps)
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err)
	}
	return out, nil
}

// DeleteInteractionsBefore prunes the log and returns the number of rows removed.
func (s *PostgresStore) DeleteInteractionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM interactions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, apperrors.Join(apperrors.ErrDatabaseOperation, err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
