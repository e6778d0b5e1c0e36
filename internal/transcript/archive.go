package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Archive mirrors SaveRecords into durable external storage. The JSON
// file written by the Store stays canonical; the archive only adds a
// queryable copy.
type Archive interface {
	SaveGame(ctx context.Context, record SaveRecord) error
	Close() error
}

// NewArchive returns a postgres-backed archive when configured,
// otherwise nil (file-only operation).
func NewArchive(ctx context.Context, databaseURL string) (Archive, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil
	}
	return NewPostgresArchive(ctx, databaseURL)
}

// PostgresArchive keeps one row per save event.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresArchive{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS game_saves (
			id TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			player_name TEXT NOT NULL,
			save_time TEXT NOT NULL,
			turns_count INT NOT NULL,
			history JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_game_saves_player_time ON game_saves (player_name, save_time);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (a *PostgresArchive) SaveGame(ctx context.Context, record SaveRecord) error {
	history, err := json.Marshal(record.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO game_saves (id, game, player_name, save_time, turns_count, history)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(),
		record.Game,
		record.PlayerName,
		record.SaveTime,
		record.TurnsCount,
		history,
	)
	if err != nil {
		return fmt.Errorf("archive save: %w", err)
	}
	return nil
}

func (a *PostgresArchive) Close() error {
	a.pool.Close()
	return nil
}
