package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/basta-backend/internal"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrEmptyResults = errors.New("final results have no players")

type GameRecord struct {
	ID           int64                     `json:"id"`
	RoomCode     string                    `json:"room_code"`
	WinnerName   string                    `json:"winner_name"`
	RoundsPlayed int                       `json:"rounds_played"`
	TotalPlayers int                       `json:"total_players"`
	FinishedAt   time.Time                 `json:"finished_at"`
	Leaderboard  []internal.GameResultData `json:"leaderboard"`
}

// Store archives finished games in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log.Info().Msg("[history] connected to PostgreSQL")
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info().Msg("[history] migrations applied")
	return nil
}

// SaveGame writes one finished game and its leaderboard in a transaction.
func (s *Store) SaveGame(ctx context.Context, roomCode string, results internal.FinalResults, finishedAt time.Time) (int64, error) {
	if len(results.Leaderboard) == 0 {
		return 0, ErrEmptyResults
	}

	winner := ""
	if results.Winner != nil {
		winner = results.Winner.Username
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO games (room_code, winner_name, rounds_played, total_players, finished_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, roomCode, winner, results.RoundsPlayed, results.TotalPlayers, finishedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting game: %w", err)
	}

	batch := &pgx.Batch{}
	for _, entry := range results.Leaderboard {
		batch.Queue(`
			INSERT INTO game_players (game_id, position, player_id, username, final_score)
			VALUES ($1, $2, $3, $4, $5)
		`, id, entry.Position, entry.PlayerID, entry.Username, entry.Score)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("inserting game players: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing game: %w", err)
	}
	return id, nil
}

// ListGames returns the most recently finished games, newest first.
func (s *Store) ListGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, room_code, winner_name, rounds_played, total_players, finished_at
		FROM games
		ORDER BY finished_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	games, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (GameRecord, error) {
		var g GameRecord
		err := row.Scan(&g.ID, &g.RoomCode, &g.WinnerName, &g.RoundsPlayed, &g.TotalPlayers, &g.FinishedAt)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning games: %w", err)
	}
	if len(games) == 0 {
		return games, nil
	}

	index := make(map[int64]int, len(games))
	ids := make([]int64, len(games))
	for i, g := range games {
		index[g.ID] = i
		ids[i] = g.ID
		games[i].Leaderboard = []internal.GameResultData{}
	}

	rows, err = s.pool.Query(ctx, `
		SELECT game_id, position, player_id, username, final_score
		FROM game_players
		WHERE game_id = ANY($1)
		ORDER BY game_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("listing game players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var gameID int64
		var entry internal.GameResultData
		if err := rows.Scan(&gameID, &entry.Position, &entry.PlayerID, &entry.Username, &entry.Score); err != nil {
			return nil, fmt.Errorf("scanning game player: %w", err)
		}
		i := index[gameID]
		games[i].Leaderboard = append(games[i].Leaderboard, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating game players: %w", err)
	}
	return games, nil
}
