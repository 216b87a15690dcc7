package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hanoi-speedrapp/main/internal/domain"
	"github.com/hanoi-speedrapp/main/internal/usecases"
)

// SQLiteScoreRepository は SQLite をバックエンドとする ScoreRepository の実装。
type SQLiteScoreRepository struct {
	db *sql.DB
}

// NewSQLiteScoreRepository は SQLiteScoreRepository を生成する。
func NewSQLiteScoreRepository(db *sql.DB) *SQLiteScoreRepository {
	return &SQLiteScoreRepository{db: db}
}

// Save は完走記録を 1 行挿入する。手順は JSON 配列として TEXT 列に格納する。
func (r *SQLiteScoreRepository) Save(ctx context.Context, header usecases.Header, score usecases.Score) error {
	if r.db == nil {
		return errors.New("sqlite score repository: db is nil")
	}

	const query = `
INSERT INTO scores (
    id, poles, disks, blindfold, illegal_moves, start_pole, end_pole, time_ns, recorded_at, moves
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

	movesJSON, err := encodeMoves(score.Moves)
	if err != nil {
		return fmt.Errorf("encode moves: %w", err)
	}

	if _, err := r.db.ExecContext(
		ctx,
		query,
		uuid.NewString(),
		header.Poles,
		header.Disks,
		boolToInt(header.Blindfold),
		boolToInt(header.IllegalMoves),
		header.StartPole,
		header.EndPole,
		score.Time.Nanoseconds(),
		score.Date.UTC(),
		movesJSON,
	); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}

	return nil
}

// LoadAll は永続化された全記録を Header ごとにまとめて返す。
func (r *SQLiteScoreRepository) LoadAll(ctx context.Context) (map[usecases.Header][]usecases.Score, error) {
	if r.db == nil {
		return nil, errors.New("sqlite score repository: db is nil")
	}

	const query = `
SELECT poles, disks, blindfold, illegal_moves, start_pole, end_pole, time_ns, recorded_at, moves
FROM scores
`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	all := make(map[usecases.Header][]usecases.Score)
	for rows.Next() {
		var (
			header       usecases.Header
			blindfold    int
			illegalMoves int
			timeNs       int64
			recordedAt   time.Time
			movesJSON    string
		)

		if err := rows.Scan(
			&header.Poles,
			&header.Disks,
			&blindfold,
			&illegalMoves,
			&header.StartPole,
			&header.EndPole,
			&timeNs,
			&recordedAt,
			&movesJSON,
		); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}

		header.Blindfold = blindfold != 0
		header.IllegalMoves = illegalMoves != 0

		moves, err := decodeMoves(movesJSON)
		if err != nil {
			return nil, fmt.Errorf("decode moves: %w", err)
		}

		all[header] = append(all[header], usecases.Score{
			Time:  time.Duration(timeNs),
			Date:  recordedAt.UTC(),
			Moves: moves,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}

	return all, nil
}

func encodeMoves(moves []domain.Move) (string, error) {
	if moves == nil {
		moves = []domain.Move{}
	}
	bytes, err := json.Marshal(moves)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func decodeMoves(raw string) ([]domain.Move, error) {
	var moves []domain.Move
	if err := json.Unmarshal([]byte(raw), &moves); err != nil {
		return nil, err
	}
	return moves, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
