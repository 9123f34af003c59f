package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcoot/rpsgame/internal/model"
)

func (s *Storage) CreateRoomIndex(ctx context.Context, idx *model.RoomIndex) error {
	query :=
		`INSERT INTO rooms (code, room_key, owner_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (code) DO NOTHING
		 `

	res, err := s.db.ExecContext(ctx, query, string(idx.Code), string(idx.Key), string(idx.Owner), idx.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return model.ErrCodeTaken
	}
	return nil
}

func (s *Storage) GetRoomIndex(ctx context.Context, code model.RoomCode) (*model.RoomIndex, error) {
	query :=
		`SELECT code, room_key, owner_id, score_player1, score_player2, created_at FROM rooms
		 WHERE code = $1
		 `

	var idx model.RoomIndex
	var c, key, owner string
	err := s.db.QueryRowContext(ctx, query, string(code)).
		Scan(&c, &key, &owner, &idx.Score.Player1, &idx.Score.Player2, &idx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRoomNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	idx.Code, idx.Key, idx.Owner = model.RoomCode(c), model.RoomKey(key), model.UserID(owner)

	history, err := s.listRounds(ctx, code)
	if err != nil {
		return nil, err
	}
	idx.History = history
	return &idx, nil
}

func (s *Storage) listRounds(ctx context.Context, code model.RoomCode) ([]model.RoundRecord, error) {
	query :=
		`SELECT id, player1_choice, player2_choice, winner, played_at FROM rounds
		 WHERE room_code = $1
		 ORDER BY seq
		 `

	rows, err := s.db.QueryContext(ctx, query, string(code))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	history := []model.RoundRecord{}
	for rows.Next() {
		var rec model.RoundRecord
		var id, p1, p2, winner string
		if err := rows.Scan(&id, &p1, &p2, &winner, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec.ID = model.RoundID(id)
		rec.Player1Choice, rec.Player2Choice = model.Move(p1), model.Move(p2)
		rec.Winner = model.Winner(winner)
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return history, nil
}

var scoreQueries = map[model.Slot]string{
	model.SlotPlayer1: `UPDATE rooms SET score_player1 = score_player1 + 1 WHERE code = $1`,
	model.SlotPlayer2: `UPDATE rooms SET score_player2 = score_player2 + 1 WHERE code = $1`,
}

func (s *Storage) AppendRound(ctx context.Context, code model.RoomCode, rec model.RoundRecord) (bool, error) {
	var applied bool
	err := WithTx(ctx, s.db, func(ctx context.Context, tx DBTX) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE code = $1 FOR UPDATE`, string(code)).Scan(&one)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrRoomNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}

		insert :=
			`INSERT INTO rounds (id, room_code, player1_choice, player2_choice, winner, played_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO NOTHING
			 `
		res, err := tx.ExecContext(ctx, insert, string(rec.ID), string(code),
			string(rec.Player1Choice), string(rec.Player2Choice), string(rec.Winner), rec.Timestamp)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			return nil
		}

		if slot, ok := rec.Winner.Slot(); ok {
			if _, err := tx.ExecContext(ctx, scoreQueries[slot], string(code)); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
