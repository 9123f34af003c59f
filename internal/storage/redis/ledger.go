package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsgame/internal/model"
)

// appendRoundScript adds a round record at most once per round id.
// Returns -1 for an unknown room, 0 for a duplicate, 1 when applied.
var appendRoundScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
if redis.call('SADD', KEYS[2], ARGV[1]) == 0 then
  return 0
end
redis.call('RPUSH', KEYS[3], ARGV[2])
if ARGV[3] ~= '' then
  redis.call('HINCRBY', KEYS[4], ARGV[3], 1)
end
return 1
`)

func (s *Storage) CreateRoomIndex(ctx context.Context, idx *model.RoomIndex) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, roomIndexKey(idx.Code), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create room index: %w", err)
	}
	if !created {
		return model.ErrCodeTaken
	}
	return nil
}

func (s *Storage) GetRoomIndex(ctx context.Context, code model.RoomCode) (*model.RoomIndex, error) {
	pipe := s.client.Pipeline()
	metaCmd := pipe.Get(ctx, roomIndexKey(code))
	scoreCmd := pipe.HGetAll(ctx, roomScoreKey(code))
	historyCmd := pipe.LRange(ctx, roomHistoryKey(code), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	data, err := metaCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var idx model.RoomIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}

	// The stored document carries the score and history as of creation;
	// the live values come from the score hash and history list.
	idx.Score = model.Score{}
	for slot, raw := range scoreCmd.Val() {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("decode score %s: %w", slot, err)
		}
		switch model.Slot(slot) {
		case model.SlotPlayer1:
			idx.Score.Player1 = n
		case model.SlotPlayer2:
			idx.Score.Player2 = n
		}
	}

	idx.History = make([]model.RoundRecord, 0, len(historyCmd.Val()))
	for _, raw := range historyCmd.Val() {
		var rec model.RoundRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode round record: %w", err)
		}
		idx.History = append(idx.History, rec)
	}
	return &idx, nil
}

func (s *Storage) AppendRound(ctx context.Context, code model.RoomCode, rec model.RoundRecord) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}

	var winnerField string
	if slot, ok := rec.Winner.Slot(); ok {
		winnerField = string(slot)
	}

	keys := []string{roomIndexKey(code), roomRoundsKey(code), roomHistoryKey(code), roomScoreKey(code)}
	res, err := appendRoundScript.Run(ctx, s.client, keys, string(rec.ID), data, winnerField).Int()
	if err != nil {
		return false, fmt.Errorf("append round: %w", err)
	}
	switch res {
	case -1:
		return false, model.ErrRoomNotFound
	case 0:
		return false, nil
	}
	return true, nil
}
