package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

func (s *Storage) CreateRoom(ctx context.Context, state *model.RoomState) error {
	c := state.Clone()
	if c.Revision == 0 {
		c.Revision = 1
	}
	fields, err := encodeRoomState(c)
	if err != nil {
		return err
	}

	key := stateKey(c.Key)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return errors.New("room record already exists")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			if s.cfg.RoomTTL > 0 {
				pipe.Expire(ctx, key, s.cfg.RoomTTL)
			}
			return nil
		})
		return err
	}, key)
}

func (s *Storage) GetRoom(ctx context.Context, key model.RoomKey) (*model.RoomState, error) {
	return s.readRoom(ctx, s.client, key)
}

// hashReader is satisfied by both *redis.Client and *redis.Tx
type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func (s *Storage) readRoom(ctx context.Context, c hashReader, key model.RoomKey) (*model.RoomState, error) {
	fields, err := c.HGetAll(ctx, stateKey(key)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrRoomNotFound
	}
	return decodeRoomState(key, fields)
}

func (s *Storage) Update(ctx context.Context, key model.RoomKey, patch model.RoomPatch) (*model.RoomState, error) {
	return s.Mutate(ctx, key, func(state *model.RoomState) error {
		patch.Apply(state)
		return nil
	})
}

// Mutate runs fn inside a WATCH/MULTI transaction and retries when another
// writer touched the record in between. The new snapshot is published in the
// same transaction so pushes follow revision order.
func (s *Storage) Mutate(ctx context.Context, key model.RoomKey, fn storage.MutateFunc) (*model.RoomState, error) {
	rk := stateKey(key)
	var result *model.RoomState

	txf := func(tx *redis.Tx) error {
		state, err := s.readRoom(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(state); err != nil {
			return err
		}
		state.Revision++

		fields, err := encodeRoomState(state)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(state)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, rk, fields)
			if s.cfg.RoomTTL > 0 {
				pipe.Expire(ctx, rk, s.cfg.RoomTTL)
			}
			pipe.Publish(ctx, stateChannel(key), payload)
			return nil
		})
		if err != nil {
			return err
		}
		result = state
		return nil
	}

	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("mutate room %s: %w", key, model.ErrRealtimeContend)
}

func (s *Storage) Subscribe(ctx context.Context, key model.RoomKey) (storage.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, stateChannel(key))
	// Wait for the subscription to be confirmed before reading the current
	// record, otherwise a write in between would be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	current, err := s.GetRoom(ctx, key)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	mb := storage.NewMailbox(func() { _ = pubsub.Close() })
	mb.Offer(current)

	go func() {
		for msg := range pubsub.Channel() {
			var state model.RoomState
			if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
				continue
			}
			mb.Offer(&state)
		}
		_ = mb.Close()
	}()
	context.AfterFunc(ctx, func() { _ = mb.Close() })

	return mb, nil
}

func (s *Storage) OnDisconnect(ctx context.Context, key model.RoomKey, connID string, patch model.RoomPatch) error {
	n, err := s.client.Exists(ctx, stateKey(key)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrRoomNotFound
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, disconnectKey(connID), string(key), data).Err()
}

func (s *Storage) Disconnect(ctx context.Context, connID string) error {
	dk := disconnectKey(connID)

	pipe := s.client.TxPipeline()
	pendingCmd := pipe.HGetAll(ctx, dk)
	pipe.Del(ctx, dk)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	for key, raw := range pendingCmd.Val() {
		var patch model.RoomPatch
		if err := json.Unmarshal([]byte(raw), &patch); err != nil {
			return fmt.Errorf("decode disconnect patch: %w", err)
		}
		_, err := s.Update(ctx, model.RoomKey(key), patch)
		if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
			return err
		}
	}
	return nil
}
