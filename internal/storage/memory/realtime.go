package memory

import (
	"context"
	"errors"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

func (s *Storage) CreateRoom(ctx context.Context, state *model.RoomState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[state.Key]; ok {
		return errors.New("room record already exists")
	}
	c := state.Clone()
	if c.Revision == 0 {
		c.Revision = 1
	}
	s.states[state.Key] = c
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, key model.RoomKey) (*model.RoomState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[key]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return state.Clone(), nil
}

func (s *Storage) Update(ctx context.Context, key model.RoomKey, patch model.RoomPatch) (*model.RoomState, error) {
	return s.Mutate(ctx, key, func(state *model.RoomState) error {
		patch.Apply(state)
		return nil
	})
}

func (s *Storage) Mutate(ctx context.Context, key model.RoomKey, fn storage.MutateFunc) (*model.RoomState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(key, fn)
}

func (s *Storage) mutateLocked(key model.RoomKey, fn storage.MutateFunc) (*model.RoomState, error) {
	current, ok := s.states[key]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Revision = current.Revision + 1
	s.states[key] = next

	for mb := range s.subscribers[key] {
		mb.Offer(next.Clone())
	}
	return next.Clone(), nil
}

func (s *Storage) Subscribe(ctx context.Context, key model.RoomKey) (storage.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[key]
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	var mb *storage.Mailbox
	mb = storage.NewMailbox(func() {
		s.mu.Lock()
		delete(s.subscribers[key], mb)
		if len(s.subscribers[key]) == 0 {
			delete(s.subscribers, key)
		}
		s.mu.Unlock()
	})
	if s.subscribers[key] == nil {
		s.subscribers[key] = make(map[*storage.Mailbox]struct{})
	}
	s.subscribers[key][mb] = struct{}{}
	mb.Offer(state.Clone())

	context.AfterFunc(ctx, func() { _ = mb.Close() })
	return mb, nil
}

func (s *Storage) OnDisconnect(ctx context.Context, key model.RoomKey, connID string, patch model.RoomPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[key]; !ok {
		return model.ErrRoomNotFound
	}
	if s.disconnects[connID] == nil {
		s.disconnects[connID] = make(map[model.RoomKey]model.RoomPatch)
	}
	s.disconnects[connID][key] = patch
	return nil
}

func (s *Storage) Disconnect(ctx context.Context, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.disconnects[connID]
	delete(s.disconnects, connID)

	for key, patch := range pending {
		_, err := s.mutateLocked(key, func(state *model.RoomState) error {
			patch.Apply(state)
			return nil
		})
		if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
			return err
		}
	}
	return nil
}
