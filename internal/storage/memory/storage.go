package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Storage is an in-memory implementation of the users, ledger and realtime stores
type Storage struct {
	mu sync.RWMutex

	users         map[model.UserID]*model.User
	usernameIndex map[string]model.UserID
	rooms         map[model.RoomCode]*model.RoomIndex
	appliedRounds map[model.RoomCode]map[model.RoundID]struct{}

	states      map[model.RoomKey]*model.RoomState
	subscribers map[model.RoomKey]map[*storage.Mailbox]struct{}
	disconnects map[string]map[model.RoomKey]model.RoomPatch
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:         make(map[model.UserID]*model.User),
		usernameIndex: make(map[string]model.UserID),
		rooms:         make(map[model.RoomCode]*model.RoomIndex),
		appliedRounds: make(map[model.RoomCode]map[model.RoundID]struct{}),
		states:        make(map[model.RoomKey]*model.RoomState),
		subscribers:   make(map[model.RoomKey]map[*storage.Mailbox]struct{}),
		disconnects:   make(map[string]map[model.RoomKey]model.RoomPatch),
	}
}

// Ensure Storage implements the interfaces
var (
	_ storage.Users    = (*Storage)(nil)
	_ storage.Ledger   = (*Storage)(nil)
	_ storage.Realtime = (*Storage)(nil)
)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.usernameIndex[user.Username]; ok && owner != user.ID {
		return fmt.Errorf("save user %q: %w", user.Username, model.ErrUsernameTaken)
	}
	u := *user
	s.users[user.ID] = &u
	s.usernameIndex[user.Username] = user.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.usernameIndex[username]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// Ledger operations

func (s *Storage) CreateRoomIndex(ctx context.Context, idx *model.RoomIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[idx.Code]; ok {
		return model.ErrCodeTaken
	}
	s.rooms[idx.Code] = cloneIndex(idx)
	s.appliedRounds[idx.Code] = make(map[model.RoundID]struct{})
	return nil
}

func (s *Storage) GetRoomIndex(ctx context.Context, code model.RoomCode) (*model.RoomIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return cloneIndex(idx), nil
}

func (s *Storage) AppendRound(ctx context.Context, code model.RoomCode, rec model.RoundRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.rooms[code]
	if !ok {
		return false, model.ErrRoomNotFound
	}
	applied := s.appliedRounds[code]
	if _, dup := applied[rec.ID]; dup {
		return false, nil
	}
	applied[rec.ID] = struct{}{}
	idx.History = append(idx.History, rec)
	idx.Score.Add(rec.Winner)
	return true, nil
}

func cloneIndex(idx *model.RoomIndex) *model.RoomIndex {
	c := *idx
	c.History = append([]model.RoundRecord(nil), idx.History...)
	return &c
}
