package storage

import (
	"context"

	"github.com/mcoot/rpsgame/internal/model"
)

// Users stores player identities
type Users interface {
	// SaveUser creates a user. Fails with model.ErrUsernameTaken when the
	// username already belongs to someone else.
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// Ledger is the persistent room index with score and round history
type Ledger interface {
	// CreateRoomIndex inserts the row only if the code is free, otherwise
	// returns model.ErrCodeTaken
	CreateRoomIndex(ctx context.Context, idx *model.RoomIndex) error
	GetRoomIndex(ctx context.Context, code model.RoomCode) (*model.RoomIndex, error)

	// AppendRound adds the record to the history and bumps the score of the
	// winning slot. Appending a record id that is already present changes
	// nothing and reports applied=false.
	AppendRound(ctx context.Context, code model.RoomCode, rec model.RoundRecord) (applied bool, err error)
}

// MutateFunc inspects the current record and edits it in place. Returning an
// error aborts the mutation without writing anything.
type MutateFunc func(state *model.RoomState) error

// Subscription delivers room snapshots. The channel always holds the most
// recent snapshot only; intermediate revisions may be skipped.
type Subscription interface {
	C() <-chan *model.RoomState
	Close() error
}

// Realtime is the shared mutable room record store
type Realtime interface {
	CreateRoom(ctx context.Context, state *model.RoomState) error
	GetRoom(ctx context.Context, key model.RoomKey) (*model.RoomState, error)

	// Update applies the named sub-fields atomically and bumps the revision.
	// Sub-fields not named by the patch are left untouched.
	Update(ctx context.Context, key model.RoomKey, patch model.RoomPatch) (*model.RoomState, error)

	// Mutate runs a check-then-act over the full record. The function may be
	// called more than once if the record changes concurrently.
	Mutate(ctx context.Context, key model.RoomKey, fn MutateFunc) (*model.RoomState, error)

	// Subscribe delivers the current record immediately and then after every change
	Subscribe(ctx context.Context, key model.RoomKey) (Subscription, error)

	// OnDisconnect registers a patch to apply when the connection drops.
	// Registering again for the same connection and room replaces the patch.
	OnDisconnect(ctx context.Context, key model.RoomKey, connID string, patch model.RoomPatch) error

	// Disconnect applies and forgets every patch registered for the connection
	Disconnect(ctx context.Context, connID string) error
}
