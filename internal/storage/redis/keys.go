package redis

import (
	"fmt"

	"github.com/mcoot/rpsgame/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "rpsgame"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> user_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// roomIndexKey returns the Redis key for the immutable part of a RoomIndex
func roomIndexKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// roomScoreKey returns the Redis key for the HASH holding a room's score
func roomScoreKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s:score", keyPrefix, code)
}

// roomHistoryKey returns the Redis key for the LIST of a room's round records
func roomHistoryKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s:history", keyPrefix, code)
}

// roomRoundsKey returns the Redis key for the SET of round ids already applied
func roomRoundsKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s:rounds", keyPrefix, code)
}

// stateKey returns the Redis key for the HASH of a room's realtime record
func stateKey(key model.RoomKey) string {
	return fmt.Sprintf("%s:state:%s", keyPrefix, key)
}

// stateChannel returns the pub/sub channel carrying a room's snapshots
func stateChannel(key model.RoomKey) string {
	return fmt.Sprintf("%s:events:%s", keyPrefix, key)
}

// disconnectKey returns the Redis key for the HASH of room key -> patch
// registered by a connection
func disconnectKey(connID string) string {
	return fmt.Sprintf("%s:conn:%s", keyPrefix, connID)
}
