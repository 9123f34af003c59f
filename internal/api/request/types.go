package request

// SignupRequest is the request body for POST /api/v1/signup
type SignupRequest struct {
	Username string `json:"username"`
}

// AuthRequest is the request body for POST /api/v1/auth
type AuthRequest struct {
	Username string `json:"username"`
}

// UserRequest is the body of room actions that only identify the caller
type UserRequest struct {
	UserID string `json:"userId"`
}

// ReadyRequest is the request body for POST /api/v1/rooms/{code}/ready.
// A missing ready field means ready.
type ReadyRequest struct {
	UserID string `json:"userId"`
	Ready  *bool  `json:"ready,omitempty"`
}

// MoveRequest is the request body for POST /api/v1/rooms/{code}/move
type MoveRequest struct {
	UserID string `json:"userId"`
	Choice string `json:"choice"`
}
