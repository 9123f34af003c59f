package remote

import (
	"context"
	"net/url"

	"github.com/mcoot/rpsgame/internal/api/request"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/clientstate"
	"github.com/mcoot/rpsgame/internal/model"
)

// Ensure Client can drive a session
var _ clientstate.RoundAPI = (*Client)(nil)

func roomPath(code model.RoomCode, suffix string) string {
	return "/api/v1/rooms/" + url.PathEscape(string(code)) + suffix
}

// Health calls GET /api/v1/health
func (c *Client) Health(ctx context.Context) (*response.Health, error) {
	var result response.Health
	if err := c.Get(ctx, "/api/v1/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Signup creates a user
func (c *Client) Signup(ctx context.Context, username string) (*response.User, error) {
	var result response.User
	if err := c.Post(ctx, "/api/v1/signup", request.SignupRequest{Username: username}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login looks up an existing user by username
func (c *Client) Login(ctx context.Context, username string) (*response.User, error) {
	var result response.User
	if err := c.Post(ctx, "/api/v1/auth", request.AuthRequest{Username: username}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUser returns a user by id
func (c *Client) GetUser(ctx context.Context, userID model.UserID) (*response.User, error) {
	var result response.User
	if err := c.Get(ctx, "/api/v1/users/"+url.PathEscape(string(userID)), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateRoom opens a room owned by userID
func (c *Client) CreateRoom(ctx context.Context, userID model.UserID) (model.RoomCode, error) {
	var result response.RoomCreated
	if err := c.Post(ctx, "/api/v1/rooms", request.UserRequest{UserID: string(userID)}, &result); err != nil {
		return "", err
	}
	return model.RoomCode(result.RoomCode), nil
}

// Join claims a slot in the room
func (c *Client) Join(ctx context.Context, code model.RoomCode, userID model.UserID) (string, error) {
	var result response.Message
	if err := c.Post(ctx, roomPath(code, "/join"), request.UserRequest{UserID: string(userID)}, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// SetReady sets the readiness of the caller's slot
func (c *Client) SetReady(ctx context.Context, code model.RoomCode, userID model.UserID, ready bool) error {
	req := request.ReadyRequest{UserID: string(userID), Ready: &ready}
	return c.Post(ctx, roomPath(code, "/ready"), req, nil)
}

// SubmitMove sends the caller's choice for the current round
func (c *Client) SubmitMove(ctx context.Context, code model.RoomCode, userID model.UserID, choice model.Move) (*response.Move, error) {
	var result response.Move
	req := request.MoveRequest{UserID: string(userID), Choice: string(choice)}
	if err := c.Post(ctx, roomPath(code, "/move"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestRestart asks for the next round
func (c *Client) RequestRestart(ctx context.Context, code model.RoomCode, userID model.UserID) (string, error) {
	var result response.Message
	if err := c.Post(ctx, roomPath(code, "/restart"), request.UserRequest{UserID: string(userID)}, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// Scoreboard returns the persistent score and history
func (c *Client) Scoreboard(ctx context.Context, code model.RoomCode) (*response.Scoreboard, error) {
	var result response.Scoreboard
	if err := c.Get(ctx, roomPath(code, ""), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// State returns the concealed room record
func (c *Client) State(ctx context.Context, code model.RoomCode) (*model.RoomState, error) {
	var result model.RoomState
	if err := c.Get(ctx, roomPath(code, "/state"), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QR returns the PNG share code of the room
func (c *Client) QR(ctx context.Context, code model.RoomCode) ([]byte, error) {
	return c.Raw(ctx, roomPath(code, "/qr"))
}
