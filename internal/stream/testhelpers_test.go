package stream

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/services/presence"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	"github.com/mcoot/rpsgame/internal/testutil"
)

type fixture struct {
	storage  *memory.Storage
	manager  *HubManager
	presence *presence.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	state := model.NewRoomState("room-1", model.User{ID: "u1", Username: "ana"})
	state.Player2 = &model.PlayerSlot{UserID: "u2", Username: "beto"}
	state.RoundStatus = model.StatusWaitingSelections
	require.NoError(t, store.CreateRoom(ctx, state))

	logger := testutil.NopLogger()
	f := &fixture{
		storage:  store,
		manager:  NewHubManager(store, logger),
		presence: presence.New(store, logger),
	}
	t.Cleanup(f.manager.Close)
	return f
}

func (f *fixture) hub(t *testing.T) *Hub {
	t.Helper()
	hub, err := f.manager.GetOrCreateHub("AB12CD", "room-1")
	require.NoError(t, err)
	return hub
}

// handler connects the caller named by ?userId and hands it to serve
func (f *fixture) handler(serve func(http.ResponseWriter, *http.Request, *Client, Presence)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, err := f.manager.Connect("AB12CD", "room-1", model.UserID(r.URL.Query().Get("userId")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		serve(w, r, client, f.presence)
	})
}

func (f *fixture) choose(t *testing.T, slot model.Slot, m model.Move) {
	t.Helper()
	_, err := f.storage.Update(context.Background(), "room-1", model.ForSlot(slot, model.SlotPatch{Choice: model.MovePtr(m)}))
	require.NoError(t, err)
}
