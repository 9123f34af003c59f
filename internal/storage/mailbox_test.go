package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsgame/internal/model"
)

func TestMailboxCoalescesToLatest(t *testing.T) {
	m := NewMailbox(nil)
	m.Offer(&model.RoomState{Revision: 1})
	m.Offer(&model.RoomState{Revision: 2})
	m.Offer(&model.RoomState{Revision: 3})

	got := <-m.C()
	assert.Equal(t, int64(3), got.Revision)

	select {
	case extra := <-m.C():
		t.Fatalf("unexpected extra snapshot %d", extra.Revision)
	default:
	}
}

func TestMailboxDropsStaleRevisions(t *testing.T) {
	m := NewMailbox(nil)
	m.Offer(&model.RoomState{Revision: 5})
	<-m.C()

	m.Offer(&model.RoomState{Revision: 4})
	m.Offer(&model.RoomState{Revision: 5})
	select {
	case s := <-m.C():
		t.Fatalf("stale snapshot delivered: %d", s.Revision)
	default:
	}

	m.Offer(&model.RoomState{Revision: 6})
	got := <-m.C()
	assert.Equal(t, int64(6), got.Revision)
}

func TestMailboxClose(t *testing.T) {
	calls := 0
	m := NewMailbox(func() { calls++ })

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, calls)

	m.Offer(&model.RoomState{Revision: 1})
	_, ok := <-m.C()
	assert.False(t, ok)
}
