package storage

import (
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
)

// Mailbox is a Subscription holding at most one pending snapshot. A newer
// snapshot replaces an undelivered older one; stale revisions are dropped.
type Mailbox struct {
	mu      sync.Mutex
	ch      chan *model.RoomState
	seen    bool
	last    int64
	closed  bool
	onClose func()
}

var _ Subscription = (*Mailbox)(nil)

// NewMailbox creates a mailbox. onClose, if set, runs once on Close.
func NewMailbox(onClose func()) *Mailbox {
	return &Mailbox{
		ch:      make(chan *model.RoomState, 1),
		onClose: onClose,
	}
}

// Offer queues the snapshot unless an equal or newer revision was already offered
func (m *Mailbox) Offer(state *model.RoomState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || (m.seen && state.Revision <= m.last) {
		return
	}
	select {
	case <-m.ch:
	default:
	}
	m.ch <- state
	m.seen = true
	m.last = state.Revision
}

// C returns the delivery channel. It is closed by Close.
func (m *Mailbox) C() <-chan *model.RoomState {
	return m.ch
}

// Close stops delivery. Safe to call more than once.
func (m *Mailbox) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.ch)
	onClose := m.onClose
	m.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return nil
}
