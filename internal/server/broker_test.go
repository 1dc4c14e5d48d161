package server

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender collects events and can be made to fail
type fakeSender struct {
	mu     sync.Mutex
	events []Event
	fail   bool
	closed bool
}

func (f *fakeSender) Send(ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send failed")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestBroker() *ConnectionManager {
	return NewConnectionManager(log.New(io.Discard))
}

func TestBroadcastLobbyPrunesDeadConnections(t *testing.T) {
	cm := newTestBroker()
	alive := &fakeSender{}
	dead := &fakeSender{fail: true}
	cm.ConnectLobby(alive)
	cm.ConnectLobby(dead)

	cm.BroadcastLobby(NewEvent(EventLobbyUpdate, nil))
	assert.Equal(t, 1, alive.count())
	assert.True(t, dead.closed)

	// The dead connection is gone; broadcasting again only hits the
	// survivor.
	cm.BroadcastLobby(NewEvent(EventLobbyUpdate, nil))
	assert.Equal(t, 2, alive.count())
}

func TestBroadcastRoomExcludesNickname(t *testing.T) {
	cm := newTestBroker()
	alice := &fakeSender{}
	bob := &fakeSender{}
	cm.ConnectRoom("room1", "alice", alice)
	cm.ConnectRoom("room1", "bob", bob)

	cm.BroadcastRoom("room1", NewEvent(EventPlayerConnected, nil), "alice")
	assert.Equal(t, 0, alice.count())
	assert.Equal(t, 1, bob.count())
}

func TestSendToPlayer(t *testing.T) {
	cm := newTestBroker()
	alice := &fakeSender{}
	bob := &fakeSender{}
	cm.ConnectRoom("room1", "alice", alice)
	cm.ConnectRoom("room1", "bob", bob)

	cm.SendToPlayer("room1", "alice", NewEvent(EventError, nil))
	assert.Equal(t, 1, alice.count())
	assert.Equal(t, 0, bob.count())

	// Unknown targets are silently dropped.
	cm.SendToPlayer("room1", "nobody", NewEvent(EventError, nil))
	cm.SendToPlayer("ghost", "alice", NewEvent(EventError, nil))
	assert.Equal(t, 1, alice.count())
}

func TestSendToPlayerDropsDeadConnection(t *testing.T) {
	cm := newTestBroker()
	dead := &fakeSender{fail: true}
	cm.ConnectRoom("room1", "alice", dead)

	cm.SendToPlayer("room1", "alice", NewEvent(EventError, nil))
	assert.True(t, dead.closed)

	replacement := &fakeSender{}
	cm.ConnectRoom("room1", "alice", replacement)
	cm.SendToPlayer("room1", "alice", NewEvent(EventError, nil))
	assert.Equal(t, 1, replacement.count())
}

func TestConnectRoomReplacesPriorConnection(t *testing.T) {
	cm := newTestBroker()
	first := &fakeSender{}
	second := &fakeSender{}
	cm.ConnectRoom("room1", "alice", first)
	cm.ConnectRoom("room1", "alice", second)

	assert.True(t, first.closed, "replaced connection is closed")

	cm.BroadcastRoom("room1", NewEvent(EventTurn, nil), "")
	assert.Equal(t, 0, first.count())
	assert.Equal(t, 1, second.count())
}

func TestDisconnectRoomOnlyRemovesOwnConnection(t *testing.T) {
	cm := newTestBroker()
	first := &fakeSender{}
	second := &fakeSender{}
	cm.ConnectRoom("room1", "alice", first)

	// A reconnect replaced first; first's deferred disconnect must not
	// tear down the replacement.
	cm.ConnectRoom("room1", "alice", second)
	cm.DisconnectRoom("room1", "alice", first)

	cm.SendToPlayer("room1", "alice", NewEvent(EventTurn, nil))
	assert.Equal(t, 1, second.count())
}

func TestRoomBroadcasterRoutesViewer(t *testing.T) {
	cm := newTestBroker()
	alice := &fakeSender{}
	bob := &fakeSender{}
	cm.ConnectRoom("room1", "alice", alice)
	cm.ConnectRoom("room1", "bob", bob)

	broadcast := cm.RoomBroadcaster()

	broadcast("room1", NewEvent(EventHandStarted, nil), "alice")
	assert.Equal(t, 1, alice.count())
	assert.Equal(t, 0, bob.count())

	broadcast("room1", NewEvent(EventCommunityCards, nil), "")
	require.Equal(t, 2, alice.count())
	require.Equal(t, 1, bob.count())
}
