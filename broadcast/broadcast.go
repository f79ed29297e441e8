// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/cardserver/room"
	"github.com/wfunc/cardserver/session"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player has no live session")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
	BroadcastToPlayer(playerID string, msgID uint16, data []byte) error
}

// RoomBroadcaster fans messages out over the sessions bound to a room.
type RoomBroadcaster struct {
	registry       *room.Registry
	sessionManager *session.Manager
}

func NewRoomBroadcaster(registry *room.Registry, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		registry:       registry,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	if _, exists := b.registry.GetRoom(roomID); !exists {
		return ErrRoomNotFound
	}

	for _, s := range b.sessionManager.GetByRoomID(roomID) {
		if err := s.Send(msgID, data); err != nil {
			// A dead connection is reaped by its own read loop; keep
			// delivering to the rest of the room.
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, info := range b.registry.List() {
		if err := b.BroadcastToRoom(info.ID, msgID, data); err != nil {
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToPlayer(playerID string, msgID uint16, data []byte) error {
	s, exists := b.sessionManager.GetByPlayerID(playerID)
	if !exists {
		return ErrPlayerNotFound
	}
	return s.Send(msgID, data)
}
