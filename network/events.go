// network/events.go
package network

import "github.com/wfunc/cardserver/game"

// Outbound payloads. Every mutating command is followed by a full
// MsgTypeGameState snapshot; MsgTypeCardDrawn goes out alongside it so
// clients can trigger draw animations.

type CreateRoomResponse struct {
	RoomID string              `json:"room_id"`
	Player game.PlayerSnapshot `json:"player"`
}

type JoinRoomResponse struct {
	Player game.PlayerSnapshot `json:"player"`
	State  game.Snapshot       `json:"state"`
}

type CardDrawnEvent struct {
	PlayerID string    `json:"player_id"`
	Card     game.Card `json:"card"`
	Penalty  string    `json:"penalty,omitempty"`
}

type PlayerJoinedEvent struct {
	Player game.PlayerSnapshot `json:"player"`
}

type PlayerLeftEvent struct {
	PlayerID string `json:"player_id"`
}
