// game/player.go
package game

import "github.com/google/uuid"

// Player 房间内的一名玩家
// Owned by the engine: created on join, removed on leave. The retained Q
// cards (shields) are kept here so the 20-card conservation invariant can be
// checked across draw pile, discard pile and every player's hand.
type Player struct {
	ID           string
	Name         string
	IsHost       bool
	IsConnected  bool
	SipsConsumed int

	shieldCards []Card
}

// NewPlayer creates a player with a fresh id. Host status is fixed at
// creation and only changes through host reassignment on removal.
func NewPlayer(name string, host bool) *Player {
	return &Player{
		ID:          uuid.New().String(),
		Name:        name,
		IsHost:      host,
		IsConnected: true,
	}
}

// Shields returns the number of retained Q cards.
func (p *Player) Shields() int {
	return len(p.shieldCards)
}
