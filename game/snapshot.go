// game/snapshot.go
package game

// PlayerSnapshot 对外可见的玩家视图
type PlayerSnapshot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsHost       bool   `json:"is_host"`
	IsConnected  bool   `json:"is_connected"`
	Shields      int    `json:"shields"`
	SipsConsumed int    `json:"sips_consumed"`
}

// Snapshot is the read-only view broadcast to room members after every
// mutating command. The draw pile is exposed only as a count: its order and
// contents are the secret state the engine protects.
type Snapshot struct {
	RoomID                string           `json:"room_id"`
	Phase                 Phase            `json:"phase"`
	Players               []PlayerSnapshot `json:"players"`
	CurrentTurnPlayerID   string           `json:"current_turn_player_id"`
	Direction             int              `json:"direction"`
	DrawPileCount         int              `json:"draw_pile_count"`
	DiscardPile           []Card           `json:"discard_pile"`
	AcesDrawnCount        int              `json:"aces_drawn_count"`
	PendingAction         PendingAction    `json:"pending_action"`
	ActionTargetID        string           `json:"action_target_id,omitempty"`
	LastActionDescription string           `json:"last_action_description"`
}

// Snapshot builds a defensive copy of the externally visible state.
func (e *Engine) Snapshot() Snapshot {
	players := make([]PlayerSnapshot, 0, len(e.players))
	for _, p := range e.players {
		players = append(players, PlayerSnapshot{
			ID:           p.ID,
			Name:         p.Name,
			IsHost:       p.IsHost,
			IsConnected:  p.IsConnected,
			Shields:      len(p.shieldCards),
			SipsConsumed: p.SipsConsumed,
		})
	}

	discard := make([]Card, len(e.discardPile))
	copy(discard, e.discardPile)

	return Snapshot{
		RoomID:                e.roomID,
		Phase:                 e.phase,
		Players:               players,
		CurrentTurnPlayerID:   e.currentTurnPlayerID,
		Direction:             e.direction,
		DrawPileCount:         len(e.drawPile),
		DiscardPile:           discard,
		AcesDrawnCount:        e.acesDrawn,
		PendingAction:         e.pending,
		ActionTargetID:        e.actionTargetID,
		LastActionDescription: e.lastAction,
	}
}
