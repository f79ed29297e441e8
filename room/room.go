// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/wfunc/cardserver/game"
	"github.com/wfunc/cardserver/logger"
)

// GameType 本服务唯一的游戏类型
const GameType = "fire_card"

// Room pairs one engine with the lock that serializes every command
// targeting it. The engine itself is not thread-safe; turn-order and
// pending-action invariants depend on commands never interleaving.
type Room struct {
	ID         string
	CreatedAt  time.Time
	MaxPlayers int

	engine      *game.Engine
	broadcaster Broadcaster
	mu          sync.Mutex
	lastActive  time.Time
	startedAt   time.Time
}

func newRoom(id string, host *game.Player, maxPlayers int, broadcaster Broadcaster) *Room {
	now := time.Now()
	return &Room{
		ID:          id,
		CreatedAt:   now,
		MaxPlayers:  maxPlayers,
		engine:      game.NewEngine(id, host),
		broadcaster: broadcaster,
		lastActive:  now,
	}
}

// touch must be called with mu held.
func (r *Room) touch() {
	r.lastActive = time.Now()
}

// Snapshot returns a defensive copy of the room's game state.
func (r *Room) Snapshot() game.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Snapshot()
}

// Phase returns the current game phase.
func (r *Room) Phase() game.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Phase()
}

// PlayerCount returns the number of players in the room.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.PlayerCount()
}

// IdleFor reports how long ago the last command hit this room.
func (r *Room) IdleFor() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.lastActive)
}

// StartedAt returns when the game left the lobby, zero if it never did.
func (r *Room) StartedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startedAt
}

// AddPlayer joins a player, enforcing the lobby-only and capacity rules.
func (r *Room) AddPlayer(p *game.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine.PlayerCount() >= r.MaxPlayers {
		return ErrRoomFull
	}
	if err := r.engine.AddPlayer(p); err != nil {
		return err
	}
	r.touch()
	return nil
}

// RemovePlayer drops a player and reports whether the room is now empty.
func (r *Room) RemovePlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	return r.engine.RemovePlayer(playerID)
}

// MarkDisconnected flags a player as gone without touching rule state.
func (r *Room) MarkDisconnected(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	return r.engine.SetConnected(playerID, false)
}

// StartGame begins play and returns the first snapshot of the new phase.
func (r *Room) StartGame() (game.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.engine.StartGame(); err != nil {
		return game.Snapshot{}, err
	}
	r.startedAt = time.Now()
	r.touch()
	return r.engine.Snapshot(), nil
}

// DrawCard executes a draw for the given player. An ErrDeckExhausted from
// the engine means corrupted internal state and is logged loudly here; the
// caller must not surface it verbatim.
func (r *Room) DrawCard(playerID string) (game.Card, string, game.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, penalty, err := r.engine.DrawCard(playerID)
	if err != nil {
		if err == game.ErrDeckExhausted {
			logger.Log.Errorf("Invariant violation in room %s: %v", r.ID, err)
		}
		return game.Card{}, "", game.Snapshot{}, err
	}
	r.touch()
	return card, penalty, r.engine.Snapshot(), nil
}

// SelectTarget resolves a pending King. Invalid calls are silent no-ops, so
// a snapshot is always returned.
func (r *Room) SelectTarget(playerID, targetID string) game.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine.SelectTarget(playerID, targetID)
	r.touch()
	return r.engine.Snapshot()
}

// UseShield resolves a pending shield decision. Invalid calls are silent
// no-ops, so a snapshot is always returned.
func (r *Room) UseShield(playerID string, useIt bool) game.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine.UseShield(playerID, useIt)
	r.touch()
	return r.engine.Snapshot()
}

// Broadcast sends a message to every session in this room.
func (r *Room) Broadcast(msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToRoom(r.ID, msgID, data)
}
