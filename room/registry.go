// room/registry.go
package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/cardserver/game"
	"github.com/wfunc/cardserver/logger"
)

// CodeLength 房间码长度
const CodeLength = 4

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
)

// Registry creates and looks up rooms by their short code. Commands
// targeting different rooms run in parallel; the registry map is the only
// shared state and is guarded here.
type Registry struct {
	rooms      map[string]*Room
	maxPlayers int
	rng        *rand.Rand
	mutex      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry(maxPlayers int) *Registry {
	return NewSeededRegistry(maxPlayers, time.Now().UnixNano())
}

// NewSeededRegistry creates a registry with a deterministic code sequence.
func NewSeededRegistry(maxPlayers int, seed int64) *Registry {
	return &Registry{
		rooms:      make(map[string]*Room),
		maxPlayers: maxPlayers,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// CreateRoom generates a fresh room code, retrying on collision, and
// instantiates a lobby with the host as sole player.
func (reg *Registry) CreateRoom(host *game.Player, broadcaster Broadcaster) *Room {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	var code string
	for {
		code = reg.randomCode()
		if _, exists := reg.rooms[code]; !exists {
			break
		}
	}

	r := newRoom(code, host, reg.maxPlayers, broadcaster)
	reg.rooms[code] = r
	logger.Log.Infof("Room %s created by %s", code, host.Name)
	return r
}

// randomCode must be called with mutex held.
func (reg *Registry) randomCode() string {
	code := make([]byte, CodeLength)
	for i := range code {
		code[i] = codeAlphabet[reg.rng.Intn(len(codeAlphabet))]
	}
	return string(code)
}

// GetRoom looks up a room by code.
func (reg *Registry) GetRoom(id string) (*Room, bool) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	r, exists := reg.rooms[id]
	return r, exists
}

// JoinRoom adds a player to an existing lobby. Fails with ErrRoomNotFound,
// game.ErrGameAlreadyStarted or ErrRoomFull.
func (reg *Registry) JoinRoom(id string, p *game.Player) (game.Snapshot, error) {
	r, exists := reg.GetRoom(id)
	if !exists {
		return game.Snapshot{}, ErrRoomNotFound
	}
	if err := r.AddPlayer(p); err != nil {
		return game.Snapshot{}, err
	}
	return r.Snapshot(), nil
}

// RemovePlayer delegates to the room and deletes the room entry once its
// player list is empty. Reports whether the room was deleted.
func (reg *Registry) RemovePlayer(roomID, playerID string) bool {
	r, exists := reg.GetRoom(roomID)
	if !exists {
		return false
	}
	if !r.RemovePlayer(playerID) {
		return false
	}
	reg.deleteRoom(roomID)
	return true
}

// HandleDisconnect applies the disconnect policy: players leave lobbies for
// good, while mid-game players are only flagged disconnected. Reports
// whether the room was deleted.
func (reg *Registry) HandleDisconnect(roomID, playerID string) bool {
	r, exists := reg.GetRoom(roomID)
	if !exists {
		return false
	}
	if r.Phase() == game.PhaseLobby {
		return reg.RemovePlayer(roomID, playerID)
	}
	r.MarkDisconnected(playerID)
	return false
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	return len(reg.rooms)
}

// RoomInfo 房间概要，供运维接口使用
type RoomInfo struct {
	ID      string
	Phase   game.Phase
	Players int
}

// List returns a summary of every live room.
func (reg *Registry) List() []RoomInfo {
	reg.mutex.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mutex.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, RoomInfo{ID: r.ID, Phase: r.Phase(), Players: r.PlayerCount()})
	}
	return infos
}

// SweepIdle removes rooms that sat idle past the TTL and are not mid-game.
// A stalled PLAYING room is never reclaimed: pending actions have no
// timeout. Returns the number of rooms removed.
func (reg *Registry) SweepIdle(ttl time.Duration) int {
	var stale []string
	reg.mutex.RLock()
	for id, r := range reg.rooms {
		if r.Phase() != game.PhasePlaying && r.IdleFor() > ttl {
			stale = append(stale, id)
		}
	}
	reg.mutex.RUnlock()

	for _, id := range stale {
		reg.deleteRoom(id)
	}
	return len(stale)
}

func (reg *Registry) deleteRoom(id string) {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	if _, exists := reg.rooms[id]; exists {
		delete(reg.rooms, id)
		logger.Log.Infof("Room %s removed", id)
	}
}
