// game/engine.go
package game

import (
	"fmt"
	"math/rand"
	"time"
)

// Phase 对局阶段
type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhasePlaying  Phase = "PLAYING"
	PhaseGameOver Phase = "GAME_OVER"
)

// PendingAction 阻塞正常回合推进的子状态
type PendingAction string

const (
	PendingNone            PendingAction = "NONE"
	PendingTargetSelection PendingAction = "WAITING_FOR_TARGET_SELECTION"
	PendingShieldDecision  PendingAction = "WAITING_FOR_Q_DECISION"
)

// Engine owns the authoritative state of one room's game session. It is a
// pure state machine driven by discrete commands: no I/O, no goroutines, no
// internal locking. Callers (room.Room) must serialize all commands
// targeting the same engine.
type Engine struct {
	roomID              string
	phase               Phase
	players             []*Player
	currentTurnPlayerID string
	direction           int
	drawPile            []Card
	discardPile         []Card
	acesDrawn           int
	rankCounts          map[Rank]int
	pending             PendingAction
	actionTargetID      string
	lastAction          string
	rng                 *rand.Rand
}

// NewEngine creates an engine in LOBBY with the host as sole player.
func NewEngine(roomID string, host *Player) *Engine {
	return NewSeededEngine(roomID, host, time.Now().UnixNano())
}

// NewSeededEngine creates an engine with a deterministic shuffle source.
// 测试用：相同 seed 得到相同的洗牌序列
func NewSeededEngine(roomID string, host *Player, seed int64) *Engine {
	return &Engine{
		roomID:     roomID,
		phase:      PhaseLobby,
		players:    []*Player{host},
		direction:  1,
		rankCounts: make(map[Rank]int),
		pending:    PendingNone,
		lastAction: "Waiting for players...",
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// RoomID returns the owning room's code.
func (e *Engine) RoomID() string { return e.roomID }

// Phase returns the current game phase.
func (e *Engine) Phase() Phase { return e.phase }

// PlayerCount returns the number of players in the session.
func (e *Engine) PlayerCount() int { return len(e.players) }

// AddPlayer appends a player to the turn order. Joining is only possible
// before the game starts.
func (e *Engine) AddPlayer(p *Player) error {
	if e.phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	e.players = append(e.players, p)
	e.lastAction = fmt.Sprintf("%s joined the room.", p.Name)
	return nil
}

// RemovePlayer drops a player from the session. If the departing player was
// host and players remain, the first remaining player (join order) becomes
// host. Returns true when the player list is now empty, which signals the
// owning registry to discard the room.
func (e *Engine) RemovePlayer(playerID string) bool {
	kept := e.players[:0]
	var removed *Player
	for _, p := range e.players {
		if p.ID == playerID {
			removed = p
			continue
		}
		kept = append(kept, p)
	}
	e.players = kept

	if removed == nil {
		return len(e.players) == 0
	}
	if len(e.players) == 0 {
		return true
	}
	if removed.IsHost {
		e.players[0].IsHost = true
	}
	e.lastAction = fmt.Sprintf("%s left the room.", removed.Name)
	return false
}

// SetConnected flags a player as connected or disconnected without touching
// any rule state. Returns false if the player is unknown.
func (e *Engine) SetConnected(playerID string, connected bool) bool {
	p := e.playerByID(playerID)
	if p == nil {
		return false
	}
	p.IsConnected = connected
	return true
}

// StartGame builds and shuffles the deck, resets the rule counters and moves
// the session into PLAYING. The first joined player takes the first turn.
func (e *Engine) StartGame() error {
	if e.phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	if len(e.players) < 2 {
		return ErrNotEnoughPlayers
	}

	e.drawPile = NewDeck()
	e.shuffle(e.drawPile)
	e.discardPile = nil
	e.acesDrawn = 0
	e.rankCounts = make(map[Rank]int)
	e.direction = 1
	e.pending = PendingNone
	e.actionTargetID = ""
	e.currentTurnPlayerID = e.players[0].ID
	e.phase = PhasePlaying
	e.lastAction = fmt.Sprintf("Game started! %s's turn.", e.players[0].Name)
	return nil
}

// DrawCard pops the top of the draw pile for the current turn holder,
// applies the fire rule and the rank effect, and advances the turn unless a
// pending action or game over blocks it. Returns the drawn card and an
// optional penalty text.
func (e *Engine) DrawCard(playerID string) (Card, string, error) {
	if e.phase != PhasePlaying {
		return Card{}, "", ErrGameNotActive
	}
	if e.currentTurnPlayerID != playerID {
		return Card{}, "", ErrNotYourTurn
	}
	if e.pending != PendingNone {
		return Card{}, "", ErrPendingAction
	}

	if len(e.drawPile) == 0 {
		if err := e.reshuffle(); err != nil {
			return Card{}, "", err
		}
	}

	card := e.drawPile[len(e.drawPile)-1]
	e.drawPile = e.drawPile[:len(e.drawPile)-1]
	e.discardPile = append(e.discardPile, card)
	e.rankCounts[card.Rank]++

	var penalty string
	if e.rankCounts[card.Rank] == 4 {
		penalty = fmt.Sprintf("FIRE RULE! 4th %s drawn! DRINK!", card.Rank)
		// Reset the matched counter so the very next draw of this rank
		// cannot re-trigger.
		e.rankCounts[card.Rank] = 0
		e.playerByID(playerID).SipsConsumed++
	}

	desc := e.applyCardEffect(card, playerID)
	switch {
	case desc != "":
		e.lastAction = desc
	case penalty != "":
		e.lastAction = fmt.Sprintf("%s triggered the fire rule with %s!", e.playerName(playerID), card.Rank)
	default:
		e.lastAction = fmt.Sprintf("%s drew %s of %s.", e.playerName(playerID), card.Rank, card.Suit)
	}

	if e.pending == PendingNone && e.phase == PhasePlaying {
		e.advanceTurn()
	}
	return card, penalty, nil
}

// applyCardEffect mutates state per the drawn rank and returns the effect
// description, or "" when the generic draw description should stand.
func (e *Engine) applyCardEffect(card Card, playerID string) string {
	switch card.Rank {
	case RankAce:
		e.acesDrawn++
		if e.acesDrawn >= 4 {
			e.phase = PhaseGameOver
			return fmt.Sprintf("GAME OVER! %s drew the 4th ace!", e.playerName(playerID))
		}
		return ""
	case RankKing:
		e.pending = PendingTargetSelection
		return fmt.Sprintf("%s drew a King! Select a victim!", e.playerName(playerID))
	case RankJack:
		e.direction *= -1
		return "Direction reversed!"
	case RankQueen:
		// The Q leaves circulation: it moves from the discard pile into the
		// drawing player's hand as a shield.
		e.discardPile = e.discardPile[:len(e.discardPile)-1]
		p := e.playerByID(playerID)
		p.shieldCards = append(p.shieldCards, card)
		return fmt.Sprintf("%s kept a shield (Q).", p.Name)
	case RankTen:
		return "Social! Everyone drinks!"
	}
	return ""
}

// SelectTarget resolves a pending King by recording the chosen victim and
// advancing the turn. Out-of-turn or out-of-phase calls are silently
// ignored, matching the draw-command table's contract.
func (e *Engine) SelectTarget(playerID, targetID string) {
	if e.pending != PendingTargetSelection || e.currentTurnPlayerID != playerID {
		return
	}
	e.actionTargetID = targetID
	if target := e.playerByID(targetID); target != nil {
		target.SipsConsumed++
	}
	e.pending = PendingNone
	e.lastAction = fmt.Sprintf("%s selected %s to drink!", e.playerName(playerID), e.playerName(targetID))
	e.advanceTurn()
}

// UseShield resolves a pending shield decision. Spending a shield skips the
// whole turn, draw included; declining (or holding no shield) leaves the
// turn with the same player, who must now draw. Invalid calls are silently
// ignored.
func (e *Engine) UseShield(playerID string, useIt bool) {
	if e.pending != PendingShieldDecision || e.currentTurnPlayerID != playerID {
		return
	}
	p := e.playerByID(playerID)
	if p == nil {
		return
	}

	if useIt && len(p.shieldCards) > 0 {
		q := p.shieldCards[len(p.shieldCards)-1]
		p.shieldCards = p.shieldCards[:len(p.shieldCards)-1]
		// The spent Q rejoins circulation at the bottom of the discard pile,
		// keeping the 20-card partition intact.
		e.discardPile = append([]Card{q}, e.discardPile...)
		e.pending = PendingNone
		e.lastAction = fmt.Sprintf("%s used a shield (Q) to skip their turn!", p.Name)
		e.advanceTurn()
		return
	}

	e.pending = PendingNone
	e.lastAction = fmt.Sprintf("%s decided not to use their shield. Draw a card!", p.Name)
}

// advanceTurn steps the turn index by direction with wraparound. If the new
// current player holds a shield, they must decide whether to spend it before
// anyone can draw.
func (e *Engine) advanceTurn() {
	idx := e.playerIndex(e.currentTurnPlayerID)
	if idx < 0 {
		return
	}
	n := len(e.players)
	next := (idx + e.direction) % n
	if next < 0 {
		next += n
	}

	np := e.players[next]
	e.currentTurnPlayerID = np.ID
	if len(np.shieldCards) > 0 {
		e.pending = PendingShieldDecision
		e.lastAction = fmt.Sprintf("%s, you hold a shield! Use it to skip?", np.Name)
	} else {
		e.pending = PendingNone
	}
}

// reshuffle rebuilds the draw pile from the discard pile, keeping the top
// discard face up. Both piles empty is a corrupted-state condition the fixed
// deck makes unreachable.
func (e *Engine) reshuffle() error {
	if len(e.discardPile) <= 1 {
		return ErrDeckExhausted
	}
	top := e.discardPile[len(e.discardPile)-1]
	pile := make([]Card, len(e.discardPile)-1)
	copy(pile, e.discardPile[:len(e.discardPile)-1])
	e.shuffle(pile)
	e.drawPile = pile
	e.discardPile = []Card{top}
	e.lastAction = "Deck reshuffled!"
	return nil
}

// shuffle performs an in-place Fisher-Yates shuffle.
func (e *Engine) shuffle(cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := e.rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

func (e *Engine) playerIndex(playerID string) int {
	for i, p := range e.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (e *Engine) playerByID(playerID string) *Player {
	if i := e.playerIndex(playerID); i >= 0 {
		return e.players[i]
	}
	return nil
}

func (e *Engine) playerName(playerID string) string {
	if p := e.playerByID(playerID); p != nil {
		return p.Name
	}
	return "Unknown"
}
