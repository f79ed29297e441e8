package game

import (
	"testing"

	"github.com/google/uuid"
)

// testEngine builds a seeded engine with the given players, first name is host.
func testEngine(t *testing.T, names ...string) (*Engine, []*Player) {
	t.Helper()
	if len(names) == 0 {
		t.Fatal("testEngine needs at least one player name")
	}
	host := NewPlayer(names[0], true)
	e := NewSeededEngine("TEST", host, 1)
	players := []*Player{host}
	for _, name := range names[1:] {
		p := NewPlayer(name, false)
		if err := e.AddPlayer(p); err != nil {
			t.Fatalf("AddPlayer(%s) failed: %v", name, err)
		}
		players = append(players, p)
	}
	return e, players
}

// rigPile replaces the draw pile so that draws come out in the given rank
// order. The cards are synthetic and bypass deck conservation on purpose.
func rigPile(e *Engine, ranks ...Rank) {
	pile := make([]Card, 0, len(ranks))
	for i := len(ranks) - 1; i >= 0; i-- {
		pile = append(pile, Card{ID: uuid.New().String(), Suit: SuitSpades, Rank: ranks[i]})
	}
	e.drawPile = pile
}

func TestStartGame_NotEnoughPlayers(t *testing.T) {
	e, _ := testEngine(t, "Alice")
	if err := e.StartGame(); err != ErrNotEnoughPlayers {
		t.Fatalf("Expected ErrNotEnoughPlayers, got %v", err)
	}
	if e.Phase() != PhaseLobby {
		t.Errorf("Failed start should leave phase LOBBY, got %s", e.Phase())
	}
}

func TestStartGame_DealsFullShuffledDeck(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	snap := e.Snapshot()
	if snap.Phase != PhasePlaying {
		t.Errorf("Expected phase PLAYING, got %s", snap.Phase)
	}
	if snap.DrawPileCount != DeckSize {
		t.Errorf("Expected %d cards in the draw pile, got %d", DeckSize, snap.DrawPileCount)
	}
	if len(snap.DiscardPile) != 0 {
		t.Errorf("Expected empty discard pile, got %d cards", len(snap.DiscardPile))
	}
	if snap.CurrentTurnPlayerID != players[0].ID {
		t.Errorf("First joined player should hold the first turn")
	}
	if snap.Direction != 1 {
		t.Errorf("Expected direction +1, got %d", snap.Direction)
	}

	if err := e.StartGame(); err != ErrGameAlreadyStarted {
		t.Errorf("Second StartGame should fail with ErrGameAlreadyStarted, got %v", err)
	}
}

func TestAddPlayer_AfterStart(t *testing.T) {
	e, _ := testEngine(t, "Alice", "Bob")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if err := e.AddPlayer(NewPlayer("Carol", false)); err != ErrGameAlreadyStarted {
		t.Fatalf("Expected ErrGameAlreadyStarted, got %v", err)
	}
}

func TestDrawCard_Preconditions(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")

	if _, _, err := e.DrawCard(players[0].ID); err != ErrGameNotActive {
		t.Errorf("Draw in LOBBY: expected ErrGameNotActive, got %v", err)
	}

	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	if _, _, err := e.DrawCard(players[1].ID); err != ErrNotYourTurn {
		t.Errorf("Out-of-turn draw: expected ErrNotYourTurn, got %v", err)
	}

	rigPile(e, RankKing)
	if _, _, err := e.DrawCard(players[0].ID); err != nil {
		t.Fatalf("King draw failed: %v", err)
	}
	if _, _, err := e.DrawCard(players[0].ID); err != ErrPendingAction {
		t.Errorf("Draw with pending action: expected ErrPendingAction, got %v", err)
	}
}

func TestDrawCard_AdvancesTurnWithWraparound(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob", "Carol")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	rigPile(e, RankTen, RankTen, RankTen, RankTen)

	order := []string{players[1].ID, players[2].ID, players[0].ID, players[1].ID}
	for i, want := range order {
		cur := e.Snapshot().CurrentTurnPlayerID
		if _, _, err := e.DrawCard(cur); err != nil {
			t.Fatalf("Draw %d failed: %v", i, err)
		}
		if got := e.Snapshot().CurrentTurnPlayerID; got != want {
			t.Fatalf("After draw %d expected turn %s, got %s", i, want, got)
		}
	}
}

func TestJack_FlipsDirectionAndWrapsBackward(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob", "Carol")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	rigPile(e, RankJack, RankTen)

	if _, _, err := e.DrawCard(players[0].ID); err != nil {
		t.Fatalf("Jack draw failed: %v", err)
	}
	snap := e.Snapshot()
	if snap.Direction != -1 {
		t.Errorf("Jack should flip direction to -1, got %d", snap.Direction)
	}
	// Advancing from index 0 with direction -1 wraps to the last player.
	if snap.CurrentTurnPlayerID != players[2].ID {
		t.Errorf("Expected turn to wrap to %s, got %s", players[2].Name, snap.CurrentTurnPlayerID)
	}

	if _, _, err := e.DrawCard(players[2].ID); err != nil {
		t.Fatalf("Ten draw failed: %v", err)
	}
	if got := e.Snapshot().Direction; got != -1 {
		t.Errorf("Ten must not change direction, got %d", got)
	}
}

func TestFireRule_TriggersOnExactlyFourthDraw(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	rigPile(e, RankTen, RankTen, RankTen, RankTen, RankTen)

	for i := 0; i < 3; i++ {
		cur := e.Snapshot().CurrentTurnPlayerID
		_, penalty, err := e.DrawCard(cur)
		if err != nil {
			t.Fatalf("Draw %d failed: %v", i, err)
		}
		if penalty != "" {
			t.Fatalf("Draw %d should not trigger the fire rule, got %q", i, penalty)
		}
	}

	cur := e.Snapshot().CurrentTurnPlayerID
	_, penalty, err := e.DrawCard(cur)
	if err != nil {
		t.Fatalf("4th draw failed: %v", err)
	}
	if penalty == "" {
		t.Fatal("4th draw of a rank must trigger the fire rule")
	}
	if e.rankCounts[RankTen] != 0 {
		t.Errorf("Matched counter must reset to 0 on trigger, got %d", e.rankCounts[RankTen])
	}

	// Counter was reset: the next ten is a fresh count of one.
	cur = e.Snapshot().CurrentTurnPlayerID
	if _, penalty, err = e.DrawCard(cur); err != nil {
		t.Fatalf("5th draw failed: %v", err)
	}
	if penalty != "" {
		t.Errorf("Draw after reset must not re-trigger, got %q", penalty)
	}
	_ = players
}

func TestKing_BlocksAdvanceUntilTargetSelected(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob", "Carol")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	rigPile(e, RankKing)

	if _, _, err := e.DrawCard(players[0].ID); err != nil {
		t.Fatalf("King draw failed: %v", err)
	}
	snap := e.Snapshot()
	if snap.PendingAction != PendingTargetSelection {
		t.Fatalf("Expected pending target selection, got %s", snap.PendingAction)
	}
	if snap.CurrentTurnPlayerID != players[0].ID {
		t.Error("King must not advance the turn before a target is selected")
	}

	// Out-of-turn selection is silently ignored.
	e.SelectTarget(players[1].ID, players[2].ID)
	if e.Snapshot().PendingAction != PendingTargetSelection {
		t.Error("Out-of-turn SelectTarget must be a no-op")
	}

	e.SelectTarget(players[0].ID, players[2].ID)
	snap = e.Snapshot()
	if snap.PendingAction != PendingNone {
		t.Errorf("Expected pending action cleared, got %s", snap.PendingAction)
	}
	if snap.ActionTargetID != players[2].ID {
		t.Errorf("Expected action target %s, got %s", players[2].ID, snap.ActionTargetID)
	}
	if snap.CurrentTurnPlayerID != players[1].ID {
		t.Errorf("Turn should advance to %s after target selection", players[1].Name)
	}
	if snap.Players[2].SipsConsumed != 1 {
		t.Errorf("Target should have 1 sip recorded, got %d", snap.Players[2].SipsConsumed)
	}

	// No pending action left: another call changes nothing.
	e.SelectTarget(players[1].ID, players[0].ID)
	if got := e.Snapshot().ActionTargetID; got != players[2].ID {
		t.Errorf("SelectTarget without pending action must be a no-op, target became %s", got)
	}
}

func TestQueen_GrantsShieldAndShieldDecision(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	rigPile(e, RankQueen, RankTen)

	if _, _, err := e.DrawCard(players[0].ID); err != nil {
		t.Fatalf("Queen draw failed: %v", err)
	}
	snap := e.Snapshot()
	if snap.Players[0].Shields != 1 {
		t.Fatalf("Expected 1 shield for Alice, got %d", snap.Players[0].Shields)
	}
	if len(snap.DiscardPile) != 0 {
		t.Errorf("Retained Q must leave the discard pile, got %d cards there", len(snap.DiscardPile))
	}
	if snap.CurrentTurnPlayerID != players[1].ID || snap.PendingAction != PendingNone {
		t.Error("Turn should pass normally to a shieldless player")
	}

	// Bob draws; the turn comes back to Alice who now holds a shield.
	if _, _, err := e.DrawCard(players[1].ID); err != nil {
		t.Fatalf("Ten draw failed: %v", err)
	}
	snap = e.Snapshot()
	if snap.PendingAction != PendingShieldDecision {
		t.Fatalf("Expected shield decision pending, got %s", snap.PendingAction)
	}
	if snap.CurrentTurnPlayerID != players[0].ID {
		t.Fatal("Shield decision must sit with the shield holder")
	}
}

func TestUseShield_SkipConsumesExactlyOne(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	rigPile(e, RankQueen, RankTen)

	if _, _, err := e.DrawCard(players[0].ID); err != nil {
		t.Fatalf("Queen draw failed: %v", err)
	}
	if _, _, err := e.DrawCard(players[1].ID); err != nil {
		t.Fatalf("Ten draw failed: %v", err)
	}

	// Out-of-turn decision is silently ignored.
	e.UseShield(players[1].ID, true)
	if e.Snapshot().PendingAction != PendingShieldDecision {
		t.Error("Out-of-turn UseShield must be a no-op")
	}

	e.UseShield(players[0].ID, true)
	snap := e.Snapshot()
	if snap.Players[0].Shields != 0 {
		t.Errorf("Shield should be consumed, got %d left", snap.Players[0].Shields)
	}
	if snap.CurrentTurnPlayerID != players[1].ID {
		t.Error("Spending a shield must skip the holder's whole turn")
	}
	if snap.PendingAction != PendingNone {
		t.Errorf("Expected no pending action, got %s", snap.PendingAction)
	}
	// The spent Q rejoined the discard pile.
	found := false
	for _, c := range snap.DiscardPile {
		if c.Rank == RankQueen {
			found = true
		}
	}
	if !found {
		t.Error("Spent shield Q should return to the discard pile")
	}
}

func TestUseShield_DeclineKeepsTurn(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	rigPile(e, RankQueen, RankTen, RankTen)

	if _, _, err := e.DrawCard(players[0].ID); err != nil {
		t.Fatalf("Queen draw failed: %v", err)
	}
	if _, _, err := e.DrawCard(players[1].ID); err != nil {
		t.Fatalf("Ten draw failed: %v", err)
	}

	e.UseShield(players[0].ID, false)
	snap := e.Snapshot()
	if snap.CurrentTurnPlayerID != players[0].ID {
		t.Error("Declining the shield must leave the turn with the same player")
	}
	if snap.PendingAction != PendingNone {
		t.Errorf("Expected pending action cleared, got %s", snap.PendingAction)
	}
	if snap.Players[0].Shields != 1 {
		t.Errorf("Declined shield must be kept, got %d", snap.Players[0].Shields)
	}

	// The same player now draws normally.
	if _, _, err := e.DrawCard(players[0].ID); err != nil {
		t.Fatalf("Draw after declining shield failed: %v", err)
	}
}

func TestAce_FourthEndsGame(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	rigPile(e, RankAce, RankAce, RankAce, RankAce)

	for i := 0; i < 3; i++ {
		cur := e.Snapshot().CurrentTurnPlayerID
		if _, _, err := e.DrawCard(cur); err != nil {
			t.Fatalf("Ace draw %d failed: %v", i, err)
		}
		if e.Phase() != PhasePlaying {
			t.Fatalf("Game must stay PLAYING after %d aces", i+1)
		}
	}

	cur := e.Snapshot().CurrentTurnPlayerID
	if _, _, err := e.DrawCard(cur); err != nil {
		t.Fatalf("4th ace draw failed: %v", err)
	}
	snap := e.Snapshot()
	if snap.Phase != PhaseGameOver {
		t.Fatalf("4th ace must end the game, phase is %s", snap.Phase)
	}
	if snap.AcesDrawnCount != 4 {
		t.Errorf("Expected ace count 4, got %d", snap.AcesDrawnCount)
	}
	// Turn does not advance past game over: the drawer stays current.
	if snap.CurrentTurnPlayerID != cur {
		t.Error("Turn must not advance after the terminal ace")
	}

	if _, _, err := e.DrawCard(snap.CurrentTurnPlayerID); err != ErrGameNotActive {
		t.Errorf("Draw after game over: expected ErrGameNotActive, got %v", err)
	}
	_ = players
}

func TestReshuffle_KeepsTopAndConservesCards(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	// Move the whole deck onto the discard pile by hand.
	e.discardPile = e.drawPile
	e.drawPile = nil
	top := e.discardPile[len(e.discardPile)-1]
	before := make(map[string]bool)
	for _, c := range e.discardPile[:len(e.discardPile)-1] {
		before[c.ID] = true
	}

	card, _, err := e.DrawCard(players[0].ID)
	if err != nil {
		t.Fatalf("Draw with empty pile should reshuffle, got error: %v", err)
	}
	if !before[card.ID] {
		t.Error("Drawn card should come from the reshuffled discard pile")
	}

	snap := e.Snapshot()
	if snap.DiscardPile[0].ID != top.ID {
		t.Error("Reshuffle must retain the previous top discard card")
	}
	// Draw pile after reshuffle = discard before, minus the retained top,
	// minus the card just drawn.
	if snap.DrawPileCount != DeckSize-2 {
		t.Errorf("Expected %d cards in the draw pile, got %d", DeckSize-2, snap.DrawPileCount)
	}
}

func TestDrawCard_BothPilesEmptyIsFatal(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	e.drawPile = nil
	e.discardPile = e.discardPile[:0]

	if _, _, err := e.DrawCard(players[0].ID); err != ErrDeckExhausted {
		t.Fatalf("Expected ErrDeckExhausted, got %v", err)
	}
}

// checkConservation asserts the 20 fixed card ids are exactly partitioned
// across draw pile, discard pile and all retained shields.
func checkConservation(t *testing.T, e *Engine) {
	t.Helper()
	seen := make(map[string]int)
	total := 0
	for _, c := range e.drawPile {
		seen[c.ID]++
		total++
	}
	for _, c := range e.discardPile {
		seen[c.ID]++
		total++
	}
	for _, p := range e.players {
		for _, c := range p.shieldCards {
			seen[c.ID]++
			total++
		}
	}
	if total != DeckSize {
		t.Fatalf("Card conservation broken: %d cards in circulation, want %d", total, DeckSize)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("Card %s appears %d times", id, n)
		}
	}
}

func TestConservation_AcrossFullGame(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob", "Carol")
	if err := e.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	checkConservation(t, e)

	// Play the seeded game to completion, always resolving pending actions:
	// kings target the next player, shields are declined so every card keeps
	// moving through the piles.
	for i := 0; i < 500 && e.Phase() == PhasePlaying; i++ {
		snap := e.Snapshot()
		cur := snap.CurrentTurnPlayerID
		switch snap.PendingAction {
		case PendingTargetSelection:
			for _, p := range players {
				if p.ID != cur {
					e.SelectTarget(cur, p.ID)
					break
				}
			}
		case PendingShieldDecision:
			e.UseShield(cur, i%2 == 0)
		default:
			if _, _, err := e.DrawCard(cur); err != nil {
				t.Fatalf("Draw failed at step %d: %v", i, err)
			}
		}
		checkConservation(t, e)
	}

	if e.Phase() != PhaseGameOver {
		t.Fatal("Seeded game did not reach GAME_OVER within 500 steps")
	}
}

func TestRemovePlayer_ReassignsHost(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob", "Carol")

	empty := e.RemovePlayer(players[0].ID)
	if empty {
		t.Fatal("Room is not empty after removing one of three players")
	}
	snap := e.Snapshot()
	if len(snap.Players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(snap.Players))
	}
	if !snap.Players[0].IsHost {
		t.Error("First remaining player should inherit host")
	}
	if snap.Players[0].ID != players[1].ID {
		t.Error("Host reassignment must follow join order")
	}

	e.RemovePlayer(players[1].ID)
	if !e.RemovePlayer(players[2].ID) {
		t.Error("Removing the last player must signal an empty room")
	}
}

func TestSetConnected(t *testing.T) {
	e, players := testEngine(t, "Alice", "Bob")
	if !e.SetConnected(players[1].ID, false) {
		t.Fatal("SetConnected should find the player")
	}
	if e.Snapshot().Players[1].IsConnected {
		t.Error("Player should be flagged disconnected")
	}
	if e.SetConnected("missing", false) {
		t.Error("SetConnected must report unknown players")
	}
}
