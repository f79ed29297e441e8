// game/card.go
package game

import "github.com/google/uuid"

// Suit 花色
type Suit string

const (
	SuitSpades   Suit = "SPADES"
	SuitHearts   Suit = "HEARTS"
	SuitDiamonds Suit = "DIAMONDS"
	SuitClubs    Suit = "CLUBS"
)

// Rank 牌面
type Rank string

const (
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
	RankAce   Rank = "A"
)

// Suits and Ranks define the fixed composition of the deck: one card per
// (suit, rank) pair, DeckSize cards total.
var (
	Suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}
	Ranks = []Rank{RankTen, RankJack, RankQueen, RankKing, RankAce}
)

// DeckSize 牌堆固定大小
const DeckSize = 20

// Card is an immutable card value. The ID is unique per physical card and is
// what clients key their animations on.
type Card struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
}

// NewDeck builds the fixed 20-card deck in a deterministic order. Shuffling
// is the engine's job.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, Card{
				ID:   uuid.New().String(),
				Suit: suit,
				Rank: rank,
			})
		}
	}
	return deck
}
