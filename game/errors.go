// game/errors.go
package game

import "errors"

// 校验类错误：状态未被修改，调用方可提示用户后重试
var (
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameNotActive      = errors.New("game not active")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrPendingAction      = errors.New("resolve pending action first")
)

// ErrDeckExhausted is an internal invariant violation: with the fixed
// 20-card deck the draw pile and discard pile can never both run dry.
// It must be logged loudly and never shown verbatim to end users.
var ErrDeckExhausted = errors.New("draw and discard piles exhausted")
