package network

// 消息ID分段：1xx 房间管理, 2xx 游戏指令, 3xx 服务端推送
const (
	MsgTypeHeartbeat  = 1
	MsgTypeError      = 2
	MsgTypeCreateRoom = 101
	MsgTypeJoinRoom   = 102
	MsgTypeLeaveRoom  = 103

	MsgTypeStartGame    = 201
	MsgTypeDrawCard     = 202
	MsgTypeSelectTarget = 203
	MsgTypeUseShield    = 204

	MsgTypeGameState    = 301
	MsgTypeCardDrawn    = 302
	MsgTypePlayerJoined = 303
	MsgTypePlayerLeft   = 304
)

// Inbound payloads. Every game command carries the room code; the player id
// is the one handed out on create/join.

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type JoinRoomRequest struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

type StartGameRequest struct {
	RoomID string `json:"room_id"`
}

type DrawCardRequest struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

type SelectTargetRequest struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	TargetID string `json:"target_id"`
}

type UseShieldRequest struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	UseIt    bool   `json:"use_it"`
}

// ErrorResponse carries a short user-facing failure description.
type ErrorResponse struct {
	Error string `json:"error"`
}
