// models/models.go
package models

import (
	"time"
)

// GameRecord 一局结束后的游戏记录
// Written once when a room reaches GAME_OVER; live game state is never
// persisted.
type GameRecord struct {
	RoomID    string         `json:"room_id"`
	GameType  string         `json:"game_type"`
	Players   []PlayerResult `json:"players"`
	LoserID   string         `json:"loser_id"` // drew the 4th ace
	Duration  int            `json:"duration"` // 游戏时长(秒)
	CreatedAt time.Time      `json:"created_at"`
}

// PlayerResult 玩家单局结果（用于游戏记录）
type PlayerResult struct {
	PlayerID     string `json:"player_id"`
	Name         string `json:"name"`
	SipsConsumed int    `json:"sips_consumed"`
	Shields      int    `json:"shields"` // shields still held at game over
	DrewFinalAce bool   `json:"drew_final_ace"`
}

// PlayerStats 按玩家名聚合的跨局统计
type PlayerStats struct {
	Name       string `json:"name"`
	TotalGames int64  `json:"total_games"`
	GamesLost  int64  `json:"games_lost"` // times this player drew the 4th ace
	TotalSips  int64  `json:"total_sips"`
}

// SipperStat 排行榜条目
type SipperStat struct {
	Name      string `json:"name"`
	TotalSips int64  `json:"total_sips"`
	Games     int64  `json:"games"`
}
