// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID   string         `gorm:"index;not null"`
	GameType string         `gorm:"not null"`
	Players  []PlayerResult `gorm:"serializer:json;type:jsonb;not null"`
	LoserID  string         `gorm:"index"`
	Duration int            `gorm:"default:0"` // 游戏时长(秒)
}

// GormPlayerStat 玩家聚合统计模型
// Keyed by display name: the service hands out fresh player ids per
// connection, names are the only stable handle.
type GormPlayerStat struct {
	gorm.Model
	Name       string `gorm:"uniqueIndex;not null"`
	TotalGames int64  `gorm:"default:0"`
	GamesLost  int64  `gorm:"default:0"`
	TotalSips  int64  `gorm:"default:0"`
}
