// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/cardserver/models"
)

// Database 数据库接口
// Write-only game telemetry and its aggregate reads. Live room state never
// goes through here.
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	GetPlayerStats(name string) (*models.PlayerStats, error)
	TopSippers(limit int) ([]models.SipperStat, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
