// services/stats_service.go
package services

import (
	"errors"
	"time"

	"github.com/wfunc/cardserver/game"
	"github.com/wfunc/cardserver/models"
	"github.com/wfunc/cardserver/persistence"
	"github.com/wfunc/cardserver/room"
)

// ErrStatsDisabled is returned by reads when the service runs without a
// database.
var ErrStatsDisabled = errors.New("stats persistence is disabled")

// StatsService turns terminal game snapshots into persisted records and
// serves the aggregate queries. With a nil database it degrades to a no-op
// so rooms never depend on postgres being up.
type StatsService struct {
	db persistence.Database
}

func NewStatsService(db persistence.Database) *StatsService {
	return &StatsService{db: db}
}

// Enabled reports whether records are actually written anywhere.
func (s *StatsService) Enabled() bool {
	return s.db != nil
}

// RecordGameOver persists the outcome of a finished game. The current turn
// holder of a GAME_OVER snapshot is the player who drew the terminal ace.
func (s *StatsService) RecordGameOver(snap game.Snapshot, startedAt time.Time) error {
	if s.db == nil {
		return nil
	}
	if snap.Phase != game.PhaseGameOver {
		return errors.New("game is not over")
	}

	record := &models.GameRecord{
		RoomID:    snap.RoomID,
		GameType:  room.GameType,
		LoserID:   snap.CurrentTurnPlayerID,
		CreatedAt: time.Now(),
	}
	if !startedAt.IsZero() {
		record.Duration = int(time.Since(startedAt).Seconds())
	}
	for _, p := range snap.Players {
		record.Players = append(record.Players, models.PlayerResult{
			PlayerID:     p.ID,
			Name:         p.Name,
			SipsConsumed: p.SipsConsumed,
			Shields:      p.Shields,
			DrewFinalAce: p.ID == snap.CurrentTurnPlayerID,
		})
	}

	return s.db.SaveGameRecord(record)
}

// PlayerStats 查询单个玩家的聚合统计
func (s *StatsService) PlayerStats(name string) (*models.PlayerStats, error) {
	if s.db == nil {
		return nil, ErrStatsDisabled
	}
	return s.db.GetPlayerStats(name)
}

// TopSippers 查询排行榜
func (s *StatsService) TopSippers(limit int) ([]models.SipperStat, error) {
	if s.db == nil {
		return nil, ErrStatsDisabled
	}
	if limit <= 0 {
		limit = 10
	}
	return s.db.TopSippers(limit)
}
