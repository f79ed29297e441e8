// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/cardserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormGameRecord{},
		&models.GormPlayerStat{},
	)
}

// SaveGameRecord writes the record and folds each player's result into the
// per-name aggregates in one transaction.
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		row := models.GormGameRecord{
			RoomID:   record.RoomID,
			GameType: record.GameType,
			Players:  record.Players,
			LoserID:  record.LoserID,
			Duration: record.Duration,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		for _, pr := range record.Players {
			var stat models.GormPlayerStat
			err := tx.Where("name = ?", pr.Name).First(&stat).Error
			if err == gorm.ErrRecordNotFound {
				stat = models.GormPlayerStat{
					Name:       pr.Name,
					TotalGames: 1,
					TotalSips:  int64(pr.SipsConsumed),
				}
				if pr.DrewFinalAce {
					stat.GamesLost = 1
				}
				if err := tx.Create(&stat).Error; err != nil {
					return err
				}
				continue
			} else if err != nil {
				return err
			}

			lost := 0
			if pr.DrewFinalAce {
				lost = 1
			}
			updates := map[string]interface{}{
				"total_games": gorm.Expr("total_games + 1"),
				"games_lost":  gorm.Expr("games_lost + ?", lost),
				"total_sips":  gorm.Expr("total_sips + ?", pr.SipsConsumed),
			}
			if err := tx.Model(&stat).Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPlayerStats 获取玩家聚合统计
func (p *GormPostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	var stat models.GormPlayerStat
	if err := p.db.Where("name = ?", name).First(&stat).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &models.PlayerStats{
		Name:       stat.Name,
		TotalGames: stat.TotalGames,
		GamesLost:  stat.GamesLost,
		TotalSips:  stat.TotalSips,
	}, nil
}

// TopSippers 按累计饮酒量排序的排行榜
func (p *GormPostgreSQL) TopSippers(limit int) ([]models.SipperStat, error) {
	var stats []models.GormPlayerStat
	if err := p.db.Order("total_sips DESC").Limit(limit).Find(&stats).Error; err != nil {
		return nil, err
	}

	result := make([]models.SipperStat, 0, len(stats))
	for _, s := range stats {
		result = append(result, models.SipperStat{
			Name:      s.Name,
			TotalSips: s.TotalSips,
			Games:     s.TotalGames,
		})
	}
	return result, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
