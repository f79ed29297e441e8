// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/cardserver/models"
)

// PostgreSQL 数据库实现（database/sql 直连，不经过 ORM）
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            game_type VARCHAR(100) NOT NULL,
            players JSONB NOT NULL,
            loser_id VARCHAR(255),
            duration INT DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS player_stats (
            id SERIAL PRIMARY KEY,
            name VARCHAR(255) UNIQUE NOT NULL,
            total_games BIGINT DEFAULT 0,
            games_lost BIGINT DEFAULT 0,
            total_sips BIGINT DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_created_at ON game_records(created_at);
        CREATE INDEX IF NOT EXISTS idx_player_stats_total_sips ON player_stats(total_sips);
    `)

	return err
}

// SaveGameRecord 保存游戏记录并累加玩家统计
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO game_records (room_id, game_type, players, loser_id, duration)
        VALUES ($1, $2, $3, $4, $5)
    `, record.RoomID, record.GameType, playersJSON, record.LoserID, record.Duration)
	if err != nil {
		return err
	}

	for _, pr := range record.Players {
		lost := 0
		if pr.DrewFinalAce {
			lost = 1
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO player_stats (name, total_games, games_lost, total_sips)
            VALUES ($1, 1, $2, $3)
            ON CONFLICT (name)
            DO UPDATE SET
                total_games = player_stats.total_games + 1,
                games_lost = player_stats.games_lost + $2,
                total_sips = player_stats.total_sips + $3,
                updated_at = CURRENT_TIMESTAMP
        `, pr.Name, lost, pr.SipsConsumed)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetPlayerStats 获取玩家聚合统计
func (p *PostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := &models.PlayerStats{Name: name}
	query := `SELECT total_games, games_lost, total_sips FROM player_stats WHERE name = $1`
	err := p.db.QueryRowContext(ctx, query, name).Scan(&stats.TotalGames, &stats.GamesLost, &stats.TotalSips)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return stats, nil
}

// TopSippers 排行榜查询
func (p *PostgreSQL) TopSippers(limit int) ([]models.SipperStat, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT name, total_sips, total_games
        FROM player_stats
        ORDER BY total_sips DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.SipperStat
	for rows.Next() {
		var s models.SipperStat
		if err := rows.Scan(&s.Name, &s.TotalSips, &s.Games); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
