package storage

import (
	"fmt"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// TradeRow is the relational form of a Record
type TradeRow struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"index:idx_run_trade,unique"`
	TradeID    string `gorm:"index:idx_run_trade,unique"`
	Pair       string
	Direction  string
	EntryTime  time.Time
	ExitTime   time.Time `gorm:"index"`
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	StopLoss   float64
	TakeProfit float64
	PnL        float64
	PnLPct     float64
	Fees       float64
	NetPnL     float64
	ExitReason string
	CreatedAt  time.Time
}

func (TradeRow) TableName() string { return "trades" }

func newTradeRow(runID string, t core.Trade) TradeRow {
	return TradeRow{
		RunID:      runID,
		TradeID:    t.ID,
		Pair:       t.Pair,
		Direction:  string(t.Direction),
		EntryTime:  t.EntryTime,
		ExitTime:   t.ExitTime,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		Size:       t.Size,
		StopLoss:   t.StopLoss,
		TakeProfit: t.TakeProfit,
		PnL:        t.PnL,
		PnLPct:     t.PnLPct,
		Fees:       t.Fees,
		NetPnL:     t.NetPnL,
		ExitReason: string(t.ExitReason),
	}
}

func (r TradeRow) record() Record {
	return Record{
		RunID:   r.RunID,
		SavedAt: r.CreatedAt,
		Trade: core.Trade{
			ID:         r.TradeID,
			Pair:       r.Pair,
			Direction:  core.Direction(r.Direction),
			EntryTime:  r.EntryTime,
			ExitTime:   r.ExitTime,
			EntryPrice: r.EntryPrice,
			ExitPrice:  r.ExitPrice,
			Size:       r.Size,
			StopLoss:   r.StopLoss,
			TakeProfit: r.TakeProfit,
			PnL:        r.PnL,
			PnLPct:     r.PnLPct,
			Fees:       r.Fees,
			NetPnL:     r.NetPnL,
			ExitReason: core.ExitReason(r.ExitReason),
		},
	}
}

// SQLStorage implements TradeStorage using a SQL database via GORM
type SQLStorage struct {
	db *gorm.DB
}

// FromSQL creates a new SQL storage instance
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err = db.AutoMigrate(&TradeRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{
		db: db,
	}, nil
}

// SaveTrades inserts the trades of a run inside one transaction
func (s *SQLStorage) SaveTrades(runID string, trades []core.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	rows := lo.Map(trades, func(t core.Trade, _ int) TradeRow {
		return newTradeRow(runID, t)
	})

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&TradeRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear run %s: %w", runID, err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to create trades: %w", err)
		}
		return nil
	})
}

// Trades retrieves trades ordered by exit time
func (s *SQLStorage) Trades(filters ...TradeFilter) ([]Record, error) {
	return s.TradesWithQuery(func(db *gorm.DB) *gorm.DB { return db }, filters...)
}

// TradesWithQuery narrows the query with GORM's builder before applying filters
func (s *SQLStorage) TradesWithQuery(query func(*gorm.DB) *gorm.DB, filters ...TradeFilter) ([]Record, error) {
	var rows []TradeRow

	result := query(s.db).Order("exit_time").Find(&rows)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to fetch trades: %w", result.Error)
	}

	records := lo.FilterMap(rows, func(row TradeRow, _ int) (Record, bool) {
		record := row.record()
		return record, match(record, filters)
	})

	return records, nil
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
