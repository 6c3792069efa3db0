package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/raykavin/bosfvg/pkg/logger"
	"github.com/tidwall/buntdb"
)

const exitIndex = "exit_index"

// BuntStorage implements TradeStorage using BuntDB
type BuntStorage struct {
	db  *buntdb.DB
	log logger.Logger
}

// FromMemory creates an in-memory storage
func FromMemory(log logger.Logger) (*BuntStorage, error) {
	return NewBuntStorage(":memory:", log)
}

// FromFile creates a file-based storage
func FromFile(file string, log logger.Logger) (*BuntStorage, error) {
	return NewBuntStorage(file, log)
}

// NewBuntStorage creates a new BuntDB storage instance
func NewBuntStorage(sourceFile string, log logger.Logger) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex(exitIndex, "trade:*", buntdb.IndexJSON("exit_time"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStorage{
		db:  db,
		log: log,
	}, nil
}

// SaveTrades stores the trades of a run. A trade saved twice under the same
// run is overwritten.
func (b *BuntStorage) SaveTrades(runID string, trades []core.Trade) error {
	now := time.Now().UTC()
	return b.db.Update(func(tx *buntdb.Tx) error {
		for _, trade := range trades {
			content, err := json.Marshal(Record{RunID: runID, SavedAt: now, Trade: trade})
			if err != nil {
				return fmt.Errorf("failed to marshal trade: %w", err)
			}

			key := fmt.Sprintf("trade:%s:%s", runID, trade.ID)
			if _, _, err = tx.Set(key, string(content), nil); err != nil {
				return fmt.Errorf("failed to store trade %s: %w", trade.ID, err)
			}
		}
		return nil
	})
}

// Trades retrieves trades ordered by exit time
func (b *BuntStorage) Trades(filters ...TradeFilter) ([]Record, error) {
	records := make([]Record, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		err := tx.Ascend(exitIndex, func(key, value string) bool {
			var record Record
			if err := json.Unmarshal([]byte(value), &record); err != nil {
				b.log.Warnf("failed to unmarshal trade %s: %v", key, err)
				return true
			}

			if match(record, filters) {
				records = append(records, record)
			}
			return true
		})
		if err != nil {
			return fmt.Errorf("failed to iterate over trades: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Close closes the database
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
