package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
	mysqlpkg "github.com/JoeShih716/go-blackjack-server/pkg/mysql"
)

// ensure interface compliance
var _ ports.BalanceStore = (*Store)(nil)

// WalletRecord 錢包資料表的一列
type WalletRecord struct {
	PlayerID  string `gorm:"primaryKey;size:64"`
	Balance   int64  `gorm:"not null"`
	UpdatedAt time.Time
}

func (WalletRecord) TableName() string {
	return "wallet_records"
}

// Store 實作 ports.BalanceStore
type Store struct {
	client *mysqlpkg.Client
}

// NewStore 建立 MySQL 錢包儲存
func NewStore(client *mysqlpkg.Client) *Store {
	return &Store{client: client}
}

// Migrate 確保資料表存在
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.client.DB().WithContext(ctx).AutoMigrate(&WalletRecord{}); err != nil {
		return fmt.Errorf("migrate wallet_records: %w", err)
	}
	return nil
}

// Get 根據 PlayerID 取得餘額
func (s *Store) Get(ctx context.Context, playerID string) (int64, bool, error) {
	var rec WalletRecord
	err := s.client.DB().WithContext(ctx).Where("player_id = ?", playerID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return rec.Balance, true, nil
}

// Put 寫入餘額 (INSERT ... ON DUPLICATE KEY UPDATE)
func (s *Store) Put(ctx context.Context, playerID string, balance int64) error {
	rec := WalletRecord{PlayerID: playerID, Balance: balance, UpdatedAt: time.Now().UTC()}
	return s.client.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&rec).Error
}
