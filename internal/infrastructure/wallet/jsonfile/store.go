// Package jsonfile 以單一 JSON 檔保存錢包餘額。
// 檔案格式為 {"<player id>": <balance>}，縮排輸出方便人工檢視。
// 寫入採 tmp 檔 + rename 的原子替換，寫入中斷時原檔不會損壞。
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
)

var _ ports.BalanceStore = (*Store)(nil)

// Store 在記憶體保留檔案內容的快取，只有寫檔成功後才更新快取。
type Store struct {
	path string

	mu       sync.RWMutex
	balances map[string]int64
}

// Open 載入 path 的錢包檔；檔案不存在時視為空錢包，第一次寫入時建立。
func Open(path string) (*Store, error) {
	balances, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, balances: balances}, nil
}

func load(path string) (map[string]int64, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]int64), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet file %s: %w", path, err)
	}
	balances := make(map[string]int64)
	if len(data) == 0 {
		return balances, nil
	}
	if err := json.Unmarshal(data, &balances); err != nil {
		return nil, fmt.Errorf("parse wallet file %s: %w", path, err)
	}
	return balances, nil
}

func (s *Store) Get(_ context.Context, playerID string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, ok := s.balances[playerID]
	return balance, ok, nil
}

// Put 寫入整份檔案。整個檔案只有一份，所以寫檔本身在 s.mu 下序列化。
func (s *Store) Put(ctx context.Context, playerID string, balance int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.balances)
	next[playerID] = balance
	if err := save(s.path, next); err != nil {
		return err
	}
	s.balances = next
	return nil
}

// Path 錢包檔路徑
func (s *Store) Path() string {
	return s.path
}

func save(path string, balances map[string]int64) error {
	data, err := json.MarshalIndent(balances, "", "    ")
	if err != nil {
		return fmt.Errorf("encode wallets: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp wallet file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // rename 成功後為 no-op

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp wallet file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp wallet file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp wallet file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace wallet file: %w", err)
	}
	return nil
}
