package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
)

// ErrInjected 測試用的模擬寫入失敗
var ErrInjected = errors.New("memory store: injected failure")

var _ ports.BalanceStore = (*Store)(nil)

// Store 以 map 保存餘額，用於開發與測試。
// 可透過 FailPuts / FailGets 模擬儲存層故障。
type Store struct {
	mu       sync.RWMutex
	balances map[string]int64
	failPut  bool
	failGet  bool
	puts     int
}

func NewStore() *Store {
	return &Store{
		balances: make(map[string]int64),
	}
}

func (s *Store) Get(ctx context.Context, playerID string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failGet {
		return 0, false, ErrInjected
	}
	balance, ok := s.balances[playerID]
	return balance, ok, nil
}

func (s *Store) Put(ctx context.Context, playerID string, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return ErrInjected
	}
	s.balances[playerID] = balance
	s.puts++
	return nil
}

// Seed 直接寫入餘額 (不經過故障模擬)
func (s *Store) Seed(playerID string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[playerID] = balance
}

// FailPuts 開關寫入失敗
func (s *Store) FailPuts(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPut = fail
}

// FailGets 開關讀取失敗
func (s *Store) FailGets(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = fail
}

// Puts 成功寫入的次數
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
