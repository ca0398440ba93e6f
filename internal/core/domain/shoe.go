package domain

import (
	"math/rand/v2"
	"sync"
)

// Shoe 發牌器介面。
// 實作必須可被多個 goroutine 同時呼叫。
type Shoe interface {
	Draw() Card
}

// RandomShoe 無限牌靴：每次從 13 種點數中均勻抽取 (抽出後放回)
type RandomShoe struct{}

// NewRandomShoe 建立無限牌靴
func NewRandomShoe() *RandomShoe {
	return &RandomShoe{}
}

// Draw 抽一張牌
func (s *RandomShoe) Draw() Card {
	return MustCard(Ranks[rand.IntN(len(Ranks))])
}

// SequenceShoe 依序發出預先排好的牌，發完後從頭循環。
// 用於重播牌局與測試。
type SequenceShoe struct {
	mu    sync.Mutex
	cards []Card
	next  int
}

// NewSequenceShoe 以指定點數順序建立牌靴
func NewSequenceShoe(ranks ...Rank) *SequenceShoe {
	cards := make([]Card, len(ranks))
	for i, r := range ranks {
		cards[i] = MustCard(r)
	}
	return &SequenceShoe{cards: cards}
}

// Draw 抽出下一張牌
func (s *SequenceShoe) Draw() Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cards) == 0 {
		return MustCard(RankTwo)
	}
	c := s.cards[s.next%len(s.cards)]
	s.next++
	return c
}

// Drawn 已發出的張數
func (s *SequenceShoe) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
