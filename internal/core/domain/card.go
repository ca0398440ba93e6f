package domain

// Rank 代表撲克牌的點數符號 (A, 2-10, J, Q, K)
type Rank string

const (
	RankAce   Rank = "A"
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
)

// Ranks 依序列出所有點數，發牌器從中抽取
var Ranks = []Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
}

var rankValues = map[Rank]int{
	RankAce: 11, RankTwo: 2, RankThree: 3, RankFour: 4, RankFive: 5,
	RankSix: 6, RankSeven: 7, RankEight: 8, RankNine: 9, RankTen: 10,
	RankJack: 10, RankQueen: 10, RankKing: 10,
}

// Card 代表一張已抽出的牌。
// 抽出後不可變更，Value 為 21 點基礎點數 (A=11, 人頭牌=10)。
type Card struct {
	Rank  Rank `json:"rank"`
	Value int  `json:"value"`
}

// NewCard 依點數建立一張牌
//
// 參數:
//
//	rank: Rank - 點數符號
//
// 回傳值:
//
//	Card: 帶有基礎點數的牌
//	bool: 點數符號是否合法
func NewCard(rank Rank) (Card, bool) {
	v, ok := rankValues[rank]
	if !ok {
		return Card{}, false
	}
	return Card{Rank: rank, Value: v}, true
}

// MustCard 與 NewCard 相同，但遇到非法點數直接 panic (測試與常數用)
func MustCard(rank Rank) Card {
	c, ok := NewCard(rank)
	if !ok {
		panic("domain: unknown rank " + string(rank))
	}
	return c
}

// IsAce 是否為 A
func (c Card) IsAce() bool {
	return c.Rank == RankAce
}

func (c Card) String() string {
	return string(c.Rank)
}
