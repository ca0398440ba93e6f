package domain

import "time"

// Status 牌局狀態
type Status string

const (
	// StatusAwaitingAction 發牌後等待玩家 Hit / Stand
	StatusAwaitingAction Status = "awaiting_action"
	// StatusPlayerBusted 玩家爆牌 (終局)
	StatusPlayerBusted Status = "player_busted"
	// StatusResolving 玩家已停牌，結算尚未寫入錢包
	StatusResolving Status = "resolving"
	// StatusResolved 已結算 (終局)
	StatusResolved Status = "resolved"
	// StatusAbandoned 閒置過久被回收，賭注沒收 (終局)
	StatusAbandoned Status = "abandoned"
)

// Terminal 是否為終局狀態
func (s Status) Terminal() bool {
	switch s {
	case StatusPlayerBusted, StatusResolved, StatusAbandoned:
		return true
	}
	return false
}

// Outcome 牌局結果
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeWin       Outcome = "win"
	OutcomePush      Outcome = "push"
	OutcomeLose      Outcome = "lose"
	OutcomeBust      Outcome = "bust"
	OutcomeAbandoned Outcome = "abandoned"
)

// GameView 牌局快照，交給傳輸層渲染。
// 內含的切片皆為副本。
type GameView struct {
	SessionID   string  `json:"session_id"`
	PlayerID    string  `json:"player_id"`
	Bet         int64   `json:"bet"`
	PlayerCards Hand    `json:"player_cards"`
	DealerCards Hand    `json:"dealer_cards"`
	PlayerTotal int     `json:"player_total"`
	DealerTotal int     `json:"dealer_total"`
	Status      Status  `json:"status"`
	Outcome     Outcome `json:"outcome,omitempty"`
	Payout      int64   `json:"payout"`
	Balance     int64   `json:"balance"`
}

// RoundFinished 牌局進入終局時發布的事件
type RoundFinished struct {
	SessionID   string    `json:"session_id"`
	PlayerID    string    `json:"player_id"`
	Bet         int64     `json:"bet"`
	Outcome     Outcome   `json:"outcome"`
	Payout      int64     `json:"payout"`
	PlayerTotal int       `json:"player_total"`
	DealerTotal int       `json:"dealer_total"`
	FinishedAt  time.Time `json:"finished_at"`
}
