package session

import (
	"sync"
	"time"

	"github.com/JoeShih716/go-blackjack-server/pkg/wss"
)

// Session 代表一個活躍的連線會話。
// 它封裝了底層的 WebSocket 連線，並維護該連線綁定的玩家。
type Session struct {
	ID        string     // Session 唯一 ID (對應 WebSocket Conn ID)
	CreatedAt int64      // 建立時間 (Unix Timestamp)
	conn      wss.Client // 底層 WebSocket 連線介面

	mu       sync.RWMutex
	playerID string
}

// NewSession 建立一個新的會話實例
//
// 參數:
//
//	conn: wss.Client - 底層 WebSocket 連線物件
//
// 回傳值:
//
//	*Session: 初始化後的會話物件
func NewSession(conn wss.Client) *Session {
	return &Session{
		ID:        conn.ID(),
		CreatedAt: time.Now().Unix(),
		conn:      conn,
	}
}

// Bind 綁定玩家 ID
func (s *Session) Bind(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerID = playerID
}

// PlayerID 綁定的玩家，未登入時為空字串
func (s *Session) PlayerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerID
}

// Send 發送訊息給此會話的客戶端
//
// 參數:
//
//	msg: string - 訊息內容
//
// 回傳值:
//
//	error: 若發送失敗則回傳錯誤
func (s *Session) Send(msg string) error {
	return s.conn.SendMessage(msg)
}

// Kick 強制中斷此會話
func (s *Session) Kick(reason string) error {
	return s.conn.Kick(reason)
}
