package wss

// Client 代表一條已升級的 WebSocket 連線，提供給業務邏輯使用。
//
//go:generate mockgen -destination=../../test/mocks/pkg/wss/mock_client.go -package=mock_wss . Client
type Client interface {
	// ID 連線唯一 ID
	ID() string
	// RemoteAddr 客戶端位址
	RemoteAddr() string
	// SendMessage 非同步送出文字訊息
	SendMessage(msg string) error
	// Kick 送出關閉原因後中斷連線
	Kick(reason string) error
	// SetTag 在連線上保存業務資料 (如 player_id)
	SetTag(key string, value any)
	// GetTag 讀取 SetTag 保存的資料
	GetTag(key string) (any, bool)
}

// Subscriber 連線事件的處理者。
// 同一條連線的 OnConnect 一定早於它的 OnMessage，OnMessage 依收到順序逐一呼叫。
type Subscriber interface {
	OnConnect(conn Client)
	OnMessage(conn Client, msg []byte)
	OnDisconnect(conn Client)
}
