package wss

import "time"

// Config WebSocket 伺服器參數
type Config struct {
	AllowedOrigins  []string      // 允許的 Origin，"*" 表示全部允許；空值只允許無 Origin 的請求
	ReadBufferSize  int           // 讀取緩衝大小
	WriteBufferSize int           // 寫入緩衝大小
	WriteWait       time.Duration // 單次寫入的逾時
	PongWait        time.Duration // 等待 Pong 的逾時
	PingPeriod      time.Duration // 送出 Ping 的週期，需小於 PongWait
	MaxMessageSize  int64         // 單一訊息上限 (bytes)
	SendBufferSize  int           // 每條連線的待送訊息佇列長度
}

func (c *Config) withDefaults() {
	if c.WriteWait == 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait == 0 {
		c.PongWait = 60 * time.Second
	}
	// 如果 PingPeriod 沒有被設定，則根據 PongWait 計算一個合理的值
	if c.PingPeriod == 0 {
		c.PingPeriod = (c.PongWait * 9) / 10
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 4096
	}
	if c.SendBufferSize == 0 {
		c.SendBufferSize = 256
	}
}
