package ports

import "errors"

// 定義 Ports 層級通用的錯誤
var (
	ErrLockTimeout = errors.New("lock acquisition timed out")
)
