package s3

import (
	"context"
	"time"
)

// IObjectStore 定義房源圖片所使用的物件儲存能力
// 處理流程只依賴這個介面，測試時可以用假實作替換
type IObjectStore interface {
	// Upload 將資料上傳到指定的 key
	Upload(ctx context.Context, key, contentType string, data []byte) error
	// Remove 批次刪除指定的 keys
	Remove(ctx context.Context, keys ...string) error
	// PresignGet 產生一個在 ttl 內有效的簽名讀取網址
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
