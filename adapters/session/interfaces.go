package session

import "context"

// IStore 定義 session 資料的儲存後端
// 預設使用記憶體實作，部署時可以換成 redis 實作
type IStore interface {
	Load(ctx context.Context, name string) (map[string]string, error)
	Save(ctx context.Context, name string, data map[string]string) error
}

// ISession 定義單一使用者會話的操作
type ISession interface {
	Load() error
	Get(key string) string
	Set(key, value string)
	Delete(key string)
	Clear()
	Save() error
}
