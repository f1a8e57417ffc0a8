package rowstore

import (
	"context"

	"github.com/google/uuid"

	"pinhome/models"
)

// UpdateFields 是更新房源時可以改動的欄位集合
// 擁有者與圖片以外的欄位都是覆寫語意
type UpdateFields struct {
	Price    string
	ImageKey string
	Lat      float64
	Lng      float64
}

// IListingStore 定義房源資料列的存取操作
// 背後是遠端代管的資料表服務，這裡用 gorm 當作它的 client
type IListingStore interface {
	SelectAll(ctx context.Context) ([]models.Property, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	Insert(ctx context.Context, property *models.Property) error
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}
