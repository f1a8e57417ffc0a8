package rowstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pinhome/models"
)

// ErrListingNotFound 表示指定的房源不存在
var ErrListingNotFound = errors.New("listing not found")

// Store 實作 IListingStore 介面
type Store struct {
	db *gorm.DB
}

// NewStore 建立新的 Store 實例
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SelectAll 取得所有房源，新的排在前面
func (s *Store) SelectAll(ctx context.Context) ([]models.Property, error) {
	const op = "Store.SelectAll"
	var properties []models.Property
	result := s.db.WithContext(ctx).Order("created_at DESC").Find(&properties)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to select properties, err=%w", op, result.Error)
	}
	return properties, nil
}

// FindByID 取得指定的房源
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	const op = "Store.FindByID"
	var property models.Property
	result := s.db.WithContext(ctx).Where("id = ?", id).First(&property)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find property, err=%w", op, result.Error)
	}
	return &property, nil
}

// Insert 新增一筆房源
func (s *Store) Insert(ctx context.Context, property *models.Property) error {
	const op = "Store.Insert"
	result := s.db.WithContext(ctx).Create(property)
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to insert property, err=%w", op, result.Error)
	}
	return nil
}

// Update 覆寫指定房源的可編輯欄位
func (s *Store) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) error {
	const op = "Store.Update"
	result := s.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"price":     fields.Price,
			"image_key": fields.ImageKey,
			"lat":       fields.Lat,
			"lng":       fields.Lng,
		})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to update property, err=%w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

// DeleteByID 刪除指定的房源
// 只刪資料列，圖片物件留在物件儲存裡
func (s *Store) DeleteByID(ctx context.Context, id uuid.UUID) error {
	const op = "Store.DeleteByID"
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Property{})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to delete property, err=%w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}
