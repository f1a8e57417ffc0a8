package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property 代表地圖上的一筆房源
// 價格依照遠端資料表的慣例以文字儲存，圖片只記錄物件儲存的 key，
// 簽名網址一律在投影時重新計算，不會落地
type Property struct {
	gorm.Model

	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID  uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	Price    string    `gorm:"type:text;not null"`
	ImageKey string    `gorm:"type:text;not null"`
	Lat      float64   `gorm:"type:double precision;not null"`
	Lng      float64   `gorm:"type:double precision;not null"`

	// 外鍵關聯
	Owner *User `gorm:"foreignKey:OwnerID"`
}

// BeforeCreate 在建立時補上 UUID，讓 sqlite 測試環境也能產生主鍵
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
