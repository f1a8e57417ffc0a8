package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 代表透過 magic link 登入的使用者
// 只保留信箱作為身份識別，第一次完成登入時自動建立
type User struct {
	gorm.Model

	ID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email string    `gorm:"type:varchar(255);uniqueIndex:idx_users_email,where:deleted_at IS NULL;not null;<-:create"`
}

// BeforeCreate 在建立時補上 UUID，讓 sqlite 測試環境也能產生主鍵
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
