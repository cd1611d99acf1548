package models

import "time"

// SocialAccount is a connected social profile owned by a user. The "primary"
// account is the most recently created one.
type SocialAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Username  string    `gorm:"type:varchar(150);not null" json:"username" validate:"required,min=1,max=150"`
	Provider  string    `gorm:"type:varchar(32);not null;default:'instagram'" json:"provider"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
