package entities

import "time"

// User represents a persisted intranet account.
type User struct {
	ID           string  `gorm:"type:varchar(40);primaryKey"`
	Name         string  `gorm:"type:varchar(255);not null"`
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	Role         string  `gorm:"type:varchar(32);not null;default:sales_agent"`
	PasswordHash string  `gorm:"type:varchar(255);not null"`
	Banned       bool    `gorm:"not null;default:false"`
	BanReason    *string `gorm:"type:text"`
	BanExpires   *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
