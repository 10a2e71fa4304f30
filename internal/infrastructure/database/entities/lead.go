package entities

import "time"

// Lead represents the persisted lead identity. The primary key is the
// client-supplied opaque token.
type Lead struct {
	ID        string  `gorm:"type:varchar(64);primaryKey"`
	Name      string  `gorm:"type:varchar(255);not null"`
	Email     string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone     *string `gorm:"type:varchar(32)"`
	LastSeen  time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Lead) TableName() string {
	return "leads"
}
