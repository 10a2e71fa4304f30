package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Message represents a persisted chat message. Rows are append-only: no
// update or delete path exists for them.
type Message struct {
	ID             string  `gorm:"type:varchar(40);primaryKey"`
	ConversationID string  `gorm:"type:varchar(40);not null;index:idx_messages_conversation_created,priority:1"`
	Content        string  `gorm:"type:text;not null"`
	SenderType     string  `gorm:"type:varchar(8);not null"`
	IsRead         bool    `gorm:"not null;default:false"`
	ReadAt         *time.Time
	AttachmentURL  *string           `gorm:"type:varchar(512)"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"autoCreateTime;index:idx_messages_conversation_created,priority:2"`
}

func (Message) TableName() string {
	return "messages"
}
