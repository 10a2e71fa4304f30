package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation represents the persisted conversation row. AgentID stays
// NULL while the conversation is queued; the claim sets it exactly once.
type Conversation struct {
	ID         string  `gorm:"type:varchar(40);primaryKey"`
	LeadID     string  `gorm:"type:varchar(64);not null;index"`
	AgentID    *string `gorm:"type:varchar(40);index"`
	Status     string  `gorm:"type:varchar(16);not null;default:QUEUED;index"`
	AssignedAt *time.Time
	AISummary  *string        `gorm:"type:text"`
	AITags     datatypes.JSON `gorm:"type:jsonb"`
	Priority   *string        `gorm:"type:varchar(8)"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`

	Lead     *Lead     `gorm:"foreignKey:LeadID;references:ID"`
	Messages []Message `gorm:"foreignKey:ConversationID;references:ID"`
}

func (Conversation) TableName() string {
	return "conversations"
}
