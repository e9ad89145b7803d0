package models

import "time"

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

type Message struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"index;not null"`
	Sender         string `gorm:"size:20;not null"` // "user" or "assistant"
	Content        string `gorm:"type:text;not null"`
	CreatedAt      time.Time

	Versions []MessageVersion `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}
