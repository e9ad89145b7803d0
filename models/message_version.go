package models

import "time"

// MessageVersion is a prior content snapshot of an assistant message,
// written immediately before a regeneration overwrites the content. Seq is
// monotonic per message so version order stays deterministic even when two
// snapshots land on the same clock tick.
type MessageVersion struct {
	ID        uint   `gorm:"primaryKey"`
	MessageID uint   `gorm:"index;not null"`
	Seq       uint   `gorm:"not null"`
	Content   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}
