package models

import "time"

// AlertStat holds the running count of alerts emitted per alert type.
// Incremented in Redis by the dispatcher and flushed to this table in
// batches by the background counter flusher.
type AlertStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AlertType string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"alert_type"`
	Emitted   int64     `gorm:"default:0" json:"emitted"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
