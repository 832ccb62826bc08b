package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is one entry of the global alert feed. Created by the
// watcher's dispatcher, rendered by the terminal UI, removed when the user
// clears the feed (which resets the watcher's dedup ledger).
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderID   uint           `gorm:"index" json:"order_id"`
	OrderNo   string         `gorm:"type:varchar(50)" json:"order_no"`
	Label     string         `gorm:"type:varchar(255)" json:"label"` // supplier / counterparty display name
	Amount    float64        `gorm:"type:decimal(18,2)" json:"amount"`
	AlertType string         `gorm:"type:varchar(50);index" json:"alert_type"`
	IsRead    bool           `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkAsRead marks a notification as read
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	n.IsRead = true
	return db.Model(n).Update("is_read", true).Error
}
