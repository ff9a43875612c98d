package models

import (
	"time"
)

// RefreshToken is an opaque long-lived token exchanged for a new access
// token. It is single use: refreshing replaces it.
type RefreshToken struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UserID         uint      `gorm:"not null;index" json:"userId"`
	User           User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Token          string    `gorm:"not null;uniqueIndex" json:"token"`
	ExpirationDate time.Time `gorm:"not null" json:"expiry"`
}

func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpirationDate)
}
