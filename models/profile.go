package models

import (
	"time"
)

const (
	MaxBioLength      = 500
	MaxLocationLength = 100
)

// Profile is the social identity of a user. Avatar holds an object key in
// the avatar store, never a URL.
type Profile struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Bio       string    `gorm:"size:500" json:"bio"`
	Avatar    string    `json:"avatar"`
	Location  string    `gorm:"size:100" json:"location"`
	Website   string    `json:"website"`
}

// ProfileUpdate carries a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	Bio      *string
	Location *string
	Website  *string
	Avatar   *string
}

func (u ProfileUpdate) Apply(p *Profile) {
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	if u.Website != nil {
		p.Website = *u.Website
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
}

func (u ProfileUpdate) Columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Bio != nil {
		updates["bio"] = *u.Bio
	}
	if u.Location != nil {
		updates["location"] = *u.Location
	}
	if u.Website != nil {
		updates["website"] = *u.Website
	}
	if u.Avatar != nil {
		updates["avatar"] = *u.Avatar
	}
	return updates
}
