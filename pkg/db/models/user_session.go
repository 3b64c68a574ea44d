package models

import "time"

// UserSession is the durable copy of a signed-in user's identity, keyed by
// the SHA-256 hex digest of the auth token.
type UserSession struct {
	TokenDigest string     `gorm:"column:token_digest;primaryKey;size:64"`
	UserID      string     `gorm:"column:user_id;not null;index"`
	Email       string     `gorm:"column:email;not null"`
	Name        string     `gorm:"column:name;not null"`
	SessionID   string     `gorm:"column:session_id;not null"`
	LastUpdated time.Time  `gorm:"column:last_updated;not null"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}
