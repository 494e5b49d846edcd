package models

import "time"

// Setting is a single persisted key/value pair (tokens, api base, bridge key).
type Setting struct {
	Key       string `gorm:"primaryKey"` // Setting key name
	Value     string // Setting value
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Well-known setting keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyAPIBase      = "api_base"
	KeyUserEmail    = "user_email"
	KeyBridgeKey    = "bridge_key"
)
