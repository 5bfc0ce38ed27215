package models

import "time"

// OTPCode is the one-time login code issued for a phone number. The unique
// phone index plus upsert-on-issue keeps at most one live code per phone:
// re-issuing replaces the previous code atomically. Rows are never deleted;
// expiry is enforced at verification time.
type OTPCode struct {
	BaseModel
	Phone     string    `gorm:"uniqueIndex" json:"phone"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Consumed  bool      `json:"consumed"`
	Attempts  int       `json:"attempts"`
}
