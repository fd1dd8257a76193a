package license

import (
	"time"

	"gorm.io/gorm"
)

type Status string

var (
	// StatusInactive is the issue-time state; approval fields are null.
	StatusInactive Status = "inactive"
	// StatusActive requires approval metadata to be set.
	StatusActive Status = "active"
	// StatusExpired is derived at read time, never stored.
	StatusExpired Status = "expired"
)

// PermanentExpiry is the sentinel date a permanent license carries.
var PermanentExpiry = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// License is a cryptographically unique key sold to at most one business.
// CompanyID is the owning partner; nil means the vendor itself.
type License struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	Removed   gorm.DeletedAt `gorm:"column:removed;index" json:"-"`

	LicenseKey  string     `gorm:"column:license_key;uniqueIndex" json:"license_key"`
	Issued      time.Time  `gorm:"column:issued" json:"issued"`
	Expired     time.Time  `gorm:"column:expired" json:"expired"`
	Status      Status     `gorm:"column:status" json:"status"`
	CompanyID   *string    `gorm:"column:company_id;index" json:"company_id,omitempty"`
	IssuedBy    string     `gorm:"column:issued_by" json:"issued_by"`
	Trial       bool       `gorm:"column:trial" json:"trial"`
	OEM         *string    `gorm:"column:oem" json:"oem,omitempty"`
	ApproveUser *string    `gorm:"column:approve_user" json:"approve_user,omitempty"`
	Approved    *time.Time `gorm:"column:approved" json:"approved,omitempty"`
}

func (License) TableName() string {
	return "licenses"
}

// EffectiveStatus derives the read-time status: a license past its expiry
// date reads as expired regardless of the stored state. Expiry dates are
// calendar dates, so the license is good through the whole expiry day.
func (l *License) EffectiveStatus(now time.Time) Status {
	if !now.Before(l.Expired.AddDate(0, 0, 1)) {
		return StatusExpired
	}
	return l.Status
}
