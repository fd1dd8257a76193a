package partner

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Tier string

var (
	Platinum Tier = "PLATINUM"
	Gold     Tier = "GOLD"
	Silver   Tier = "SILVER"
	VAR      Tier = "VAR"
)

func (t Tier) Valid() bool {
	switch t {
	case Platinum, Gold, Silver, VAR:
		return true
	default:
		return false
	}
}

// Partner is a reseller company. It is the aggregation root for the credit
// ledger's balance computation.
type Partner struct {
	ID         string         `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at" json:"updated_at"`
	Removed    gorm.DeletedAt `gorm:"column:removed;index" json:"-"`
	Name       string         `gorm:"column:name" json:"name"`
	Slug       string         `gorm:"column:slug;uniqueIndex" json:"slug"`
	Tier       Tier           `gorm:"column:tier" json:"tier"`
	Categories datatypes.JSON `gorm:"column:categories" json:"categories,omitempty"`
	Email      string         `gorm:"column:email" json:"email"`
}

func (Partner) TableName() string { return "partners" }
