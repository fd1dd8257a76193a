package credit

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry is one ledger row. Exactly one of Deposit or Credit is set: Deposit
// rows record a purchase, Credit rows record consumption attributed to a
// business. Balances are always recomputed from live rows, never stored.
type Entry struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	Removed   gorm.DeletedAt `gorm:"column:removed;index" json:"-"`

	PartnerID  string         `gorm:"column:partner_id;index" json:"partner_id"`
	BusinessID *string        `gorm:"column:business_id;index" json:"business_id,omitempty"`
	Deposit    *int64         `gorm:"column:deposit" json:"deposit,omitempty"`
	Credit     *int64         `gorm:"column:credit" json:"credit,omitempty"`
	Note       string         `gorm:"column:note" json:"note"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
}

func (Entry) TableName() string {
	return "credit_entries"
}

// Balance is the computed projection over a partner's live entries.
type Balance struct {
	Deposit   int64 `json:"deposit"`
	Credit    int64 `json:"credit"`
	Available int64 `json:"available"`
}
