package business

import (
	"time"

	"gorm.io/gorm"
)

type Status string

var (
	StatusStandby      Status = "standby"
	StatusMeeting      Status = "meeting"
	StatusPoc          Status = "poc"
	StatusBmt          Status = "bmt"
	StatusOrdering     Status = "ordering"
	StatusProposal     Status = "proposal"
	StatusOrderSuccess Status = "ordersuccess"
	StatusCancel       Status = "cancel"
)

func (s Status) Valid() bool {
	switch s {
	case StatusStandby, StatusMeeting, StatusPoc, StatusBmt,
		StatusOrdering, StatusProposal, StatusOrderSuccess, StatusCancel:
		return true
	}
	return false
}

// Business is a sales engagement. LicenseID points at the currently linked
// live license or is null; CompanyID is denormalized from the manager's
// identity attributes so visibility scoping stays a plain column match.
type Business struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	Removed   gorm.DeletedAt `gorm:"column:removed;index" json:"-"`

	Code       string    `gorm:"column:code;uniqueIndex" json:"code"`
	Name       string    `gorm:"column:name" json:"name"`
	Status     Status    `gorm:"column:status" json:"status"`
	Issued     time.Time `gorm:"column:issued" json:"issued"`
	Expired    time.Time `gorm:"column:expired" json:"expired"`
	CoreCnt    int64     `gorm:"column:core_cnt" json:"core_cnt"`
	NodeCnt    int64     `gorm:"column:node_cnt" json:"node_cnt"`
	CustomerID string    `gorm:"column:customer_id;index" json:"customer_id"`
	ManagerID  string    `gorm:"column:manager_id" json:"manager_id"`
	ProductID  string    `gorm:"column:product_id" json:"product_id"`
	CompanyID  string    `gorm:"column:company_id;index" json:"company_id"`
	LicenseID  *string   `gorm:"column:license_id;index" json:"license_id,omitempty"`
	DepositUse bool      `gorm:"column:deposit_use" json:"deposit_use"`
	Details    string    `gorm:"column:details" json:"details"`
}

func (Business) TableName() string {
	return "businesses"
}
