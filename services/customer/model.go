package customer

import (
	"time"

	"gorm.io/gorm"
)

// Customer is an end customer a business is sold to. CompanyID is the
// owning partner; empty means the vendor manages the customer directly.
type Customer struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	Removed   gorm.DeletedAt `gorm:"column:removed;index" json:"-"`

	Name      string `gorm:"column:name" json:"name"`
	CompanyID string `gorm:"column:company_id;index" json:"company_id"`
	ManagerID string `gorm:"column:manager_id" json:"manager_id"`
	Email     string `gorm:"column:email" json:"email"`
	Phone     string `gorm:"column:phone" json:"phone"`
}

func (Customer) TableName() string {
	return "customers"
}
