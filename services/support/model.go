package support

import (
	"time"

	"gorm.io/gorm"
)

type Status string

var (
	StatusOpen     Status = "open"
	StatusAnswered Status = "answered"
	StatusClosed   Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAnswered, StatusClosed:
		return true
	}
	return false
}

// Ticket is a support request raised against a customer's install base.
// CompanyID mirrors the customer's owning company for visibility scoping.
type Ticket struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	Removed   gorm.DeletedAt `gorm:"column:removed;index" json:"-"`

	Code       string `gorm:"column:code;uniqueIndex" json:"code"`
	Subject    string `gorm:"column:subject" json:"subject"`
	Body       string `gorm:"column:body" json:"body"`
	Status     Status `gorm:"column:status" json:"status"`
	CustomerID string `gorm:"column:customer_id;index" json:"customer_id"`
	CompanyID  string `gorm:"column:company_id;index" json:"company_id"`
	AuthorID   string `gorm:"column:author_id" json:"author_id"`
}

func (Ticket) TableName() string {
	return "support_tickets"
}
