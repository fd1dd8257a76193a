package product

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	Removed   gorm.DeletedAt `gorm:"column:removed;index" json:"-"`

	Name     string `gorm:"column:name" json:"name"`
	Category string `gorm:"column:category" json:"category"`
	Version  string `gorm:"column:version" json:"version"`
}

func (Product) TableName() string {
	return "products"
}
