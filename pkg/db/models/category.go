package models

import "gorm.io/datatypes"

// DefaultCategoryID is the seeded "general" category.
const DefaultCategoryID = 1

// Category is read-only lookup data seeded by migrations.
type Category struct {
	ID          int            `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Description string         `gorm:"type:text;not null" json:"description"`
	CreatedOn   datatypes.Date `gorm:"type:date;not null" json:"created_on"`
}

func (Category) TableName() string { return "category" }
