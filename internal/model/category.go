package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Subcategory is one node of a category's two-level hierarchy.
type Subcategory struct {
	Name             string   `json:"name"`
	SubSubcategories []string `json:"sub_subcategories"`
}

// Category classifies units. Units reference it by id.
type Category struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"uniqueIndex;not null"`
	ImageKey      *string
	Subcategories datatypes.JSONType[[]Subcategory]
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
