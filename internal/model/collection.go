package model

import (
	"time"

	"gorm.io/datatypes"
)

// CollectionRecord is the durable row backing one named registry collection.
type CollectionRecord struct {
	Name      string         `gorm:"primaryKey;size:64"`
	Payload   datatypes.JSON `gorm:"not null"`
	Version   int64          `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName pins the registry table name.
func (CollectionRecord) TableName() string {
	return "registry_collections"
}
