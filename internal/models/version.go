package models

import "fmt"

// SchemaVersion records the layout version of the store.
type SchemaVersion struct {
	Component string `gorm:"type:varchar(20);primaryKey"`
	Major     int
	Minor     int
	Subminor  int
}

// TableName specifies the table name for SchemaVersion
func (SchemaVersion) TableName() string {
	return "version"
}

func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Subminor)
}

// Matches reports whether both versions carry the same numbers.
func (v SchemaVersion) Matches(other SchemaVersion) bool {
	return v.Major == other.Major && v.Minor == other.Minor && v.Subminor == other.Subminor
}
