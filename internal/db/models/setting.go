// Package models contains database model definitions.
package models

// Setting is one named configuration blob of the config store.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"size:100;unique;not null"`
	Value []byte
}

// TableName specifies the database table name for the Setting model.
func (Setting) TableName() string {
	return "settings"
}

// All returns every model the daemon migrates, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&LogEvent{},
		&Setting{},
	}
}
