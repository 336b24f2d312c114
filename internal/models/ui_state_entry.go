package models

import (
	"time"

	"gorm.io/datatypes"
)

// UIStateEntry is one record of the client-local UI state. Entries are grouped by
// namespace (folder expand flags, cluster credentials) and addressed by key.
type UIStateEntry struct {
	Namespace string         `gorm:"primaryKey;size:64"`
	Key       string         `gorm:"column:entry_key;primaryKey;size:256"`
	Value     datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

// TableName pins the table name independent of gorm's pluralisation rules.
func (UIStateEntry) TableName() string {
	return "ui_state_entries"
}

// StateMeta stores per-installation values such as the credential key salt.
type StateMeta struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     []byte `gorm:"type:blob"`
	CreatedAt time.Time
}

// TableName pins the table name.
func (StateMeta) TableName() string {
	return "state_meta"
}
