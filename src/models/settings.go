package models

import (
	"ridepool/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SETTING_PLATFORM_FEE  = "platform_fee"
	SETTING_GROUP_BILLING = "billing"
)

type Setting struct {
	ID           uuid.UUID      `gorm:"primarykey;type:uuid" json:"id"`
	SettingKey   string         `gorm:"uniqueIndex:name" json:"setting_key"`
	SettingValue types.JSONBAny `json:"setting_value"`
	Group        string         `gorm:"uniqueIndex:name" json:"group,omitempty"`

	types.Timestamps
}

func (s *Setting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
