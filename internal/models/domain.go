package models

import (
	"time"

	"github.com/inboxpilot/warmstack/internal/enum"
)

type Domain struct {
	ID              uint64            `gorm:"primary_key;autoIncrement" json:"id"`
	Tenant          string            `gorm:"column:tenant;type:varchar(255);NOT NULL;uniqueIndex:idx_tenant_domain" json:"tenant"`
	Domain          string            `gorm:"column:domain;type:varchar(255);NOT NULL;uniqueIndex:idx_tenant_domain" json:"domain"`
	Status          enum.DomainStatus `gorm:"column:status;type:varchar(50);NOT NULL;DEFAULT:'warming'" json:"status"`
	DailySendVolume int               `gorm:"column:daily_send_volume;type:integer;NOT NULL;DEFAULT:0" json:"dailySendVolume"`
	MaxSendVolume   int               `gorm:"column:max_send_volume;type:integer;NOT NULL;DEFAULT:0" json:"maxSendVolume"`
	LastTestAt      *time.Time        `gorm:"column:last_test_at;type:timestamp" json:"lastTestAt"`
	NextTestAt      *time.Time        `gorm:"column:next_test_at;type:timestamp" json:"nextTestAt"`
	CreatedAt       time.Time         `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (Domain) TableName() string {
	return "domains"
}
