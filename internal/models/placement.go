package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/inboxpilot/warmstack/internal/enum"
)

type PlacementTest struct {
	ID             string          `gorm:"primary_key;type:uuid;default:gen_random_uuid()" json:"id"`
	Tenant         string          `gorm:"column:tenant;type:varchar(255);NOT NULL;index" json:"tenant"`
	Domain         string          `gorm:"column:domain;type:varchar(255);NOT NULL;index" json:"domain"`
	Provider       string          `gorm:"column:provider;type:varchar(50);NOT NULL" json:"provider"`
	ProviderTestID string          `gorm:"column:provider_test_id;type:varchar(255)" json:"providerTestId"`
	Status         enum.TestStatus `gorm:"column:status;type:varchar(50);NOT NULL;DEFAULT:'created'" json:"status"`
	FilterPhrase   string          `gorm:"column:filter_phrase;type:varchar(255)" json:"filterPhrase"`
	TestAddresses  pq.StringArray  `gorm:"column:test_addresses;type:text[]" json:"testAddresses"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
	CompletedAt    *time.Time      `gorm:"column:completed_at;type:timestamp" json:"completedAt"`
}

func (PlacementTest) TableName() string {
	return "placement_tests"
}

type TestEmailOutcome struct {
	ID             uint64              `gorm:"primary_key;autoIncrement" json:"id"`
	TestID         string              `gorm:"column:test_id;type:uuid;NOT NULL;index" json:"testId"`
	Address        string              `gorm:"column:address;type:varchar(255);NOT NULL" json:"address"`
	DeliveryStatus enum.DeliveryStatus `gorm:"column:delivery_status;type:varchar(50);NOT NULL" json:"deliveryStatus"`
	Folder         string              `gorm:"column:folder;type:varchar(100)" json:"folder"`
}

func (TestEmailOutcome) TableName() string {
	return "test_email_outcomes"
}
