package models

import (
	"time"

	"github.com/lib/pq"
)

// TestSummary is an immutable snapshot derived once a placement test completes
type TestSummary struct {
	ID              string         `gorm:"primary_key;type:uuid;default:gen_random_uuid()" json:"id"`
	TestID          string         `gorm:"column:test_id;type:uuid;NOT NULL;uniqueIndex" json:"testId"`
	Tenant          string         `gorm:"column:tenant;type:varchar(255);NOT NULL" json:"tenant"`
	Domain          string         `gorm:"column:domain;type:varchar(255);NOT NULL;index" json:"domain"`
	Provider        string         `gorm:"column:provider;type:varchar(50);NOT NULL" json:"provider"`
	Score           int            `gorm:"column:score;type:integer;NOT NULL" json:"score"`
	InboxPct        float64        `gorm:"column:inbox_pct;type:numeric" json:"inboxPct"`
	SpamPct         float64        `gorm:"column:spam_pct;type:numeric" json:"spamPct"`
	OtherPct        float64        `gorm:"column:other_pct;type:numeric" json:"otherPct"`
	Recommendations pq.StringArray `gorm:"column:recommendations;type:text[]" json:"recommendations"`
	CreatedAt       time.Time      `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
}

func (TestSummary) TableName() string {
	return "test_summaries"
}
