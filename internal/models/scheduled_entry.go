package models

import (
	"time"

	"github.com/inboxpilot/warmstack/internal/enum"
)

// ScheduledEntry lives in the in-memory schedule registry, not in postgres.
// It is rebuilt from domain cadence on restart.
type ScheduledEntry struct {
	ID           string              `json:"id"`
	Tenant       string              `json:"tenant"`
	Domain       string              `json:"domain"`
	Provider     string              `json:"provider"`
	ScheduledFor time.Time           `json:"scheduledFor"`
	Status       enum.ScheduleStatus `json:"status"`
}
