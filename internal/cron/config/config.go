package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Submit placement tests for due domains, every 5 minutes
	CronScheduleSubmitDueTests string `env:"CRON_SCHEDULE_SUBMIT_DUE_TESTS" envDefault:"0 */5 * * * *"`
	// Poll pending placement tests for results, every 2 minutes
	CronSchedulePollResults string `env:"CRON_SCHEDULE_POLL_RESULTS" envDefault:"0 */2 * * * *"`
	// Domain reputation scan, daily at midnight
	CronScheduleReputationScan string `env:"CRON_SCHEDULE_REPUTATION_SCAN" envDefault:"0 0 0 * * *"`
}
