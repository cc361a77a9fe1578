package cron

import (
	"os"
	"testing"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"k8s.io/client-go/kubernetes"

	"github.com/inboxpilot/warmstack/config"
	cron_config "github.com/inboxpilot/warmstack/internal/cron/config"
	"github.com/inboxpilot/warmstack/internal/logger"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{
			Logger: &logger.Config{
				LogLevel: "info",
			},
		},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	// Act
	cm := NewCronManager(cfg, log, k8s, nil, nil, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_StartCron(t *testing.T) {
	// Set environment variable for testing
	os.Setenv("CRON_SCHEDULE_REPUTATION_SCAN", "0 0 * * *")
	os.Setenv("CRON_SCHEDULE_SUBMIT_DUE_TESTS", "0 */5 * * * *")
	os.Setenv("CRON_SCHEDULE_POLL_RESULTS", "0 */2 * * * *")
	defer os.Unsetenv("CRON_SCHEDULE_REPUTATION_SCAN")
	defer os.Unsetenv("CRON_SCHEDULE_SUBMIT_DUE_TESTS")
	defer os.Unsetenv("CRON_SCHEDULE_POLL_RESULTS")

	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{
			Logger: &logger.Config{
				LogLevel: "info",
			},
		},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}
	cm := NewCronManager(cfg, log, k8s, nil, nil, nil)

	// Create a mock cron for testing
	mockCron := cronv3.New()

	// Register jobs directly
	var cronConfig cron_config.Config
	cronConfig.CronScheduleReputationScan = "0 0 * * *"
	cronConfig.CronScheduleSubmitDueTests = "*/5 * * * *"
	cronConfig.CronSchedulePollResults = "*/2 * * * *"

	// Act - register jobs manually
	id, err := mockCron.AddFunc(cronConfig.CronScheduleReputationScan, func() {})
	assert.NoError(t, err)
	cm.jobIDs["reputation_scan"] = id

	dueTestsId, err := mockCron.AddFunc(cronConfig.CronScheduleSubmitDueTests, func() {})
	assert.NoError(t, err)
	cm.jobIDs["submit_due_tests"] = dueTestsId

	pollResultsId, err := mockCron.AddFunc(cronConfig.CronSchedulePollResults, func() {})
	assert.NoError(t, err)
	cm.jobIDs["poll_results"] = pollResultsId

	cm.cron = mockCron

	// Assert
	assert.NotNil(t, cm.cron)
	assert.Equal(t, 3, len(cm.jobIDs))
}

func TestCronManager_Stop(t *testing.T) {
	// Set environment variable for testing
	os.Setenv("CRON_SCHEDULE_REPUTATION_SCAN", "0 0 * * *")
	defer os.Unsetenv("CRON_SCHEDULE_REPUTATION_SCAN")

	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{
			Logger: &logger.Config{
				LogLevel: "info",
			},
		},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}
	cm := NewCronManager(cfg, log, k8s, nil, nil, nil)

	// Create a mock cron for testing
	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	// Act
	cm.Stop()

	// Assert
	select {
	case <-cm.stopCh:
		// Channel is closed as expected
	default:
		t.Error("Stop channel was not closed")
	}
}
