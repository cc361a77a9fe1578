package enum

type TestStatus string

const (
	TestCreated    TestStatus = "created"
	TestInProgress TestStatus = "in_progress"
	TestCompleted  TestStatus = "completed"
	TestFailed     TestStatus = "failed"
	TestCancelled  TestStatus = "cancelled"
)

func (t TestStatus) String() string {
	return string(t)
}

// IsTerminal reports whether the test will never change status again
func (t TestStatus) IsTerminal() bool {
	return t == TestCompleted || t == TestFailed || t == TestCancelled
}

type DeliveryStatus string

const (
	DeliveryDelivered   DeliveryStatus = "delivered"
	DeliverySpam        DeliveryStatus = "spam"
	DeliveryNotReceived DeliveryStatus = "not_received"
)

func (t DeliveryStatus) String() string {
	return string(t)
}

type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleRunning   ScheduleStatus = "running"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

func (t ScheduleStatus) String() string {
	return string(t)
}

const (
	FolderInbox = "inbox"
	FolderSpam  = "spam"
)
