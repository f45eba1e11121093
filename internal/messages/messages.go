package messages

import (
	"time"
)

// PollIntervalMsg carries a newly observed poll interval from the service.
type PollIntervalMsg struct {
	Seconds uint64
}

// TaskSubmittedMsg is returned by the command that hands work to the runner.
type TaskSubmittedMsg struct {
	TaskID string
	Label  string
}

// TaskStartedMsg is emitted when a task goroutine begins running.
type TaskStartedMsg struct {
	TaskID string
	Label  string
}

// TaskFinishedMsg signals that the task completed successfully
type TaskFinishedMsg struct {
	TaskID  string
	Label   string
	Elapsed time.Duration
}

// TaskFailedMsg signals that the task returned an error or was canceled
type TaskFailedMsg struct {
	TaskID   string
	Label    string
	Err      error
	Canceled bool
}

// ServiceErrorMsg reports that the poll interval stream could not be opened
type ServiceErrorMsg struct {
	Err error
}
