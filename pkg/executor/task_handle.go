package executor

import (
	"os"
	"time"
)

// TaskState is an enum presenting current task state.
type TaskState int

const (
	// RUNNING task state means that task is still running.
	RUNNING TaskState = iota
	// TERMINATED task state means that task completed or stopped.
	TERMINATED
)

// TaskHandle represents a process which can be stopped or monitored.
type TaskHandle interface {
	// Stop terminates the task. It blocks until the process is gone.
	Stop() error
	// Status returns a state of the task.
	Status() TaskState
	// ExitCode returns an exitCode. If task is not terminated it returns error.
	ExitCode() (int, error)
	// StdoutFile returns a file handle to the task's stdout file,
	// rewound to the beginning.
	StdoutFile() (*os.File, error)
	// StderrFile returns a file handle to the task's stderr file,
	// rewound to the beginning.
	StderrFile() (*os.File, error)
	// Wait blocks until the task completes or the timeout elapses.
	// Zero timeout means wait indefinitely.
	// It returns true if task is terminated.
	Wait(timeout time.Duration) bool
	// Clean closes the task's stdout & stderr files.
	Clean() error
	// EraseOutput removes task's stdout & stderr files.
	EraseOutput() error
}
