package executor

import (
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// killTimeout is how long Stop waits after SIGTERM before escalating to SIGKILL.
const killTimeout = 5 * time.Second

// Local provisioning is responsible for providing the execution environment
// on local machine via exec.Command.
// It runs command as current user.
type Local struct {
}

// NewLocal returns a Local instance.
func NewLocal() Local {
	return Local{}
}

// Name returns user-friendly name of executor.
func (l Local) Name() string {
	return "Local Executor"
}

// Execute runs the command given as input.
// Returned TaskHandle is able to stop & monitor the provisioned process.
func (l Local) Execute(command string) (TaskHandle, error) {
	log.Debug("Starting ", command)

	stdoutFile, err := os.CreateTemp("", "dspsrbench_local_stdout_")
	if err != nil {
		return nil, errors.Wrap(err, "could not create stdout file")
	}
	stderrFile, err := os.CreateTemp("", "dspsrbench_local_stderr_")
	if err != nil {
		return nil, errors.Wrap(err, "could not create stderr file")
	}

	cmd := exec.Command("sh", "-c", command)
	// It is important to set additional Process Group ID for parent process and
	// his children to have ability to kill all the children processes.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile

	err = cmd.Start()
	if err != nil {
		return nil, errors.Wrapf(err, "could not start %q", command)
	}

	log.Debug("Started with pid ", cmd.Process.Pid)

	t := &localTaskHandle{
		cmdHandler: cmd,
		command:    command,
		stdoutFile: stdoutFile,
		stderrFile: stderrFile,
		// Closed when the process terminates.
		waitEndChannel: make(chan struct{}),
	}

	// Wait for local task in goroutine.
	go func() {
		defer close(t.waitEndChannel)

		// NOTE: Wait() returns an error on non-zero exit. We grab the process
		// state in any case (success or failure) from ProcessState, so the
		// error object matters less in the status handling.
		cmd.Wait()

		log.Debug(
			"Ended ", command,
			" with output in file: ", stdoutFile.Name(),
			" with err output in file: ", stderrFile.Name(),
			" with status code: ", t.exitCode())
	}()

	return t, nil
}

// localTaskHandle implements TaskHandle interface.
type localTaskHandle struct {
	cmdHandler     *exec.Cmd
	command        string
	stdoutFile     *os.File
	stderrFile     *os.File
	waitEndChannel chan struct{}
}

// isTerminated checks if waitEndChannel is closed. If it is closed,
// it means that wait ended and task is in terminated state.
func (t *localTaskHandle) isTerminated() bool {
	select {
	case <-t.waitEndChannel:
		return true
	default:
		return false
	}
}

// exitCode fetches the exit code of a terminated process. A process stopped
// by a signal reports the negated signal number, like the shell does.
func (t *localTaskHandle) exitCode() int {
	waitStatus := t.cmdHandler.ProcessState.Sys().(syscall.WaitStatus)
	if waitStatus.Exited() {
		return waitStatus.ExitStatus()
	}
	return -int(waitStatus.Signal())
}

// Stop terminates the local task.
func (t *localTaskHandle) Stop() error {
	if t.isTerminated() {
		return nil
	}

	// We signal the entire process group.
	// The kill syscall interprets a negated PID N as the process group N belongs to.
	log.Debug("Sending SIGTERM to PID ", -t.cmdHandler.Process.Pid)
	err := syscall.Kill(-t.cmdHandler.Process.Pid, syscall.SIGTERM)
	if err != nil {
		return errors.Wrapf(err, "could not send SIGTERM to task %q", t.command)
	}

	if t.Wait(killTimeout) {
		return nil
	}

	log.Debug("Sending SIGKILL to PID ", -t.cmdHandler.Process.Pid)
	err = syscall.Kill(-t.cmdHandler.Process.Pid, syscall.SIGKILL)
	if err != nil {
		return errors.Wrapf(err, "could not send SIGKILL to task %q", t.command)
	}

	t.Wait(0)
	return nil
}

// Status returns a state of the task.
func (t *localTaskHandle) Status() TaskState {
	if !t.isTerminated() {
		return RUNNING
	}

	return TERMINATED
}

// ExitCode returns a exitCode. If task is not terminated it returns error.
func (t *localTaskHandle) ExitCode() (int, error) {
	if !t.isTerminated() {
		return 0, errors.Errorf("task %q is not terminated", t.command)
	}

	return t.exitCode(), nil
}

// Wait waits for the command to finish with the given timeout time.
// It returns true if task is terminated.
func (t *localTaskHandle) Wait(timeout time.Duration) bool {
	if t.isTerminated() {
		return true
	}

	if timeout == 0 {
		<-t.waitEndChannel
		return true
	}

	select {
	case <-t.waitEndChannel:
		return true
	case <-time.After(timeout):
		return false
	}
}

// StdoutFile returns a file handle for the task's stdout file.
func (t *localTaskHandle) StdoutFile() (*os.File, error) {
	if _, err := t.stdoutFile.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "could not rewind stdout file")
	}
	return t.stdoutFile, nil
}

// StderrFile returns a file handle for the task's stderr file.
func (t *localTaskHandle) StderrFile() (*os.File, error) {
	if _, err := t.stderrFile.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "could not rewind stderr file")
	}
	return t.stderrFile, nil
}

// Clean closes files to which stdout and stderr of executed command was written.
func (t *localTaskHandle) Clean() error {
	if err := t.stdoutFile.Close(); err != nil {
		return errors.Wrapf(err, "could not close %q", t.stdoutFile.Name())
	}
	if err := t.stderrFile.Close(); err != nil {
		return errors.Wrapf(err, "could not close %q", t.stderrFile.Name())
	}
	return nil
}

// EraseOutput removes files to which stdout and stderr of executed command was written.
func (t *localTaskHandle) EraseOutput() error {
	if err := os.Remove(t.stdoutFile.Name()); err != nil {
		return errors.Wrapf(err, "could not remove %q", t.stdoutFile.Name())
	}
	if err := os.Remove(t.stderrFile.Name()); err != nil {
		return errors.Wrapf(err, "could not remove %q", t.stderrFile.Name())
	}
	return nil
}
