package executor

import (
	"bufio"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// TestLocal tests the execution of process on local machine.
func TestLocal(t *testing.T) {
	Convey("While using Local Shell", t, func() {
		l := NewLocal()

		Convey("When blocking infinitely sleep command is executed", func() {
			task, err := l.Execute("sleep inf")
			So(err, ShouldBeNil)

			defer task.EraseOutput()
			defer task.Clean()

			Convey("Task should be still running and exit code fetch should fail", func() {
				So(task.Status(), ShouldEqual, RUNNING)

				_, err := task.ExitCode()
				So(err, ShouldNotBeNil)

				So(task.Stop(), ShouldBeNil)
			})

			Convey("When we wait for task termination with a short timeout", func() {
				isTaskTerminated := task.Wait(10 * time.Millisecond)

				Convey("The timeout should exceed and the task should not be terminated", func() {
					So(isTaskTerminated, ShouldBeFalse)
					So(task.Status(), ShouldEqual, RUNNING)
				})

				So(task.Stop(), ShouldBeNil)
			})

			Convey("When we stop the task", func() {
				err := task.Stop()

				Convey("There should be no error and the task should be terminated with SIGTERM exit code", func() {
					So(err, ShouldBeNil)
					So(task.Status(), ShouldEqual, TERMINATED)

					exitCode, err := task.ExitCode()
					So(err, ShouldBeNil)
					// Either the shell maps the signal to 143 or the process
					// group kill reports the negated signal number.
					So(exitCode, ShouldBeIn, []int{143, -15})
				})
			})
		})

		Convey("When command `echo output` is executed", func() {
			task, err := l.Execute("echo output")
			So(err, ShouldBeNil)

			defer task.EraseOutput()
			defer task.Clean()

			Convey("When we wait for the task to terminate", func() {
				terminated := task.Wait(0)
				So(terminated, ShouldBeTrue)
				So(task.Status(), ShouldEqual, TERMINATED)

				Convey("The exit status should be 0 and output should be fetched", func() {
					exitCode, err := task.ExitCode()
					So(err, ShouldBeNil)
					So(exitCode, ShouldEqual, 0)

					file, err := task.StdoutFile()
					So(err, ShouldBeNil)

					scanner := bufio.NewScanner(file)
					So(scanner.Scan(), ShouldBeTrue)
					So(scanner.Text(), ShouldEqual, "output")
				})
			})
		})

		Convey("When command which does not exist is executed", func() {
			task, err := l.Execute("/does/not/exist")
			So(err, ShouldBeNil)

			defer task.EraseOutput()
			defer task.Clean()

			Convey("The exit status should not be 0", func() {
				task.Wait(0)

				exitCode, err := task.ExitCode()
				So(err, ShouldBeNil)
				So(exitCode, ShouldNotEqual, 0)
			})
		})
	})
}
