package dspsr

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"

	"github.com/smearedink/dspsr-utils/pkg/executor/mocks"
)

func tempOutputFile(t *testing.T, content string) *os.File {
	file, err := os.CreateTemp("", "dspsrbench_test_output_")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		file.Close()
		os.Remove(file.Name())
	})
	if _, err := file.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestRunner(t *testing.T) {
	Convey("While running a dspsr benchmark", t, func() {
		mockedExecutor := new(mocks.Executor)
		mockedTaskHandle := new(mocks.TaskHandle)

		Convey("A successful run should yield parsed timings and captured output", func() {
			stdout := tempOutputFile(t, `dspsr: prepared in 0.52 seconds
dsp::Operation::report Time Spent
Fold 3.740 22.8%
dsp::Archiver::unload in 0.31 sec
TOTAL WALL TIME ELAPSED: 16.42 seconds
`)
			stderr := tempOutputFile(t, "loaded 1 ephemeris\n")

			mockedExecutor.On("Execute", mock.AnythingOfType("string")).Return(mockedTaskHandle, nil).Once()
			mockedTaskHandle.On("Wait", mock.Anything).Return(true)
			mockedTaskHandle.On("StdoutFile").Return(stdout, nil)
			mockedTaskHandle.On("StderrFile").Return(stderr, nil)
			mockedTaskHandle.On("Clean").Return(nil)
			mockedTaskHandle.On("EraseOutput").Return(nil)

			runner := NewRunner(mockedExecutor, Config{DspsrPath: "dspsr"})
			result, err := runner.Run(DefaultInvocationParams())

			So(err, ShouldBeNil)
			So(result.Times, ShouldHaveLength, 3)
			So(result.Times["Fold"], ShouldEqual, 3.740)
			So(result.Times[StagePreparation], ShouldEqual, 0.52)
			So(result.Times[StageUnloading], ShouldEqual, 0.31)
			So(result.WallTime, ShouldEqual, 16.42)
			So(result.Stderr, ShouldEqual, "loaded 1 ephemeris\n")
			So(result.Command, ShouldStartWith, "dspsr ")

			mockedExecutor.AssertExpectations(t)
			mockedTaskHandle.AssertExpectations(t)
		})

		Convey("A spawn failure should be propagated, not swallowed", func() {
			mockedExecutor.On("Execute", mock.AnythingOfType("string")).Return(nil, os.ErrNotExist).Once()
			mockedExecutor.On("Name").Return("Mock Executor")

			runner := NewRunner(mockedExecutor, Config{DspsrPath: "dspsr"})
			_, err := runner.Run(DefaultInvocationParams())

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "could not spawn dspsr")
		})
	})
}
