package dspsr

import (
	"bytes"
	"path"
	"runtime"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func fixturePath(name string) string {
	_, filename, _, _ := runtime.Caller(0)
	return path.Join(path.Dir(filename), name)
}

func TestStdoutParser(t *testing.T) {
	Convey("Opening non-existing file should fail", t, func() {
		results, err := File("/non/existing/file")

		So(results.Stages, ShouldBeEmpty)
		So(err, ShouldNotBeNil)
	})

	Convey("Parsing a complete dspsr run should recover every reported timing", t, func() {
		results, err := File(fixturePath("dspsr.stdout"))

		So(err, ShouldBeNil)
		So(results.Stages, ShouldHaveLength, 8)
		So(results.Stages["Dummy"], ShouldEqual, 1.953)
		So(results.Stages["DummyUnpacker"], ShouldEqual, 2.100)
		So(results.Stages["CUDA::Transfer"], ShouldEqual, 0.871)
		So(results.Stages["Filterbank"], ShouldEqual, 6.213)
		So(results.Stages["Detection"], ShouldEqual, 1.002)
		So(results.Stages["Fold"], ShouldEqual, 3.740)
		So(results.Stages[StagePreparation], ShouldEqual, 0.52)
		So(results.Stages[StageUnloading], ShouldEqual, 0.31)
		So(results.WallTime, ShouldEqual, 16.42)

		Convey("Progress reports should be dropped from the preserved output", func() {
			So(results.Lines, ShouldHaveLength, 16)
			for _, line := range results.Lines {
				So(line, ShouldNotContainSubstring, "Finished 0 s")
			}
		})
	})

	Convey("Parsing output without timing section markers should degrade, not fail", t, func() {
		out := []byte(`dspsr: loading ephemeris for source 1937+21
dspsr: prepared in 0.52 seconds
Dummy 1.953 11.9%
Fold 3.740 22.8%
dsp::Archiver::unload in 0.31 sec
TOTAL WALL TIME ELAPSED: 16.42 seconds
`)
		results, err := Parse(bytes.NewReader(out))

		So(err, ShouldBeNil)
		// Stage lines outside a marked section are not trusted.
		So(results.Stages, ShouldHaveLength, 2)
		So(results.Stages[StagePreparation], ShouldEqual, 0.52)
		So(results.Stages[StageUnloading], ShouldEqual, 0.31)
		So(results.WallTime, ShouldEqual, 16.42)
	})

	Convey("Parsing output without the wrapper line should report the wall time sentinel", t, func() {
		out := []byte("dspsr: prepared in 0.52 seconds\n")
		results, err := Parse(bytes.NewReader(out))

		So(err, ShouldBeNil)
		So(results.WallTime, ShouldEqual, NoWallTime)
	})

	Convey("Carriage-return overwritten progress should be truncated to its last segment", t, func() {
		out := []byte("Loading... 12%\rLoading... 57%\rLoading... 100%\ndspsr: prepared in 0.52 seconds\n")
		results, err := Parse(bytes.NewReader(out))

		So(err, ShouldBeNil)
		So(results.Lines[0], ShouldEqual, "Loading... 100%")
		So(results.Stages[StagePreparation], ShouldEqual, 0.52)
	})

	Convey("Malformed stage lines inside the timing section should be skipped silently", t, func() {
		out := []byte(`dsp::Operation::report Time Spent
Filterbank notanumber 5%
Fold 3.740 22.8%
`)
		results, err := Parse(bytes.NewReader(out))

		So(err, ShouldBeNil)
		So(results.Stages, ShouldHaveLength, 1)
		So(results.Stages["Fold"], ShouldEqual, 3.740)
	})
}
