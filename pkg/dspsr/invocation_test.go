package dspsr

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func argValue(args []string, flag string) (string, bool) {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func countFlag(args []string, flag string) int {
	count := 0
	for _, arg := range args {
		if arg == flag {
			count++
		}
	}
	return count
}

func TestBuildCommand(t *testing.T) {
	Convey("While building a dspsr invocation", t, func() {
		Convey("With empty parameters every default should be applied", func() {
			spec := BuildCommand("dspsr", InvocationParams{})

			value, ok := argValue(spec.Args, "-F")
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "1024:D")

			value, ok = argValue(spec.Args, "-T")
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "10")

			value, ok = argValue(spec.Args, "-cuda")
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "0")

			value, ok = argValue(spec.Args, "-minram")
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "1")

			So(spec.Args, ShouldContain, "SOURCE=1937+21")
			So(spec.Args, ShouldContain, "FREQ=600.0")
			So(spec.Args, ShouldContain, "NCHAN=16")
			So(spec.Args, ShouldContain, "BW=400.0")

			Convey("Optional flags should be omitted entirely", func() {
				So(countFlag(spec.Args, "-D"), ShouldEqual, 0)
				So(countFlag(spec.Args, "-x"), ShouldEqual, 0)
				So(countFlag(spec.Args, "-t"), ShouldEqual, 0)
			})
		})

		Convey("The sample time should equal nchan divided by bandwidth", func() {
			params := InvocationParams{InputChannels: 16, BandwidthMHz: 400.0}
			spec := BuildCommand("dspsr", params)

			So(spec.Args, ShouldContain, "TSAMP=0.040000")
		})

		Convey("The rendered command should start at the binary, not the wrapper", func() {
			spec := BuildCommand("dspsr", InvocationParams{})

			So(strings.HasPrefix(spec.Rendered(), "dspsr "), ShouldBeTrue)
			So(spec.Rendered(), ShouldNotContainSubstring, "/usr/bin/time")
			So(spec.Args[0], ShouldEqual, "/usr/bin/time")
		})

		Convey("With only a FFT multiplier the -x flag should carry the minX form", func() {
			minX := 4
			spec := BuildCommand("dspsr", InvocationParams{MinX: &minX})

			value, ok := argValue(spec.Args, "-x")
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "minX4")
		})

		Convey("With both FFT length and multiplier only the explicit length should be emitted", func() {
			fftlen := 8192
			minX := 4
			spec := BuildCommand("dspsr", InvocationParams{FFTLength: &fftlen, MinX: &minX})

			So(countFlag(spec.Args, "-x"), ShouldEqual, 1)
			value, _ := argValue(spec.Args, "-x")
			So(value, ShouldEqual, "8192")
		})

		Convey("With a dispersion measure override the -D flag should be emitted", func() {
			dm := 71.04
			spec := BuildCommand("dspsr", InvocationParams{DM: &dm})

			value, ok := argValue(spec.Args, "-D")
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, "71.04")
		})

		Convey("The shell command should quote the wrapper format string", func() {
			spec := BuildCommand("dspsr", InvocationParams{})

			So(spec.Command(), ShouldContainSubstring, "'TOTAL WALL TIME ELAPSED: %e seconds'")
		})
	})
}

func TestInvocationParamsSet(t *testing.T) {
	Convey("While applying swept values to invocation parameters", t, func() {
		params := DefaultInvocationParams()

		Convey("Setting a known numeric parameter should update the right field", func() {
			So(params.Set("F", 2048), ShouldBeNil)
			So(params.OutputChannels, ShouldEqual, 2048)

			So(params.Set("bw", 800), ShouldBeNil)
			So(params.BandwidthMHz, ShouldEqual, 800.0)
		})

		Convey("Setting a dispersion measure should mark it as explicitly given", func() {
			So(params.DM, ShouldBeNil)
			So(params.Set("dm", 5), ShouldBeNil)
			So(params.DM, ShouldNotBeNil)
			So(*params.DM, ShouldEqual, 5.0)
		})

		Convey("Setting an unknown parameter should yield a ConfigurationError", func() {
			err := params.Set("warp_factor", 9)
			So(err, ShouldNotBeNil)
			So(err, ShouldHaveSameTypeAs, ConfigurationError{})
		})
	})
}
