package dspsr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smearedink/dspsr-utils/pkg/conf"
)

const (
	defaultDspsrPath = "dspsr"
	// dspsrPathArg represents key for CLI option. It is also base for env name.
	dspsrPathArg = "dspsr_path"
)

// PathFlag returns CLI argument for the dspsr binary path.
var PathFlag = conf.NewStringFlag(dspsrPathArg, "Path to the dspsr binary", defaultDspsrPath)

// timeWrapperFormat is handed to /usr/bin/time so the total wall time of a
// run can be recovered from the output with a fixed marker.
const timeWrapperFormat = "TOTAL WALL TIME ELAPSED: %e seconds"

// ConfigurationError signals an invalid or contradictory set of
// invocation parameters.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invocation parameter %q: %s", e.Param, e.Reason)
}

// InvocationParams holds every recognized dspsr benchmark option.
// Zero valued fields fall back to their defaults at build time; the four
// pointer fields are genuinely optional and omitted when nil.
type InvocationParams struct {
	// OutputChannels is the number of output channels (-F, with coherent
	// dedispersion suffix).
	OutputChannels int `json:"F"`
	// Duration is the length in seconds of the pretend input file (-T).
	Duration int `json:"T"`
	// CUDADevices is a comma-separated list of CUDA devices (-cuda).
	CUDADevices string `json:"cuda"`
	// MinRAMMB is the minimum RAM usage in MB (-minram).
	MinRAMMB int `json:"minram"`
	// DM overrides the dispersion measure of the folded source (-D).
	// When nil, dspsr uses the catalogue DM of Source.
	DM *float64 `json:"D,omitempty"`
	// FFTLength sets the desired FFT length (-x). Takes priority over MinX.
	FFTLength *int `json:"fftlen,omitempty"`
	// MinX sets the FFT length as a multiple of the minimum length (-x minXn).
	MinX *int `json:"minX,omitempty"`
	// Threads is the number of CPU processor threads (-t).
	Threads *int `json:"t,omitempty"`
	// Source is the pulsar to fold (SOURCE header field).
	Source string `json:"source"`
	// FreqMHz is the centre frequency in MHz (FREQ header field).
	FreqMHz float64 `json:"freq"`
	// InputChannels is the number of input frequency channels (NCHAN).
	InputChannels int `json:"nchan"`
	// BandwidthMHz is the observing bandwidth in MHz (BW).
	BandwidthMHz float64 `json:"bw"`
}

// DefaultInvocationParams returns the parameter set used when the caller
// specifies nothing at all.
func DefaultInvocationParams() InvocationParams {
	return InvocationParams{
		OutputChannels: 1024,
		Duration:       10,
		CUDADevices:    "0",
		MinRAMMB:       1,
		Source:         "1937+21",
		FreqMHz:        600.0,
		InputChannels:  16,
		BandwidthMHz:   400.0,
	}
}

// withDefaults fills any zero valued non-optional field with its default.
func (p InvocationParams) withDefaults() InvocationParams {
	defaults := DefaultInvocationParams()
	if p.OutputChannels == 0 {
		p.OutputChannels = defaults.OutputChannels
	}
	if p.Duration == 0 {
		p.Duration = defaults.Duration
	}
	if p.CUDADevices == "" {
		p.CUDADevices = defaults.CUDADevices
	}
	if p.MinRAMMB == 0 {
		p.MinRAMMB = defaults.MinRAMMB
	}
	if p.Source == "" {
		p.Source = defaults.Source
	}
	if p.FreqMHz == 0 {
		p.FreqMHz = defaults.FreqMHz
	}
	if p.InputChannels == 0 {
		p.InputChannels = defaults.InputChannels
	}
	if p.BandwidthMHz == 0 {
		p.BandwidthMHz = defaults.BandwidthMHz
	}
	return p
}

// Set applies a swept numeric value under the canonical short name of the
// parameter. Unknown names yield a ConfigurationError.
func (p *InvocationParams) Set(name string, value float64) error {
	switch name {
	case "F":
		p.OutputChannels = int(value)
	case "T":
		p.Duration = int(value)
	case "cuda":
		p.CUDADevices = strconv.Itoa(int(value))
	case "minram":
		p.MinRAMMB = int(value)
	case "D", "dm":
		v := value
		p.DM = &v
	case "fftlen":
		v := int(value)
		p.FFTLength = &v
	case "minX":
		v := int(value)
		p.MinX = &v
	case "t":
		v := int(value)
		p.Threads = &v
	case "freq":
		p.FreqMHz = value
	case "nchan":
		p.InputChannels = int(value)
	case "bw":
		p.BandwidthMHz = value
	default:
		return ConfigurationError{Param: name, Reason: "not a recognized dspsr benchmark parameter"}
	}
	return nil
}

// CommandSpec is a fully resolved dspsr invocation, timing wrapper included.
type CommandSpec struct {
	// Args is the full argv, starting with the timing wrapper.
	Args []string

	binaryIndex int
}

// Rendered returns the invocation for display and logs. It starts at the
// dspsr binary; the timing wrapper is excluded.
func (c CommandSpec) Rendered() string {
	return strings.Join(c.Args[c.binaryIndex:], " ")
}

// Command returns the invocation as a single shell command line,
// timing wrapper included.
func (c CommandSpec) Command() string {
	quoted := make([]string, 0, len(c.Args))
	for _, arg := range c.Args {
		quoted = append(quoted, shellQuote(arg))
	}
	return strings.Join(quoted, " ")
}

func shellQuote(arg string) string {
	if !strings.ContainsAny(arg, " \t'\"\\$%") {
		return arg
	}
	return "'" + strings.Replace(arg, "'", `'\''`, -1) + "'"
}

// BuildCommand deterministically builds the dspsr invocation for the given
// parameters. It is a pure function; defaults are applied for any field left
// at its zero value. The synthetic header block instructs dspsr to fabricate
// its input instead of reading real telescope data.
func BuildCommand(dspsrPath string, params InvocationParams) CommandSpec {
	p := params.withDefaults()

	args := []string{"/usr/bin/time", "-f", timeWrapperFormat}
	binaryIndex := len(args)
	args = append(args, dspsrPath)

	args = append(args, "-F", fmt.Sprintf("%d:D", p.OutputChannels))
	args = append(args, "-r")
	args = append(args, "-cuda", p.CUDADevices)
	args = append(args, "-T", strconv.Itoa(p.Duration))
	args = append(args, "-minram", strconv.Itoa(p.MinRAMMB))
	if p.DM != nil {
		args = append(args, "-D", strconv.FormatFloat(*p.DM, 'f', -1, 64))
	}
	// Explicit FFT length wins over the minimum-length multiplier; with
	// neither given the flag is omitted and dspsr chooses on its own.
	if p.FFTLength != nil {
		args = append(args, "-x", strconv.Itoa(*p.FFTLength))
	} else if p.MinX != nil {
		args = append(args, "-x", fmt.Sprintf("minX%d", *p.MinX))
	}
	if p.Threads != nil {
		args = append(args, "-t", strconv.Itoa(*p.Threads))
	}

	args = append(args,
		"-header", "DUMMY",
		"HDR_VERSION=1.0",
		"INSTRUMENT=Dummy",
		"TELESCOPE=1",
		fmt.Sprintf("SOURCE=%s", p.Source),
		"MODE=PSR",
		fmt.Sprintf("FREQ=%s", formatMHz(p.FreqMHz)),
		fmt.Sprintf("NCHAN=%d", p.InputChannels),
		"NPOL=2",
		"NBIT=4",
		"NDIM=2",
		fmt.Sprintf("TSAMP=%f", float64(p.InputChannels)/p.BandwidthMHz),
		fmt.Sprintf("BW=%s", formatMHz(p.BandwidthMHz)),
		"UTC_START=2014-06-04-12:00:00",
		"OFFSET=0",
		"MAX_DATA_MB=4096",
	)

	return CommandSpec{Args: args, binaryIndex: binaryIndex}
}

// formatMHz renders a frequency-like value with at least one decimal place,
// the way the DUMMY header expects it.
func formatMHz(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
