package dspsr

import (
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/smearedink/dspsr-utils/pkg/executor"
)

// RunResult is the outcome of one dspsr execution. It is created fresh for
// every invocation and never mutated afterwards.
type RunResult struct {
	// Times maps each reported stage name to its elapsed seconds. The map
	// may cover any subset of dspsr's stages.
	Times map[string]float64
	// WallTime is the wrapper-measured total wall time, NoWallTime when
	// its marker line was absent.
	WallTime float64
	// Stdout is the captured standard output, progress noise removed.
	Stdout []string
	// Stderr is the captured standard error, verbatim.
	Stderr string
	// Command is the rendered dspsr call, timing wrapper excluded.
	Command string
}

// Config contains all data for running dspsr benchmarks.
type Config struct {
	DspsrPath string
	// Timeout bounds the wait for a single run; an expired run is
	// force-stopped. Zero means wait indefinitely. dspsr can hang on some
	// synthetic inputs, so production sweeps should set this.
	Timeout time.Duration
}

// DefaultConfig is a constructor for Config with parameters taken from flags.
func DefaultConfig() Config {
	return Config{
		DspsrPath: PathFlag.Value(),
	}
}

// Runner executes single dspsr benchmark invocations.
type Runner struct {
	executor executor.Executor
	config   Config
}

// NewRunner returns a new dspsr Runner instance.
func NewRunner(executor executor.Executor, config Config) Runner {
	return Runner{
		executor: executor,
		config:   config,
	}
}

// Run builds the invocation for the given parameters, executes it, blocks
// until dspsr terminates and parses the captured output.
// A spawn failure is returned to the caller, never swallowed.
func (r Runner) Run(params InvocationParams) (RunResult, error) {
	spec := BuildCommand(r.config.DspsrPath, params)
	log.Info("dspsr call: ", spec.Rendered())

	taskHandle, err := r.executor.Execute(spec.Command())
	if err != nil {
		return RunResult{}, errors.Wrapf(err, "could not spawn dspsr with %q", r.executor.Name())
	}
	defer func() {
		if err := taskHandle.Clean(); err != nil {
			log.Error(err.Error())
		}
		if err := taskHandle.EraseOutput(); err != nil {
			log.Error(err.Error())
		}
	}()

	if r.config.Timeout > 0 {
		if terminated := taskHandle.Wait(r.config.Timeout); !terminated {
			log.Warn("dspsr did not finish within ", r.config.Timeout, "; stopping it")
			if err := taskHandle.Stop(); err != nil {
				return RunResult{}, errors.Wrap(err, "could not stop timed out dspsr")
			}
		}
	} else {
		taskHandle.Wait(0)
	}

	stdoutFile, err := taskHandle.StdoutFile()
	if err != nil {
		return RunResult{}, errors.Wrap(err, "could not access dspsr stdout")
	}
	results, err := Parse(stdoutFile)
	if err != nil {
		return RunResult{}, errors.Wrap(err, "could not parse dspsr output")
	}

	stderrFile, err := taskHandle.StderrFile()
	if err != nil {
		return RunResult{}, errors.Wrap(err, "could not access dspsr stderr")
	}
	stderr, err := io.ReadAll(stderrFile)
	if err != nil {
		return RunResult{}, errors.Wrap(err, "could not read dspsr stderr")
	}

	return RunResult{
		Times:    results.Stages,
		WallTime: results.WallTime,
		Stdout:   results.Lines,
		Stderr:   string(stderr),
		Command:  spec.Rendered(),
	}, nil
}
