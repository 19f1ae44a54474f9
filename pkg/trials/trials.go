package trials

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/smearedink/dspsr-utils/pkg/dspsr"
	"github.com/smearedink/dspsr-utils/pkg/utils/uuid"
)

// NoMeasurement is the placeholder recorded wherever a run produced no valid
// timing: failed runs, and stages a particular run did not report.
const NoMeasurement = -1.0

// Runner runs a single dspsr invocation. dspsr.Runner satisfies it.
type Runner interface {
	Run(params dspsr.InvocationParams) (dspsr.RunResult, error)
}

// Classifier decides whether a finished run succeeded. It is pluggable
// because a marker search is not guaranteed to stay a robust criterion
// across dspsr versions.
type Classifier interface {
	Successful(result dspsr.RunResult) bool
}

// ErrorMarkerClassifier fails a run when any captured output line contains
// the marker substring.
type ErrorMarkerClassifier struct {
	Marker string
}

// Successful reports whether neither stdout nor stderr carries the marker.
func (c ErrorMarkerClassifier) Successful(result dspsr.RunResult) bool {
	for _, line := range result.Stdout {
		if strings.Contains(line, c.Marker) {
			return false
		}
	}
	return !strings.Contains(result.Stderr, c.Marker)
}

// DefaultClassifier matches the prefix of dspsr's error reports.
func DefaultClassifier() Classifier {
	return ErrorMarkerClassifier{Marker: "Error"}
}

// Trials aggregates one benchmarking sweep: a single varied parameter walked
// through a value sequence while all other parameters stay fixed.
//
// All per-value sequences are aligned positionally to Values. Once Executed
// is set they all have exactly len(Values) entries and are never mutated
// again. Stage sequences are discovered lazily from whatever stage names the
// runs report; there is no fixed stage list.
type Trials struct {
	ID        string
	VariedArg string
	Values    []float64
	FixedArgs dspsr.InvocationParams
	Executed  bool
	Success   []bool
	Times     map[string][]float64
	WallTimes []float64
	Stdout    [][]string
	Stderr    []string
	Commands  []string
	Comment   string

	// Classifier judges each run; DefaultClassifier when nil.
	Classifier Classifier
	// CheckpointFile, when set, receives the serialized sweep after every
	// value so an interrupted sweep is not lost entirely.
	CheckpointFile string
}

// New returns a sweep over the given values of variedArg, holding fixedArgs
// constant. Parameters left at their zero value in fixedArgs take the dspsr
// benchmark defaults at build time.
func New(variedArg string, values []float64, fixedArgs dspsr.InvocationParams) *Trials {
	if values == nil {
		values = []float64{}
	}
	return &Trials{
		ID:        uuid.New(),
		VariedArg: variedArg,
		Values:    values,
		FixedArgs: fixedArgs,
		Success:   make([]bool, len(values)),
		Times:     map[string][]float64{},
		WallTimes: []float64{},
		Stdout:    [][]string{},
		Stderr:    []string{},
		Commands:  []string{},
	}
}

// AddComment attaches a free-text annotation to the sweep.
func (t *Trials) AddComment(comment string) {
	t.Comment = comment
}

// Execute runs the sweep: one dspsr invocation per value, strictly in
// sequence order. A run whose output the classifier rejects is recorded with
// placeholder timings and a false success flag; the sweep carries on. Spawn
// and configuration errors abort the whole sweep and are returned.
// Executing an already executed sweep is a reported no-op.
func (t *Trials) Execute(runner Runner) error {
	if t.Executed {
		log.Info("Already executed.")
		return nil
	}

	classifier := t.Classifier
	if classifier == nil {
		classifier = DefaultClassifier()
	}

	for i, value := range t.Values {
		log.Infof("Run %d of %d: %s = %v", i+1, len(t.Values), t.VariedArg, value)

		params := t.FixedArgs
		if err := params.Set(t.VariedArg, value); err != nil {
			return err
		}

		result, err := runner.Run(params)
		if err != nil {
			return errors.Wrapf(err, "sweep aborted at %s = %v", t.VariedArg, value)
		}

		t.Success[i] = classifier.Successful(result)
		if t.Success[i] {
			t.recordTimings(i, result)
			log.Infof("That run took %.2f seconds.", result.WallTime)
		} else {
			t.recordFailure(i)
			log.Warnf("Run with %s = %v failed; recording placeholders.", t.VariedArg, value)
		}

		t.Stdout = append(t.Stdout, result.Stdout)
		t.Stderr = append(t.Stderr, result.Stderr)
		t.Commands = append(t.Commands, result.Command)

		t.checkpoint()
	}

	t.Executed = true
	t.checkpoint()
	log.Info("Done.")
	return nil
}

// recordTimings appends the timings of a successful run at the given index,
// keeping every stage sequence aligned to the value sequence.
func (t *Trials) recordTimings(index int, result dspsr.RunResult) {
	for stage, secs := range result.Times {
		seq, known := t.Times[stage]
		if !known {
			// Stage seen for the first time mid-sweep; earlier values
			// get placeholders.
			seq = make([]float64, 0, len(t.Values))
		}
		for len(seq) < index {
			seq = append(seq, NoMeasurement)
		}
		t.Times[stage] = append(seq, secs)
	}

	// Stages known from earlier runs but absent from this one.
	for stage, seq := range t.Times {
		if len(seq) == index {
			t.Times[stage] = append(seq, NoMeasurement)
		}
	}

	t.WallTimes = append(t.WallTimes, result.WallTime)
}

// recordFailure appends placeholders at the given index to every known
// sequence.
func (t *Trials) recordFailure(index int) {
	for stage, seq := range t.Times {
		if len(seq) == index {
			t.Times[stage] = append(seq, NoMeasurement)
		}
	}
	t.WallTimes = append(t.WallTimes, NoMeasurement)
}

func (t *Trials) checkpoint() {
	if t.CheckpointFile == "" {
		return
	}
	if err := t.SaveFile(t.CheckpointFile); err != nil {
		log.Errorf("Could not checkpoint sweep to %q: %v", t.CheckpointFile, err)
	}
}
