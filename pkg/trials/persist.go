package trials

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/smearedink/dspsr-utils/pkg/dspsr"
)

// trialsRecord is the explicit serialization schema for a sweep. Field names
// match the historical result dumps so files produced by older harness
// versions stay loadable, and fields added later are simply ignored by them.
type trialsRecord struct {
	ID              string                 `json:"id"`
	VariedArg       string                 `json:"varied_arg"`
	VariedArgValues []float64              `json:"varied_arg_values"`
	FixedArgs       dspsr.InvocationParams `json:"fixed_args"`
	Executed        bool                   `json:"executed"`
	Success         []bool                 `json:"success"`
	Times           map[string][]float64   `json:"times"`
	WallTimes       []float64              `json:"utime"`
	Stdout          [][]string             `json:"stdout"`
	Stderr          []string               `json:"stderr"`
	Commands        []string               `json:"dspsr_calls"`
	Comment         string                 `json:"comment"`
}

// Save serializes the whole sweep as indented JSON.
func (t *Trials) Save(writer io.Writer) error {
	record := trialsRecord{
		ID:              t.ID,
		VariedArg:       t.VariedArg,
		VariedArgValues: t.Values,
		FixedArgs:       t.FixedArgs,
		Executed:        t.Executed,
		Success:         t.Success,
		Times:           t.Times,
		WallTimes:       t.WallTimes,
		Stdout:          t.Stdout,
		Stderr:          t.Stderr,
		Commands:        t.Commands,
		Comment:         t.Comment,
	}

	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not serialize sweep")
	}
	if _, err := writer.Write(encoded); err != nil {
		return errors.Wrap(err, "could not write serialized sweep")
	}
	return nil
}

// SaveFile serializes the sweep to the file at the given path.
func (t *Trials) SaveFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %q", path)
	}
	defer file.Close()
	return t.Save(file)
}

// Load reconstructs a sweep from its serialized form. The aggregate is
// rebuilt field by field rather than decoded blindly: unknown fields are
// ignored and missing optional fields default to safe empties, so records
// written by other harness versions restore cleanly.
func Load(reader io.Reader) (*Trials, error) {
	var record trialsRecord
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&record); err != nil {
		return nil, errors.Wrap(err, "could not decode sweep record")
	}

	t := New(record.VariedArg, record.VariedArgValues, record.FixedArgs)
	if record.ID != "" {
		t.ID = record.ID
	}
	t.Executed = record.Executed
	t.Comment = record.Comment

	if len(record.Success) == len(t.Values) {
		t.Success = record.Success
	}
	for stage, seq := range record.Times {
		t.Times[stage] = seq
	}
	if record.WallTimes != nil {
		t.WallTimes = record.WallTimes
	}
	if record.Stdout != nil {
		t.Stdout = record.Stdout
	}
	if record.Stderr != nil {
		t.Stderr = record.Stderr
	}
	if record.Commands != nil {
		t.Commands = record.Commands
	}

	return t, nil
}

// LoadFile reconstructs a sweep from the file at the given path.
func LoadFile(path string) (*Trials, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	defer file.Close()
	return Load(file)
}
