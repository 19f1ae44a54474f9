package visualization

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/smearedink/dspsr-utils/pkg/trials"
)

// noMeasurementCell marks sweep entries that hold no valid timing.
const noMeasurementCell = "-"

// SweepSummary builds a stage-by-value table of an executed sweep:
// one column per swept value, one row per discovered stage, plus wall time
// and success rows.
func SweepSummary(sweep *trials.Trials) *Table {
	headers := []string{sweep.VariedArg}
	for _, value := range sweep.Values {
		headers = append(headers, strconv.FormatFloat(value, 'f', -1, 64))
	}

	stages := make([]string, 0, len(sweep.Times))
	for stage := range sweep.Times {
		stages = append(stages, stage)
	}
	sort.Strings(stages)

	data := [][]string{}
	for _, stage := range stages {
		row := []string{stage}
		for _, secs := range sweep.Times[stage] {
			row = append(row, secondsCell(secs))
		}
		data = append(data, row)
	}

	wallRow := []string{"wall time"}
	for _, secs := range sweep.WallTimes {
		wallRow = append(wallRow, secondsCell(secs))
	}
	data = append(data, wallRow)

	successRow := []string{"success"}
	for _, ok := range sweep.Success {
		successRow = append(successRow, fmt.Sprintf("%v", ok))
	}
	data = append(data, successRow)

	return NewTable(headers, data)
}

func secondsCell(secs float64) string {
	if secs == trials.NoMeasurement {
		return noMeasurementCell
	}
	return fmt.Sprintf("%.3f", secs)
}
