package dspsr

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	// progressMarker identifies dspsr's intermediate progress reports,
	// which carry no timing information.
	progressMarker = "Finished 0 s"
	// timingSectionMarker opens the per-stage timing report printed when
	// dspsr runs with -r. One line per stage follows, `<stage> <seconds> ...`.
	timingSectionMarker = "Time Spent"
	// unloadMarker closes the timing report and carries the archive
	// unload time.
	unloadMarker = "dsp::Archiver::unload"
	// preparedMarker carries the preparation time, reported before the
	// timing section.
	preparedMarker = "dspsr: prepared in"
	// wallTimeMarker is emitted by the external timing wrapper, not by
	// dspsr itself.
	wallTimeMarker = "TOTAL WALL TIME ELAPSED"
)

const (
	// StagePreparation names the preparation timing reported outside the
	// timing section.
	StagePreparation = "Preparation"
	// StageUnloading names the archive unload timing reported outside the
	// timing section.
	StageUnloading = "Unloading"
)

// NoWallTime is reported when the timing wrapper line is absent from the output.
const NoWallTime = -1.0

// Results contains the timings recovered from one dspsr run.
// Stages may be any subset of the stages the tool happens to report;
// nothing is ever fabricated.
type Results struct {
	// Stages maps a reported stage name to its elapsed seconds.
	Stages map[string]float64
	// WallTime is the total wall time measured by the timing wrapper,
	// NoWallTime when its marker line is missing.
	WallTime float64
	// Lines holds the output with progress noise removed. Unrecognized
	// lines are preserved verbatim.
	Lines []string
}

func newResults() Results {
	return Results{
		Stages:   map[string]float64{},
		WallTime: NoWallTime,
		Lines:    []string{},
	}
}

// File parses dspsr output from the file at the given path.
func File(path string) (Results, error) {
	file, err := os.Open(path)
	if err != nil {
		return newResults(), err
	}
	defer file.Close()
	return Parse(file)
}

// Parse retrieves per-stage timings from dspsr output.
//
// The log format is not contractually stable across dspsr versions, so
// parsing keys on fixed marker substrings instead of an enumerated stage
// list: a section opened by the timing marker holds `<stage> <seconds>`
// lines recorded under whatever stage names appear, and the preparation,
// unload and wrapper wall-time lines are matched wherever they occur.
// Anything unrecognized is kept in the output log but contributes nothing,
// so format drift degrades the result instead of failing it.
func Parse(reader io.Reader) (Results, error) {
	results := newResults()
	inTimingSection := false

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()

		// dspsr overwrites its progress line in place with carriage
		// returns; only the final segment is meaningful.
		if idx := strings.LastIndex(line, "\r"); idx >= 0 {
			line = line[idx+1:]
		}
		if strings.Contains(line, progressMarker) {
			continue
		}
		results.Lines = append(results.Lines, line)

		fields := strings.Fields(line)
		switch {
		case strings.Contains(line, wallTimeMarker):
			if secs, ok := floatField(fields, 4); ok {
				results.WallTime = secs
			}
		case strings.Contains(line, preparedMarker):
			if secs, ok := floatField(fields, 3); ok {
				results.Stages[StagePreparation] = secs
			}
		case strings.Contains(line, unloadMarker):
			if secs, ok := floatField(fields, 2); ok {
				results.Stages[StageUnloading] = secs
			}
			inTimingSection = false
		case strings.Contains(line, timingSectionMarker):
			inTimingSection = true
		case inTimingSection && len(fields) >= 2:
			if secs, ok := floatField(fields, 1); ok {
				results.Stages[fields[0]] = secs
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return newResults(), err
	}
	return results, nil
}

// floatField parses field idx as seconds, reporting failure instead of
// erroring so a malformed line degrades to a missing entry.
func floatField(fields []string, idx int) (float64, bool) {
	if len(fields) <= idx {
		return 0, false
	}
	secs, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0, false
	}
	return secs, true
}
