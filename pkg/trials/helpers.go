package trials

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CreateSweepDir creates a working directory for one sweep's artifacts
// (results, checkpoints, master.log) and opens the log file inside it.
func CreateSweepDir(appName, sweepID string) (directory string, logFile *os.File, err error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", nil, errors.Wrap(err, "could not obtain working directory")
	}

	directory = filepath.Join(wd, appName+"_"+sweepID)
	if err := os.MkdirAll(directory, os.ModePerm); err != nil {
		return "", nil, errors.Wrapf(err, "could not create sweep directory %q", directory)
	}

	logFile, err = os.Create(filepath.Join(directory, "master.log"))
	if err != nil {
		return "", nil, errors.Wrapf(err, "could not create log file in %q", directory)
	}

	return directory, logFile, nil
}
