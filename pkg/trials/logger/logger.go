package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/smearedink/dspsr-utils/pkg/trials"
	"github.com/smearedink/dspsr-utils/pkg/utils/errutil"
)

// Initialize creates the sweep logs directory and configures logrus for a sweep.
// It returns the sweep working directory.
func Initialize(appName, sweepID string) string {
	directory, logFile, err := trials.CreateSweepDir(appName, sweepID)
	errutil.CheckWithContext(err, "Cannot create sweep logs directory")

	// Setup logging set to both output and logFile.
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.100"})
	logrus.SetOutput(io.MultiWriter(logFile, os.Stderr))

	logrus.Infof("Working directory %q", directory)
	logrus.Info("Starting sweep ", appName, " with id ", sweepID)

	return directory
}
