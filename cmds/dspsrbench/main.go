package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smearedink/dspsr-utils/pkg/conf"
	"github.com/smearedink/dspsr-utils/pkg/dspsr"
	"github.com/smearedink/dspsr-utils/pkg/executor"
	"github.com/smearedink/dspsr-utils/pkg/trials"
	"github.com/smearedink/dspsr-utils/pkg/trials/logger"
	"github.com/smearedink/dspsr-utils/pkg/utils/errutil"
	"github.com/smearedink/dspsr-utils/pkg/visualization"
)

var (
	variedArgFlag = conf.NewStringFlag(
		"varied_arg",
		"Name of the dspsr parameter to sweep (e.g. nchan, F, T, dm, fftlen, minX, t).",
		"")
	valuesFlag = conf.NewSliceFlag(
		"value",
		"Value of the varied parameter. Repeat for each trial (--value=512 --value=1024).")
	sourceFlag = conf.NewStringFlag(
		"source",
		"Pulsar name placed in the synthetic header.",
		"1937+21")
	fixedArgsFlag = conf.NewSliceFlag(
		"fixed",
		"Fixed dspsr parameter as name=value. Repeat for each override (--fixed=nchan=32 --fixed=T=60).")
	commentFlag = conf.NewStringFlag(
		"comment",
		"Free-text annotation stored with the sweep results.",
		"")
	outputFlag = conf.NewStringFlag(
		"output",
		"Path of the results JSON file. Defaults to trials.json inside the sweep working directory.",
		"")
	checkpointFlag = conf.NewBoolFlag(
		"checkpoint",
		"Serialize the sweep after every trial so an interrupted sweep is not lost.",
		true)
	runTimeoutFlag = conf.NewDurationFlag(
		"run_timeout",
		"Per-trial time limit after which dspsr is force-stopped. 0 waits indefinitely.",
		0*time.Second)
)

// parseValues turns the repeated --value flags into the sweep's value sequence.
func parseValues(raw []string) ([]float64, error) {
	values := make([]float64, 0, len(raw))
	for _, s := range raw {
		value, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// parseFixedArgs applies the --fixed name=value overrides on top of the
// benchmark defaults.
func parseFixedArgs(raw []string) (dspsr.InvocationParams, error) {
	params := dspsr.DefaultInvocationParams()
	params.Source = sourceFlag.Value()

	for _, pair := range raw {
		fields := strings.SplitN(pair, "=", 2)
		if len(fields) != 2 {
			return params, dspsr.ConfigurationError{Param: pair, Reason: "expected name=value"}
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return params, dspsr.ConfigurationError{Param: fields[0], Reason: "value is not a number"}
		}
		if err := params.Set(fields[0], value); err != nil {
			return params, err
		}
	}
	return params, nil
}

func main() {
	conf.SetAppName("dspsrbench")
	conf.SetHelp(`dspsrbench sweeps one dspsr parameter over a sequence of values against a synthetic observation, records per-stage and wall times for every trial and stores the aggregate as JSON.`)

	errutil.Check(conf.ParseFlags())
	logrus.SetLevel(conf.LogLevel())

	if variedArgFlag.Value() == "" {
		logrus.Fatal("No parameter to sweep; set --varied_arg.")
	}
	values, err := parseValues(valuesFlag.Value())
	errutil.CheckWithContext(err, "Cannot parse --value flags")
	if len(values) == 0 {
		logrus.Fatal("No values to sweep; state at least one --value.")
	}

	fixedArgs, err := parseFixedArgs(fixedArgsFlag.Value())
	errutil.CheckWithContext(err, "Cannot parse --fixed flags")

	sweep := trials.New(variedArgFlag.Value(), values, fixedArgs)
	sweep.AddComment(commentFlag.Value())

	directory := logger.Initialize(conf.AppName(), sweep.ID)
	if checkpointFlag.Value() {
		sweep.CheckpointFile = filepath.Join(directory, "checkpoint.json")
	}

	config := dspsr.DefaultConfig()
	config.Timeout = runTimeoutFlag.Value()
	runner := dspsr.NewRunner(executor.NewLocal(), config)

	errutil.CheckWithContext(sweep.Execute(runner), "Sweep failed")

	outputPath := outputFlag.Value()
	if outputPath == "" {
		outputPath = filepath.Join(directory, "trials.json")
	}
	errutil.CheckWithContext(sweep.SaveFile(outputPath), "Cannot store sweep results")
	logrus.Infof("Sweep results stored in %q", outputPath)

	if conf.CassandraAddress.Value() != "none" {
		metadata := trials.NewMetadata(sweep.ID, trials.MetadataConfigFromFlags())
		errutil.CheckWithContext(metadata.Connect(), "Cannot connect to Cassandra")
		errutil.Check(metadata.RecordFlags())
		errutil.Check(metadata.RecordEnv(conf.EnvPrefix()))
		errutil.Check(metadata.RecordSummary(sweep))
	}

	visualization.DrawTable(os.Stdout, visualization.SweepSummary(sweep))
}
