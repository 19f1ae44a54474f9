package visualization

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/smearedink/dspsr-utils/pkg/dspsr"
	"github.com/smearedink/dspsr-utils/pkg/trials"
)

func TestSweepSummary(t *testing.T) {
	Convey("While summarizing an executed sweep", t, func() {
		sweep := trials.New("F", []float64{512, 1024}, dspsr.DefaultInvocationParams())
		sweep.Times = map[string][]float64{
			"Fold":      {1.25, 1.5},
			"Detection": {trials.NoMeasurement, 0.4},
		}
		sweep.WallTimes = []float64{3.0, trials.NoMeasurement}
		sweep.Success = []bool{true, false}

		table := SweepSummary(sweep)

		Convey("The header should carry the varied argument and its values", func() {
			So(table.Headers(), ShouldResemble, []string{"F", "512", "1024"})
		})

		Convey("Stage rows should be sorted and placeholders rendered as dashes", func() {
			So(table.Rows(), ShouldResemble, [][]string{
				{"Detection", "-", "0.400"},
				{"Fold", "1.250", "1.500"},
				{"wall time", "3.000", "-"},
				{"success", "true", "false"},
			})
		})

		Convey("The table should render without error", func() {
			buffer := &bytes.Buffer{}
			DrawTable(buffer, table)

			So(buffer.String(), ShouldContainSubstring, "Fold")
			So(buffer.String(), ShouldContainSubstring, "1.250")
		})
	})
}
