package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/core/report"
)

func sample() report.Summary {
	return report.Summary{
		RunID:    "run1",
		Settled:  1,
		Skipped:  1,
		Steps:    4,
		MeanCost: 10,
		Lines: []report.Line{
			{RobotID: "r1", TaskID: "t1", Program: "item_pickup", Status: "settled", Steps: 4, BatteryBefore: 80, BatteryAfter: 70, Position: model.C(0, 2)},
			{RobotID: "r2", TaskID: "t2", Status: "skipped", Reason: "dropoff occupied", BatteryBefore: 50, BatteryAfter: 50},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "csv", sample()))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"run1", "r1", "t1", "item_pickup", "settled", "4", "80", "70", "false", "0", "2", ""}, rows[1])
	assert.Equal(t, "dropoff occupied", rows[2][11])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", sample()))
	var out report.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, sample(), out)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "", sample()))
	out := buf.String()
	assert.Contains(t, out, "ROBOT")
	assert.Contains(t, out, "skipped (dropoff occupied)")
	assert.Contains(t, out, "80 -> 70")
	assert.Contains(t, out, "settled=1 skipped=1")
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "xml", sample()))
}
