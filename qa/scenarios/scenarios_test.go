package scenarios

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/core/playback"
)

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := Run(ctx, sc, playback.Config{})
	require.NoError(t, err)
	for _, d := range Check(sc, out) {
		t.Errorf("scenario %s: %s", sc.Name, d)
	}
}

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	require.NotEmpty(t, files)
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestScenarioSequentialMatchesConcurrent(t *testing.T) {
	sc, err := Load("two_robots.yaml")
	require.NoError(t, err)
	sc.Concurrent = false
	RunScenario(t, sc)
}

func TestCheckReportsMismatches(t *testing.T) {
	sc, err := Load("item_pickup.yaml")
	require.NoError(t, err)
	world, err := sc.World()
	require.NoError(t, err)

	diffs := Check(sc, Outcome{Result: playback.Result{World: world}})
	assert.Contains(t, diffs, "settled: got 0, want 1")
	assert.Contains(t, diffs, "tasks left: got 1, want 0")
	assert.Contains(t, diffs, "robot r1 battery: got 80, want 70")
}

func TestWorldRejectsRaggedGrid(t *testing.T) {
	sc := &Scenario{Name: "ragged", Grid: [][]string{{"empty", "empty"}, {"empty"}}}
	_, err := sc.World()
	assert.Error(t, err)

	sc = &Scenario{Name: "unknown", Grid: [][]string{{"lava"}}}
	_, err = sc.World()
	assert.Error(t, err)

	_, err = (&Scenario{Name: "empty"}).World()
	assert.Error(t, err)
}

func TestEntryDefKeepsNullCharge(t *testing.T) {
	e := EntryDef{Robot: "r1", Pickup: [][2]int{{0, 0}}, Dropoff: [][2]int{{0, 0}, {0, 1}}}.ToModel()
	assert.Nil(t, e.PathToCharge)
	assert.Equal(t, model.Path{model.C(0, 0), model.C(0, 1)}, e.PathToDropoff)
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	unnamed := filepath.Join(dir, "unnamed.yaml")
	require.NoError(t, os.WriteFile(unnamed, []byte("grid: [[empty]]\n"), 0o644))
	_, err = Load(unnamed)
	assert.Error(t, err)
}
