package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse/core/model"
)

func sampleRecords(now time.Time) []Record {
	return []Record{
		{Timestamp: now, RunID: "run-1", RobotID: "r1", TaskID: "t1", Program: "item_pickup", Status: "settled", Steps: 5, BatteryBefore: 80, BatteryAfter: 70, Position: model.C(0, 2)},
		{Timestamp: now.Add(time.Second), RunID: "run-1", RobotID: "r2", TaskID: "t2", Status: "skipped", Reason: "dropoff cell already holds an item"},
		{Timestamp: now.Add(2 * time.Second), RunID: "run-2", RobotID: "r1", TaskID: "t3", Program: "empty_handed", Status: "settled", Steps: 3},
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	for _, r := range sampleRecords(now) {
		require.NoError(t, s.Append(ctx, r))
	}

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.C(0, 2), all[0].Position)

	byRobot, err := s.Query(ctx, Query{RobotID: "r1"})
	require.NoError(t, err)
	assert.Len(t, byRobot, 2)

	byRun, err := s.Query(ctx, Query{RunID: "run-1", Status: "skipped"})
	require.NoError(t, err)
	require.Len(t, byRun, 1)
	assert.Equal(t, "r2", byRun[0].RobotID)

	late, err := s.Query(ctx, Query{Start: now.Add(1500 * time.Millisecond)})
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, "t3", late[0].TaskID)
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(t.TempDir() + "/journal.jsonl")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore("file:journal_test.db?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(t.TempDir()+"/logs/journal.jsonl", 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	_, err = Open(Config{Backend: "jsonl"})
	assert.Error(t, err)

	_, err = Open(Config{Backend: "postgres", Path: "x"})
	assert.Error(t, err)

	s, err = Open(Config{Backend: "jsonl", Path: t.TempDir() + "/j.jsonl"})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)
}
