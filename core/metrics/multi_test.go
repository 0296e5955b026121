package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordRobotOutcome(RobotOutcomeEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordStep(StepEvent) error {
	r.count++
	return nil
}

// outcomeOnly does not implement the optional recorders.
type outcomeOnly struct{ count int }

func (o *outcomeOnly) RecordRobotOutcome(RobotOutcomeEvent) error {
	o.count++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordRobotOutcome(RobotOutcomeEvent{RobotID: "r1"}); err != nil {
		t.Fatalf("record outcome: %v", err)
	}
	if err := m.RecordStep(StepEvent{RobotID: "r1"}); err != nil {
		t.Fatalf("record step: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded")
	}
}

func TestMultiSinkSkipsOptionalRecorders(t *testing.T) {
	o := &outcomeOnly{}
	m := NewMultiSink(o)
	if err := m.RecordStep(StepEvent{}); err != nil {
		t.Fatalf("record step: %v", err)
	}
	if err := m.RecordRun(RunEvent{}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := m.RecordWorld(WorldStateEvent{}); err != nil {
		t.Fatalf("record world: %v", err)
	}
	if o.count != 0 {
		t.Fatalf("expected no forwarding, got %d", o.count)
	}
}
