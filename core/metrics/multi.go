package metrics

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRobotOutcome forwards the outcome to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordRobotOutcome(ev RobotOutcomeEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRobotOutcome(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordStep forwards steps to sinks implementing StepRecorder.
func (m *MultiSink) RecordStep(ev StepEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(StepRecorder); ok {
			if err := rec.RecordStep(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRun forwards run summaries.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RunRecorder); ok {
			if err := rec.RecordRun(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordNotice forwards notices.
func (m *MultiSink) RecordNotice(ev NoticeEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(NoticeRecorder); ok {
			if err := rec.RecordNotice(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordWorld forwards world snapshots.
func (m *MultiSink) RecordWorld(ev WorldStateEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(WorldRecorder); ok {
			if err := rec.RecordWorld(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds a connection.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
