// Package metrics defines the sinks recording playback observations. Sinks
// like PromSink and InfluxSink live in infra/metrics and register themselves
// in the factory; NewMetricsSink combines several configured sinks into a
// MultiSink. Optional recorder interfaces let a sink opt into step, run and
// notice events.
package metrics
