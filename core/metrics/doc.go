// Package metrics defines the sinks that record simulation runs, trips and
// fleet allocation plans. Sinks implement MetricsSink and optionally
// TripRecorder and PlanRecorder; NewMultiSink combines several of them and
// Config.Build assembles the configured set from the sink registry.
package metrics
