package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSimulation forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSimulation(ev SimulationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSimulation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordTrip forwards trips to sinks that record them.
func (m *MultiSink) RecordTrip(ev TripEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TripRecorder); ok {
			if err := rec.RecordTrip(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPlan forwards plans to sinks that record them.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PlanRecorder); ok {
			if err := rec.RecordPlan(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTripTo sends ev to sink when it records trips.
func RecordTripTo(sink MetricsSink, ev TripEvent) error {
	if rec, ok := sink.(TripRecorder); ok {
		return rec.RecordTrip(ev)
	}
	return nil
}

// RecordPlanTo sends ev to sink when it records plans.
func RecordPlanTo(sink MetricsSink, ev PlanEvent) error {
	if rec, ok := sink.(PlanRecorder); ok {
		return rec.RecordPlan(ev)
	}
	return nil
}
