package log

// MultiLogger fans each event out to several sinks in order, e.g. a
// SlogAdapter for the console next to a FileLogger capture.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger combines sinks into one Logger. Nil entries are
// dropped, so optional sinks can be passed straight through.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	kept := make([]Logger, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiLogger{sinks: kept}
}

// Log hands the event to every sink, in the order they were given.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
