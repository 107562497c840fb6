package train

import (
	"fmt"
	"log"
	"time"
)

// Metrics describes one finished training cycle.
type Metrics struct {
	Cycle         int           // Zero-based index of the cycle
	Cycles        int           // Number of cycles requested by Train
	Examples      int           // Examples processed this cycle
	RunningError  float64       // Mean MSE over the ring buffer
	LifetimeError float64       // Mean MSE over every example seen
	Error         float64       // Dataset MSE after the update (full-batch only)
	Accuracy      float64       // Dataset percent correct after the update (full-batch only)
	Rate          float64       // Learning rate applied this cycle
	Elapsed       time.Duration // Wall time of the cycle
	FullBatch     bool          // Whether Error and Accuracy are set
}

// String formats the metrics as a single progress line.
func (m Metrics) String() string {
	s := fmt.Sprintf("Cycle %d/%d: running MSE=%.6f, lifetime MSE=%.6f, rate=%.4g",
		m.Cycle+1, m.Cycles, m.RunningError, m.LifetimeError, m.Rate)
	if m.FullBatch {
		s += fmt.Sprintf(", MSE=%.6f, correct=%.2f%%", m.Error, m.Accuracy)
	}
	return s + fmt.Sprintf(" (%v)", m.Elapsed.Round(time.Millisecond))
}

// Reporter observes training progress. It cannot influence training.
type Reporter interface {
	Report(m Metrics)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(m Metrics)

// Report calls f(m).
func (f ReporterFunc) Report(m Metrics) {
	f(m)
}

// Discard drops every report.
var Discard Reporter = ReporterFunc(func(Metrics) {})

// LogReporter prints every Every-th cycle (and the last one) to a logger.
type LogReporter struct {
	Logger *log.Logger // Defaults to the standard logger
	Every  int         // Report interval in cycles; values below 1 mean every cycle
}

// Report implements Reporter.
func (r LogReporter) Report(m Metrics) {
	every := max(r.Every, 1)
	if (m.Cycle+1)%every != 0 && m.Cycle+1 != m.Cycles {
		return
	}
	if r.Logger != nil {
		r.Logger.Println(m.String())
		return
	}
	log.Println(m.String())
}
