package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "podscribe"

// Workflow collects per-stage timings and failures of transcription runs.
// A nil *Workflow is valid and records nothing.
type Workflow struct {
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	pollAttempts  *prometheus.CounterVec
	runs          *prometheus.CounterVec
}

func NewWorkflow(reg prometheus.Registerer) (*Workflow, error) {
	m := &Workflow{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of upload, submit and poll stages",
			Buckets:   []float64{0.1, 0.5, 1, 3, 10, 30, 60, 180, 600, 1800},
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Failed workflow stages",
		}, []string{"stage"}),
		pollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_attempts_total",
			Help:      "Status reads by observed job status",
		}, []string{"status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished transcription runs by outcome",
		}, []string{"outcome"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.stageDuration, m.stageFailures, m.pollAttempts, m.runs} {
		if err := register(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// register replaces a collector that is already registered under the same
// descriptor, so commands can be constructed more than once per process.
func register(reg prometheus.Registerer, c prometheus.Collector) error {
	err := reg.Register(c)
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		reg.Unregister(are.ExistingCollector)
		err = reg.Register(c)
	}
	return err
}

func (m *Workflow) ObserveStage(stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Workflow) PollAttempt(status string) {
	if m == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.pollAttempts.WithLabelValues(status).Inc()
}

func (m *Workflow) RunFinished(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}
