package transcribe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/fmueller/podscribe/internal/assemblyai"
	"github.com/fmueller/podscribe/internal/config"
	"github.com/fmueller/podscribe/internal/metrics"
	"go.uber.org/zap"
)

// ErrPollExhausted is returned when the attempt cap or the timeout is hit
// before the job reaches a terminal status.
var ErrPollExhausted = errors.New("transcription did not finish in time")

const defaultMaxInterval = time.Minute

type StatusReader interface {
	Status(ctx context.Context, id assemblyai.JobID) (assemblyai.Job, error)
}

type Poller struct {
	source  StatusReader
	opts    config.Poll
	logger  *zap.Logger
	metrics *metrics.Workflow
	clock   backoff.Clock
	sleep   func(ctx context.Context, d time.Duration) error
}

type PollerOption func(*Poller)

func WithPollLogger(l *zap.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

func WithPollMetrics(m *metrics.Workflow) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

func NewPoller(source StatusReader, opts config.Poll, options ...PollerOption) *Poller {
	p := &Poller{
		source: source,
		opts:   opts,
		clock:  backoff.SystemClock,
		sleep:  sleepContext,
	}
	for _, o := range options {
		o(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.opts.Interval <= 0 {
		p.opts.Interval = config.DefaultPollInterval
	}
	return p
}

// Poll re-reads the job until it completes or fails. Without MaxAttempts and
// Timeout it only stops on a terminal status, a status read error, or ctx
// cancellation.
func (p *Poller) Poll(ctx context.Context, id assemblyai.JobID) (string, error) {
	schedule := p.schedule()

	for attempt := 1; ; attempt++ {
		job, err := p.source.Status(ctx, id)
		if err != nil {
			return "", err
		}
		p.metrics.PollAttempt(string(job.Status))

		outcome := Check(job)
		switch outcome.Kind {
		case Completed:
			p.logger.Debug("transcription completed", zap.String("job_id", string(id)), zap.Int("attempts", attempt))
			return outcome.Text, nil
		case Failed:
			return "", &TranscriptionError{JobID: id, Message: outcome.Message}
		}

		if p.opts.MaxAttempts > 0 && attempt >= p.opts.MaxAttempts {
			return "", fmt.Errorf("%w: still %s after %d attempts", ErrPollExhausted, job.Status, attempt)
		}

		wait := schedule.NextBackOff()
		if wait == backoff.Stop {
			return "", fmt.Errorf("%w: still %s after %s", ErrPollExhausted, job.Status, p.opts.Timeout)
		}

		p.logger.Debug("transcription pending",
			zap.String("job_id", string(id)),
			zap.String("status", string(job.Status)),
			zap.Stringer("outcome", outcome.Kind),
			zap.Int("attempt", attempt),
			zap.Duration("next_poll", wait),
		)
		if err := p.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

// schedule yields the wait before each re-read. Multiplier 1 keeps a fixed
// interval; Timeout maps to MaxElapsedTime, where zero means no limit.
func (p *Poller) schedule() *backoff.ExponentialBackOff {
	multiplier := p.opts.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	maxInterval := p.opts.MaxInterval
	if maxInterval == 0 {
		maxInterval = max(p.opts.Interval, defaultMaxInterval)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.Interval
	b.RandomizationFactor = 0
	b.Multiplier = multiplier
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = p.opts.Timeout
	b.Clock = p.clock
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
