package separation

import (
	"context"
	"time"

	"github.com/stemwave/stemwave-be/internal/models"
)

const (
	// DefaultPollInterval is the fixed delay between status fetches.
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxPollDuration bounds how long a job may stay non-terminal
	// before the poller gives up and reports failure.
	DefaultMaxPollDuration = 10 * time.Minute
	// maxConsecutiveErrors tolerates transient fetch failures before the
	// remote job is treated as lost.
	maxConsecutiveErrors = 3
)

// Snapshot is one observed state of a remote job. The sequence emitted by
// Poll is finite and ends with a terminal snapshot.
type Snapshot struct {
	Status      models.JobStatus
	Progress    int
	ResultFiles []models.ResultFile
	Error       string
}

// Terminal reports whether this snapshot ends the sequence.
func (s Snapshot) Terminal() bool {
	return s.Status.Terminal()
}

// Poller repeatedly fetches remote job status at a fixed interval.
type Poller struct {
	provider    Provider
	interval    time.Duration
	maxDuration time.Duration
}

// NewPoller creates a poller with the given cadence. Zero values fall back
// to the defaults.
func NewPoller(provider Provider, interval, maxDuration time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxDuration <= 0 {
		maxDuration = DefaultMaxPollDuration
	}
	return &Poller{provider: provider, interval: interval, maxDuration: maxDuration}
}

// Poll watches a remote job until it reaches a terminal state, the deadline
// passes, or ctx is cancelled. Cancelling abandons the watch only; the
// remote job itself keeps running on the provider's side.
func (p *Poller) Poll(ctx context.Context, providerJobID string) <-chan Snapshot {
	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)

		deadline := time.NewTimer(p.maxDuration)
		defer deadline.Stop()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		errs := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-deadline.C:
				out <- Snapshot{Status: models.JobFailed, Error: "processing timed out"}
				return
			case <-ticker.C:
			}

			resp, err := p.provider.Status(ctx, providerJobID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errs++
				if errs >= maxConsecutiveErrors {
					out <- Snapshot{Status: models.JobFailed, Error: err.Error()}
					return
				}
				continue
			}
			errs = 0

			snap := toSnapshot(resp)
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
			if snap.Terminal() {
				return
			}
		}
	}()

	return out
}

// toSnapshot maps a raw provider response to a job state. Delivered results
// always win over whatever status string the provider reports.
func toSnapshot(resp *StatusResponse) Snapshot {
	snap := Snapshot{
		Progress:    resp.Progress,
		ResultFiles: resp.ResultFiles,
		Error:       resp.Error,
	}
	switch {
	case len(resp.ResultFiles) > 0:
		snap.Status = models.JobCompleted
		snap.Progress = 100
	case resp.Status == "completed":
		snap.Status = models.JobCompleted
		snap.Progress = 100
	case resp.Status == "failed":
		snap.Status = models.JobFailed
		if snap.Error == "" {
			snap.Error = "separation failed"
		}
	case resp.Status == "pending":
		snap.Status = models.JobPending
	default:
		snap.Status = models.JobProcessing
	}
	return snap
}
