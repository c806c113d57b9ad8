package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/stemwave/stemwave-be/internal/core/cache"
	"github.com/stemwave/stemwave-be/internal/core/locker"
	"github.com/stemwave/stemwave-be/internal/core/pricing"
	"github.com/stemwave/stemwave-be/internal/core/separation"
	"github.com/stemwave/stemwave-be/internal/metrics"
	"github.com/stemwave/stemwave-be/internal/models"
	"github.com/stemwave/stemwave-be/internal/repositories"
	"github.com/stemwave/stemwave-be/internal/shared/utils"
)

// SeparationService owns the job lifecycle: entitlement check, credit
// reservation, submission to the external service, and the pending ->
// processing -> {completed, failed} state machine. A job that fails keeps
// its deducted credits; there is no refund path.
type SeparationService struct {
	jobs         *repositories.JobRepo
	users        *repositories.UserRepo
	entitlements *EntitlementService
	provider     separation.Provider
	poller       *separation.Poller
	locks        locker.Locker
	recent       *cache.RecentJobs
	metrics      *metrics.Metrics

	maxPollDuration time.Duration
}

func NewSeparationService(
	jobs *repositories.JobRepo,
	users *repositories.UserRepo,
	entitlements *EntitlementService,
	provider separation.Provider,
	poller *separation.Poller,
	locks locker.Locker,
	recent *cache.RecentJobs,
	m *metrics.Metrics,
) *SeparationService {
	return &SeparationService{
		jobs:            jobs,
		users:           users,
		entitlements:    entitlements,
		provider:        provider,
		poller:          poller,
		locks:           locks,
		recent:          recent,
		metrics:         m,
		maxPollDuration: separation.DefaultMaxPollDuration,
	}
}

// Submit validates the request, reserves its credit cost, and hands the
// audio to the separation service. The per-(user, file) lock keeps a second
// concurrent submission of the same file from passing validation and
// deducting a second time while the first is still in flight.
func (s *SeparationService) Submit(ctx context.Context, userID uuid.UUID, req SeparationRequest) (*models.SeparationJob, error) {
	lockKey := fmt.Sprintf("%s:%s", userID, req.AudioFileID)
	release, err := s.locks.Acquire(ctx, lockKey)
	if err != nil {
		if errors.Is(err, locker.ErrAlreadyLocked) {
			s.countLock("held")
			return nil, ErrSubmissionInFlight
		}
		s.countLock("error")
		return nil, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	defer release()
	s.countLock("ok")

	quote, err := s.entitlements.Validate(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	job := &models.SeparationJob{
		ID:            uuid.New(),
		UserID:        userID,
		AudioFileID:   req.AudioFileID,
		Status:        models.JobPending,
		SelectedStems: req.SelectedStems,
		Model:         req.Model,
		Quality:       req.Quality,
		CreditsUsed:   quote.TotalCost,
	}

	// Reservation and job creation commit atomically; a concurrent spender
	// draining the balance between validation and commit surfaces here, not
	// as a negative balance.
	if err := s.jobs.CreateWithDeduction(ctx, job, quote.TotalCost); err != nil {
		if errors.Is(err, repositories.ErrInsufficientBalance) {
			available := 0.0
			if user, uerr := s.users.GetByID(ctx, userID); uerr == nil {
				available = user.CreditsRemaining
			}
			return nil, &InsufficientCreditsError{Required: quote.TotalCost, Available: available}
		}
		return nil, &LedgerError{Op: "reserve", Err: err}
	}
	if s.metrics != nil {
		s.metrics.JobsSubmittedTotal.Inc()
		if quote.TotalCost > 0 {
			s.metrics.DeductTotal.WithLabelValues("ok").Inc()
			s.metrics.DeductAmountTotal.Add(quote.TotalCost)
		}
	}

	resp, err := s.provider.Submit(ctx, separation.SubmitRequest{
		AudioFileID:   req.AudioFileID,
		SelectedStems: req.SelectedStems,
		Quality:       req.Quality,
		Model:         req.Model,
	})
	if err != nil {
		s.failJob(ctx, job, fmt.Sprintf("separation service error: %v", err))
		return nil, &ExternalServiceError{Provider: s.provider.Name(), Err: err}
	}

	if resp.Inline() {
		// Fast path: the service finished synchronously. pending ->
		// completed without ever observing processing is a normal
		// transition here.
		if _, err := s.jobs.MarkCompleted(ctx, job.ID, resp.ResultFiles); err != nil {
			return nil, fmt.Errorf("failed to finalize job: %w", err)
		}
		s.countFinished(models.JobCompleted, job.CreatedAt)
		fresh, err := s.jobs.GetByID(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		s.cachePut(*fresh)
		log.Printf("⚡ Job %s completed inline for user %s", job.ID, userID)
		return fresh, nil
	}

	if err := s.jobs.SetProviderJob(ctx, job.ID, resp.JobID); err != nil {
		return nil, fmt.Errorf("failed to record provider job: %w", err)
	}
	job.ProviderJobID = resp.JobID
	s.cachePut(*job)

	if s.poller != nil {
		go s.Track(context.Background(), job.ID, resp.JobID)
	}

	utils.LogInfo("job submitted", map[string]interface{}{
		"job_id": job.ID, "user_id": userID, "provider_job_id": resp.JobID, "cost": quote.TotalCost,
	})
	return job, nil
}

// Track follows a remote job until it terminates, persisting every observed
// transition. Cancelling ctx abandons the watch without cancelling the
// remote job; the stale-job sweep eventually fails anything left behind.
func (s *SeparationService) Track(ctx context.Context, jobID uuid.UUID, providerJobID string) {
	start := time.Now()
	for snap := range s.poller.Poll(ctx, providerJobID) {
		switch snap.Status {
		case models.JobProcessing:
			if ok, err := s.jobs.MarkProcessing(ctx, jobID, snap.Progress); err != nil || !ok {
				if err != nil {
					utils.LogError("failed to persist job progress", err, map[string]interface{}{"job_id": jobID})
				}
				continue
			}
		case models.JobCompleted:
			if ok, err := s.jobs.MarkCompleted(ctx, jobID, snap.ResultFiles); err != nil {
				utils.LogError("failed to persist job completion", err, map[string]interface{}{"job_id": jobID})
			} else if ok {
				s.countFinished(models.JobCompleted, start)
			}
		case models.JobFailed:
			if ok, err := s.jobs.MarkFailed(ctx, jobID, snap.Error); err != nil {
				utils.LogError("failed to persist job failure", err, map[string]interface{}{"job_id": jobID})
			} else if ok {
				s.countFinished(models.JobFailed, start)
			}
		}

		if job, err := s.jobs.GetByID(ctx, jobID); err == nil {
			s.cachePut(*job)
		}
	}
}

// Status returns the current job snapshot with the completion predicate
// applied: a row whose results arrived but whose status is stale reads as
// completed, and the repair is written back.
func (s *SeparationService) Status(ctx context.Context, jobID uuid.UUID) (*models.SeparationJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, job)
}

// Recent returns the cached recent jobs for a user, falling back to the
// authoritative job table when the cache is cold. Every returned row passes
// through the completion predicate, same as single-job reads.
func (s *SeparationService) Recent(ctx context.Context, userID uuid.UUID) ([]models.SeparationJob, error) {
	jobs := s.recent.List(userID)
	if len(jobs) == 0 {
		var err error
		jobs, err = s.jobs.ListRecentByUser(ctx, userID, cache.DefaultCapacity)
		if err != nil {
			return nil, err
		}
		for i := len(jobs) - 1; i >= 0; i-- {
			s.cachePut(jobs[i])
		}
	}

	out := make([]models.SeparationJob, 0, len(jobs))
	for i := range jobs {
		resolved, err := s.resolve(ctx, &jobs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resolved)
	}
	return out, nil
}

// FailStaleJobs is the periodic guard against jobs stuck non-terminal past
// the polling horizon: those with results are repaired to completed, the
// rest are failed so nothing stays pending forever.
func (s *SeparationService) FailStaleJobs(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.maxPollDuration)
	stale, err := s.jobs.ListStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	failed := 0
	for i := range stale {
		job := &stale[i]
		if job.HasResults() {
			if ok, err := s.jobs.MarkCompleted(ctx, job.ID, job.Results()); err == nil && ok {
				s.countFinished(models.JobCompleted, job.CreatedAt)
			}
			continue
		}
		if ok, err := s.jobs.MarkFailed(ctx, job.ID, "processing timed out"); err == nil && ok {
			failed++
			s.countFinished(models.JobFailed, job.CreatedAt)
		}
	}
	if failed > 0 {
		log.Printf("🧹 Failed %d stale separation jobs", failed)
	}
	return failed, nil
}

// CleanupOldJobs removes terminal jobs past the retention window.
func (s *SeparationService) CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error) {
	return s.jobs.DeleteOldJobs(ctx, retention)
}

// Quote prices a request without touching any state.
func (s *SeparationService) Quote(ctx context.Context, userID uuid.UUID, req SeparationRequest) (*pricing.Quote, error) {
	return s.entitlements.Validate(ctx, userID, req)
}

// resolve applies the completion predicate to a loaded job and persists the
// repair when the stored status lags behind delivered results.
func (s *SeparationService) resolve(ctx context.Context, job *models.SeparationJob) (*models.SeparationJob, error) {
	if job.Status.Terminal() || !job.HasResults() {
		return job, nil
	}

	ok, err := s.jobs.MarkCompleted(ctx, job.ID, job.Results())
	if err != nil {
		return nil, fmt.Errorf("failed to repair job status: %w", err)
	}
	if ok {
		s.countFinished(models.JobCompleted, job.CreatedAt)
		log.Printf("🔧 Repaired job %s: results present but status was %s", job.ID, job.Status)
	}
	fresh, err := s.jobs.GetByID(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	s.cachePut(*fresh)
	return fresh, nil
}

func (s *SeparationService) failJob(ctx context.Context, job *models.SeparationJob, msg string) {
	if ok, err := s.jobs.MarkFailed(ctx, job.ID, msg); err != nil {
		utils.LogError("failed to mark job failed", err, map[string]interface{}{"job_id": job.ID})
	} else if ok {
		s.countFinished(models.JobFailed, job.CreatedAt)
	}
	job.Status = models.JobFailed
	job.Error = msg
	s.cachePut(*job)
}

func (s *SeparationService) cachePut(job models.SeparationJob) {
	if s.recent != nil {
		s.recent.Put(job)
	}
}

func (s *SeparationService) countLock(result string) {
	if s.metrics != nil {
		s.metrics.LockAcquireTotal.WithLabelValues(result).Inc()
	}
}

func (s *SeparationService) countFinished(status models.JobStatus, startedAt time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.JobsFinishedTotal.WithLabelValues(string(status)).Inc()
	if !startedAt.IsZero() {
		s.metrics.JobDuration.Observe(time.Since(startedAt).Seconds())
	}
}
