package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/models"
	"github.com/stemwave/stemwave-be/internal/services"
)

type JobHandler struct {
	separations *services.SeparationService
}

func NewJobHandler(separations *services.SeparationService) *JobHandler {
	return &JobHandler{separations: separations}
}

type CreateJobRequest struct {
	AudioFileID     string   `json:"audioFileId"`
	SelectedStems   []string `json:"selectedStems"`
	Quality         string   `json:"quality"`
	Model           string   `json:"model"`
	DurationMinutes float64  `json:"durationMinutes"`
}

type JobResponse struct {
	JobID       string              `json:"jobId"`
	Status      string              `json:"status"`
	Progress    int                 `json:"progress"`
	ResultFiles []models.ResultFile `json:"resultFiles,omitempty"`
	CreditsUsed float64             `json:"creditsUsed"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
}

func toJobResponse(job *models.SeparationJob) JobResponse {
	return JobResponse{
		JobID:       job.ID.String(),
		Status:      string(job.Status),
		Progress:    job.Progress,
		ResultFiles: job.Results(),
		CreditsUsed: job.CreditsUsed,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
}

// CreateJob godoc
// @Summary Submit a stem separation job
// @Description Validate entitlements, reserve credits, and submit the audio file for separation
// @Tags Jobs
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param job body CreateJobRequest true "Separation request"
// @Success 201 {object} JobResponse
// @Failure 402 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.AudioFileID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "audioFileId is required"})
	}

	job, err := h.separations.Submit(c.Context(), userID, services.SeparationRequest{
		AudioFileID:     req.AudioFileID,
		SelectedStems:   req.SelectedStems,
		Quality:         req.Quality,
		Model:           req.Model,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		var verr *services.ValidationError
		var insufficient *services.InsufficientCreditsError
		var external *services.ExternalServiceError
		switch {
		case errors.As(err, &verr):
			return c.Status(422).JSON(fiber.Map{"error": verr.Reason})
		case errors.As(err, &insufficient):
			return c.Status(402).JSON(fiber.Map{
				"error":     "insufficient credits",
				"required":  insufficient.Required,
				"available": insufficient.Available,
			})
		case errors.Is(err, services.ErrSubmissionInFlight):
			return c.Status(409).JSON(fiber.Map{"error": "a submission for this file is already in flight"})
		case errors.As(err, &external):
			log.Printf("❌ Separation service rejected job for user %s: %v", userID, err)
			return c.Status(502).JSON(fiber.Map{"error": "separation service unavailable"})
		default:
			log.Printf("❌ Failed to submit job for user %s: %v", userID, err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to submit job"})
		}
	}

	return c.Status(201).JSON(toJobResponse(job))
}

// QuoteJob godoc
// @Summary Price a separation request
// @Description Run the entitlement gates and return the credit cost without submitting
// @Tags Jobs
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param job body CreateJobRequest true "Separation request"
// @Success 200 {object} pricing.Quote
// @Failure 402 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /jobs/quote [post]
func (h *JobHandler) QuoteJob(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	quote, err := h.separations.Quote(c.Context(), userID, services.SeparationRequest{
		AudioFileID:     req.AudioFileID,
		SelectedStems:   req.SelectedStems,
		Quality:         req.Quality,
		Model:           req.Model,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		var verr *services.ValidationError
		var insufficient *services.InsufficientCreditsError
		switch {
		case errors.As(err, &verr):
			return c.Status(422).JSON(fiber.Map{"error": verr.Reason})
		case errors.As(err, &insufficient):
			return c.Status(402).JSON(fiber.Map{
				"error":     "insufficient credits",
				"required":  insufficient.Required,
				"available": insufficient.Available,
			})
		default:
			log.Printf("❌ Failed to quote job for user %s: %v", userID, err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to quote job"})
		}
	}

	return c.JSON(quote)
}

// GetJob godoc
// @Summary Get job status
// @Description Current snapshot of a separation job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} JobResponse
// @Failure 404 {object} map[string]interface{}
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid job id"})
	}

	job, err := h.separations.Status(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "job not found"})
		}
		log.Printf("❌ Failed to fetch job %s: %v", jobID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch job"})
	}

	return c.JSON(toJobResponse(job))
}

// RecentJobs godoc
// @Summary List recent jobs
// @Description Most recent separation jobs for the user
// @Tags Jobs
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {array} JobResponse
// @Router /jobs/recent [get]
func (h *JobHandler) RecentJobs(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	jobs, err := h.separations.Recent(c.Context(), userID)
	if err != nil {
		log.Printf("❌ Failed to list recent jobs for user %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list jobs"})
	}

	out := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}
	return c.JSON(out)
}

// requireUserID reads the authenticated user from the X-User-ID header set
// by the upstream auth proxy.
func requireUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Get("X-User-ID")
	if raw == "" {
		return uuid.Nil, errors.New("missing X-User-ID header")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid X-User-ID header")
	}
	return userID, nil
}
