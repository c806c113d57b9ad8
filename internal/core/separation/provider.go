package separation

import (
	"context"

	"github.com/stemwave/stemwave-be/internal/models"
)

// SubmitRequest is the payload sent to the external separation service.
type SubmitRequest struct {
	AudioFileID   string   `json:"audioFileId"`
	SelectedStems []string `json:"selectedStems"`
	Quality       string   `json:"quality"`
	Model         string   `json:"model"`
}

// SubmitResponse is the service's answer to a submission. Small files may
// come back with the result inline (Status "completed" and ResultFiles set);
// otherwise JobID identifies the remote job to poll.
type SubmitResponse struct {
	JobID       string              `json:"jobId"`
	Status      string              `json:"status"`
	Progress    int                 `json:"progress"`
	ResultFiles []models.ResultFile `json:"resultFiles,omitempty"`
}

// StatusResponse is one polled snapshot of a remote job.
type StatusResponse struct {
	Status      string              `json:"status"`
	Progress    int                 `json:"progress"`
	ResultFiles []models.ResultFile `json:"resultFiles,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Inline reports whether the service finished synchronously.
func (r *SubmitResponse) Inline() bool {
	return len(r.ResultFiles) > 0 || r.Status == "completed"
}

// Provider is the contract with the external audio-separation service.
type Provider interface {
	// Submit sends an audio file for separation.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)

	// Status fetches the current state of a remote job.
	Status(ctx context.Context, providerJobID string) (*StatusResponse, error)

	// Name returns the provider name for logging.
	Name() string
}
