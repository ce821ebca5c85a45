// Package activities exposes capture file shadowing as Temporal activities.
package activities

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/capture"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/reference"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/registry"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/schema"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/shadow"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/storage"
)

// heartbeatInterval is how often a running activity reports liveness.
const heartbeatInterval = 10 * time.Second

// FileProcessor shadows one capture file.
type FileProcessor interface {
	Process(ctx context.Context, n shadow.Notification) (*shadow.FileSummary, error)
}

// CaptureFileRequest names a capture object. Size is optional.
type CaptureFileRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size,omitempty"`
}

// Activities holds the shadowing activities.
type Activities struct {
	processor FileProcessor
}

// NewActivities creates a new Activities instance.
func NewActivities(processor FileProcessor) *Activities {
	return &Activities{processor: processor}
}

// ShadowCaptureFile replays one capture file into monitoring. Failures that
// a retry cannot fix are reported as non-retryable.
func (a *Activities) ShadowCaptureFile(ctx context.Context, req CaptureFileRequest) (*shadow.FileSummary, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("shadowing capture file", "bucket", req.Bucket, "key", req.Key)

	size := req.Size
	if size <= 0 {
		size = -1
	}

	stop := startHeartbeat(ctx, req.Key)
	defer stop()

	summary, err := a.processor.Process(ctx, shadow.Notification{Bucket: req.Bucket, Key: req.Key, Size: size})
	if err != nil {
		logger.Error("capture file failed", "key", req.Key, "error", err)
		if permanent(err) {
			return summary, temporal.NewNonRetryableApplicationError(err.Error(), "ShadowPermanentError", err)
		}
		return summary, err
	}

	logger.Info("capture file shadowed", "key", req.Key,
		"processed", summary.Processed, "rejected", summary.Rejected, "skipped", summary.Skipped)
	return summary, nil
}

func startHeartbeat(ctx context.Context, details any) func() {
	activity.RecordHeartbeat(ctx, details)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				activity.RecordHeartbeat(ctx, details)
			}
		}
	}()
	return func() { close(done) }
}

func permanent(err error) bool {
	switch {
	case errors.Is(err, reference.ErrDataNotFound),
		errors.Is(err, shadow.ErrRecordRejected),
		errors.Is(err, schema.ErrUnsupportedEncoding),
		errors.Is(err, capture.ErrMalformed),
		errors.Is(err, registry.ErrModelRegistrationFailed),
		errors.Is(err, registry.ErrDataUploadFailed),
		errors.Is(err, &storage.Error{Code: storage.CodeInvalidURI}),
		errors.Is(err, &storage.Error{Code: storage.CodeObjectNotFound}):
		return true
	}
	return false
}
