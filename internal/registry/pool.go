package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/schema"
)

// Sleeper pauses between polling attempts. Tests inject a recording fake.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PollConfig holds the two independent polling budgets.
type PollConfig struct {
	// Timeout is the total time to wait while profiling reports Processing.
	Timeout time.Duration
	// Interval is the pause between Processing polls.
	Interval time.Duration
	// RetryLimit is the number of retries after a failed status request.
	RetryLimit int
	// RetryInterval is the pause before retrying a failed status request.
	RetryInterval time.Duration
}

// DefaultPollConfig returns the default budgets.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Timeout:       120 * time.Second,
		Interval:      10 * time.Second,
		RetryLimit:    3,
		RetryInterval: 5 * time.Second,
	}
}

// Pool resolves models by name and registers the missing ones.
type Pool struct {
	client  *Client
	poll    PollConfig
	sleeper Sleeper
	logger  logrus.FieldLogger
}

// PoolOption customizes a Pool.
type PoolOption func(*Pool)

// WithSleeper replaces the real sleeper.
func WithSleeper(s Sleeper) PoolOption {
	return func(p *Pool) { p.sleeper = s }
}

// WithLogger sets the pool logger.
func WithLogger(l logrus.FieldLogger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// NewPool creates a Pool. The poll budgets are used as given, so a zero
// Timeout fails on the first Processing status.
func NewPool(client *Client, poll PollConfig, opts ...PoolOption) *Pool {
	p := &Pool{
		client:  client,
		poll:    poll,
		sleeper: realSleeper{},
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetOrCreate returns the model registered under name, registering it with
// the schema and reference data when it does not exist yet.
func (p *Pool) GetOrCreate(ctx context.Context, name string, s *schema.Schema, referenceURI string, metadata map[string]string) (*Model, error) {
	model, err := p.Get(ctx, name, false)
	if err == nil {
		return model, nil
	}
	if !errors.Is(err, ErrModelNotFound) {
		return nil, err
	}
	return p.Create(ctx, name, s, referenceURI, metadata)
}

// Get resolves a model by exact name and, unless strict, by normalized
// name. The first listed candidate wins.
func (p *Pool) Get(ctx context.Context, name string, strict bool) (*Model, error) {
	model, err := p.lookup(ctx, name)
	if err != nil || model != nil {
		return model, err
	}
	if strict {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}

	p.logger.WithField("model", name).Info("no exact match for model name, trying normalized name")
	normalized := NormalizeName(name)
	model, err = p.lookup(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, fmt.Errorf("%w: %q or %q", ErrModelNotFound, name, normalized)
	}
	return model, nil
}

func (p *Pool) lookup(ctx context.Context, name string) (*Model, error) {
	candidates, err := p.client.FindModels(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	p.logger.WithFields(logrus.Fields{
		"model":      candidates[0].Name,
		"candidates": len(candidates),
	}).Info("found model")
	mv, err := p.client.ModelVersion(ctx, candidates[0].Name, lookupVersion)
	if err != nil {
		return nil, err
	}
	return mv.toModel(), nil
}

// Create registers a model, submits its reference data and waits until the
// registry finishes profiling it. A failure after registration leaves the
// model in place; a later GetOrCreate finds it by name.
func (p *Pool) Create(ctx context.Context, name string, s *schema.Schema, referenceURI string, metadata map[string]string) (*Model, error) {
	req, err := BuildRegistration(name, s, metadata)
	if err != nil {
		return nil, err
	}
	mv, err := p.client.RegisterExternalModel(ctx, req)
	if err != nil {
		return nil, err
	}
	model := mv.toModel()
	log := p.logger.WithFields(logrus.Fields{
		"model":            model.Name,
		"model_version":    model.Version,
		"model_version_id": model.VersionID,
	})
	log.Info("registered external model")

	log.WithField("reference", referenceURI).Info("uploading reference data")
	if err := p.client.UploadTrainingData(ctx, model.VersionID, referenceURI); err != nil {
		return nil, err
	}
	if err := p.WaitForProcessing(ctx, model.VersionID); err != nil {
		return nil, err
	}
	return model, nil
}

// WaitForProcessing polls the profiling status until it reports Success.
//
// Processing waits Interval and spends that much of Timeout; once Timeout
// is spent it fails with ErrTimeout. Failure, NotRegistered and unknown
// states fail with ErrDataUploadFailed at once. A failed status request
// waits RetryInterval and spends one retry; with no retries left it fails
// with ErrAPINotAvailable.
func (p *Pool) WaitForProcessing(ctx context.Context, versionID int64) error {
	remaining := p.poll.Timeout
	retries := p.poll.RetryLimit
	log := p.logger.WithField("model_version_id", versionID)

	for {
		status, err := p.client.ProfileStatus(ctx, versionID)
		if err != nil {
			if retries <= 0 {
				return fmt.Errorf("%w: fetch profiling status: %w", ErrAPINotAvailable, err)
			}
			retries--
			entry := log.WithError(err).WithField("retries_left", retries)
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				entry = entry.WithFields(logrus.Fields{
					"status_code":  httpErr.StatusCode,
					"server_error": httpErr.IsServerError(),
				})
			}
			entry.Warn("profiling status unavailable, retrying")
			if err := p.sleeper.Sleep(ctx, p.poll.RetryInterval); err != nil {
				return err
			}
			continue
		}

		switch status {
		case StatusSuccess:
			log.Info("reference data processed")
			return nil
		case StatusProcessing:
			if remaining <= 0 {
				return fmt.Errorf("%w: model version %d still processing after %s", ErrTimeout, versionID, p.poll.Timeout)
			}
			log.WithField("remaining", remaining).Debug("reference data still processing")
			step := p.poll.Interval
			if step <= 0 {
				step = remaining
			}
			if err := p.sleeper.Sleep(ctx, step); err != nil {
				return err
			}
			remaining -= step
		default:
			return fmt.Errorf("%w: profiling status %q", ErrDataUploadFailed, status)
		}
	}
}
