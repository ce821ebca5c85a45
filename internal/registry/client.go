// Package registry talks to the model registry HTTP API: it resolves models
// by name, registers external models and waits for their reference data to
// be profiled.
package registry

import (
	"context"
	"fmt"
	"net/url"
)

const (
	pathModels        = "/api/v2/model"
	pathModelVersion  = "/api/v2/model/version/%s/%d"
	pathExternalModel = "/api/v2/externalmodel"
	pathProfileUpload = "/monitoring/profiles/batch/%d/s3"
	pathProfileStatus = "/monitoring/profiles/batch/%d/status"
)

// lookupVersion is the version resolved for models found by name.
const lookupVersion = 1

// ProfileStatus is the processing state of uploaded reference data.
type ProfileStatus string

const (
	StatusSuccess       ProfileStatus = "Success"
	StatusFailure       ProfileStatus = "Failure"
	StatusProcessing    ProfileStatus = "Processing"
	StatusNotRegistered ProfileStatus = "NotRegistered"
)

// ModelSummary is one entry of the model listing.
type ModelSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ModelVersion is a registered model version as returned by the registry.
type ModelVersion struct {
	ID           int64        `json:"id"`
	ModelVersion int64        `json:"modelVersion"`
	Model        ModelSummary `json:"model"`
	Status       string       `json:"status,omitempty"`
}

// Model is the remote identity of a registered model version.
type Model struct {
	Name      string
	Version   int64
	VersionID int64
}

func (v *ModelVersion) toModel() *Model {
	return &Model{Name: v.Model.Name, Version: v.ModelVersion, VersionID: v.ID}
}

// Client wraps the registry endpoints.
type Client struct {
	transport *Transport
}

// NewClient creates a registry client.
func NewClient(transport *Transport) *Client {
	return &Client{transport: transport}
}

// ListModels fetches every model known to the registry.
func (c *Client) ListModels(ctx context.Context) ([]ModelSummary, error) {
	resp, err := c.transport.Get(ctx, pathModels)
	if err != nil {
		return nil, fmt.Errorf("%w: list models: %w", ErrAPINotAvailable, err)
	}
	var models []ModelSummary
	if err := resp.JSON(&models); err != nil {
		return nil, fmt.Errorf("%w: decode model list: %w", ErrAPINotAvailable, err)
	}
	return models, nil
}

// FindModels returns the models whose name equals name exactly, in listing
// order.
func (c *Client) FindModels(ctx context.Context, name string) ([]ModelSummary, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	var matches []ModelSummary
	for _, m := range models {
		if m.Name == name {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// ModelVersion fetches one version of a model.
func (c *Client) ModelVersion(ctx context.Context, name string, version int64) (*ModelVersion, error) {
	resp, err := c.transport.Get(ctx, fmt.Sprintf(pathModelVersion, url.PathEscape(name), version))
	if err != nil {
		return nil, fmt.Errorf("%w: get model version %s:%d: %w", ErrAPINotAvailable, name, version, err)
	}
	var mv ModelVersion
	if err := resp.JSON(&mv); err != nil {
		return nil, fmt.Errorf("%w: decode model version: %w", ErrAPINotAvailable, err)
	}
	return &mv, nil
}

// RegisterExternalModel registers a model served outside the platform.
func (c *Client) RegisterExternalModel(ctx context.Context, req *RegistrationRequest) (*ModelVersion, error) {
	resp, err := c.transport.Post(ctx, pathExternalModel, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelRegistrationFailed, err)
	}
	var mv ModelVersion
	if err := resp.JSON(&mv); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrModelRegistrationFailed, err)
	}
	return &mv, nil
}

// UploadTrainingData points the registry at the reference dataset of a
// model version. Profiling happens asynchronously on the registry side.
func (c *Client) UploadTrainingData(ctx context.Context, versionID int64, uri string) error {
	body := map[string]string{"path": uri}
	if _, err := c.transport.Post(ctx, fmt.Sprintf(pathProfileUpload, versionID), body); err != nil {
		return fmt.Errorf("%w: submit %s: %w", ErrDataUploadFailed, uri, err)
	}
	return nil
}

// ProfileStatus fetches the processing state of the reference data. Any
// returned error is a transport-level failure.
func (c *Client) ProfileStatus(ctx context.Context, versionID int64) (ProfileStatus, error) {
	resp, err := c.transport.Get(ctx, fmt.Sprintf(pathProfileStatus, versionID))
	if err != nil {
		return "", err
	}
	var body struct {
		Kind string `json:"kind"`
	}
	if err := resp.JSON(&body); err != nil {
		return "", fmt.Errorf("decode status: %w", err)
	}
	return ProfileStatus(body.Kind), nil
}
