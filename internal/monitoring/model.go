package monitoring

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/capture"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/registry"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/tensor"
	"github.com/Hydrospheredata/hydro-serving-integrations/pkg/monitoringpb"
)

// SignatureName is the signature every shadowed request is attributed to.
const SignatureName = "predict"

// Model is a registered model version bound to the monitoring transport.
type Model struct {
	registry.Model
	analyzer Analyzer
}

// NewModel binds a registered model to an analyzer.
func NewModel(m *registry.Model, analyzer Analyzer) *Model {
	return &Model{Model: *m, analyzer: analyzer}
}

// ExecutionInformation composes the record submitted for one capture. A
// capture without an event id gets a random request id.
func (m *Model) ExecutionInformation(rec *capture.Record, inputs, outputs tensor.Tensors) *monitoringpb.ExecutionInformation {
	requestID := rec.RequestID()
	if requestID == "" {
		requestID = uuid.NewString()
	}

	md := &monitoringpb.ExecutionMetadata{
		ModelName:      m.Name,
		ModelVersion:   m.Version,
		ModelVersionId: m.VersionID,
		SignatureName:  SignatureName,
		RequestId:      requestID,
	}
	if ts, err := rec.InferenceTime(); err == nil {
		md.InferenceTime = timestamppb.New(ts)
	}

	return &monitoringpb.ExecutionInformation{
		Request: &monitoringpb.PredictRequest{
			ModelSpec: &monitoringpb.ModelSpec{Name: m.Name, SignatureName: SignatureName},
			Inputs:    inputs,
		},
		Response: &monitoringpb.PredictResponse{Outputs: outputs},
		Metadata: md,
	}
}

// Analyze submits one encoded capture.
func (m *Model) Analyze(ctx context.Context, rec *capture.Record, inputs, outputs tensor.Tensors) error {
	return m.analyzer.Analyze(ctx, m.ExecutionInformation(rec, inputs, outputs))
}
